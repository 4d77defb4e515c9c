package namespace_test

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/session"
	"partywork/testinfra"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("ProjectRestApi", func() {
	var (
		router *gin.Engine
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		namespace.RegisterProjectsRestApis(router, testinfra.InjectSession(testinfra.BuildSession(1)))
	})

	Describe("HandleQueryProjects", func() {
		It("should be able to query projects successfully", func() {
			var query *domain.ProjectQuery
			namespace.QueryProjectsFunc = func(q *domain.ProjectQuery, s *session.Session) (*[]domain.Project, error) {
				query = q
				t := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
				return &[]domain.Project{{ID: 123, WorkspaceID: 100, Name: "test", Status: domain.ProjectStatusActive,
					Priority: domain.PriorityLow, LeadID: 1, CreatorID: 1, CreateTime: t, UpdateTime: t}}, nil
			}

			req := httptest.NewRequest(http.MethodGet, namespace.ProjectsApiRoot+"?workspaceId=100&status=ACTIVE", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[{"id": "123", "workspaceId": "100", "name": "test", "description": "",
				"status": "ACTIVE", "priority": "LOW", "startDate": null, "endDate": null, "progress": 0,
				"leadId": "1", "public": false, "coverKey": "", "creatorId": "1",
				"createTime": "2021-01-01T00:00:00Z", "updateTime": "2021-01-01T00:00:00Z"}]`))
			Expect(*query).To(Equal(domain.ProjectQuery{WorkspaceID: 100, Status: domain.ProjectStatusActive}))
		})
	})

	Describe("HandleCreateProject", func() {
		It("should be able to create project successfully", func() {
			var payload *domain.ProjectCreation
			namespace.CreateProjectFunc = func(c *domain.ProjectCreation, s *session.Session) (*domain.Project, error) {
				payload = c
				return &domain.Project{ID: 123, WorkspaceID: c.WorkspaceID, Name: c.Name}, nil
			}

			req := httptest.NewRequest(http.MethodPost, namespace.ProjectsApiRoot,
				common.StringReader(`{"workspaceId": "100", "name": "test project", "memberIds": ["2"]}`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusCreated))
			Expect(body).To(ContainSubstring(`"id":"123"`))
			Expect(*payload).To(Equal(domain.ProjectCreation{WorkspaceID: 100, Name: "test project", MemberIDs: []types.ID{2}}))
		})

		It("should return 400 when payload is invalid", func() {
			req := httptest.NewRequest(http.MethodPost, namespace.ProjectsApiRoot,
				common.StringReader(`{"workspaceId": "100", "status": "UNKNOWN"}`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
		})
	})

	Describe("HandleUpdateProject", func() {
		It("should map domain conflicts", func() {
			var resId types.ID
			namespace.UpdateProjectFunc = func(id types.ID, u *domain.ProjectUpdating, s *session.Session) error {
				resId = id
				return bizerror.ErrProjectMemberNotInSpace
			}
			req := httptest.NewRequest(http.MethodPut, namespace.ProjectsApiRoot+"/123", common.StringReader(
				`{"name": "n", "status": "ACTIVE", "priority": "HIGH", "leadId": "3"}`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusConflict))
			Expect(body).To(MatchJSON(`{"code": "project.member_not_in_workspace", "message": "user is not a member of the workspace", "data": null}`))
			Expect(resId).To(Equal(types.ID(123)))
		})
	})

	Describe("HandleDeleteProject", func() {
		It("should return 404 when project not found", func() {
			namespace.DeleteProjectFunc = func(id types.ID, s *session.Session) error {
				return bizerror.ErrNotFound
			}
			req := httptest.NewRequest(http.MethodDelete, namespace.ProjectsApiRoot+"/123", nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("should return 204 when deleted", func() {
			namespace.DeleteProjectFunc = func(id types.ID, s *session.Session) error {
				return nil
			}
			req := httptest.NewRequest(http.MethodDelete, namespace.ProjectsApiRoot+"/123", nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNoContent))
		})
	})

	Describe("HandleDetailProjectProgress", func() {
		It("should return progress", func() {
			namespace.DetailProjectProgressFunc = func(id types.ID, s *session.Session) (*domain.ProjectProgress, error) {
				return &domain.ProjectProgress{ProjectID: id, TotalTasks: 4, DoneTasks: 1, Progress: 25}, nil
			}
			req := httptest.NewRequest(http.MethodGet, namespace.ProjectsApiRoot+"/123/progress", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"projectId": "123", "totalTasks": 4, "doneTasks": 1, "totalObjectives": 0,
				"completedObjectives": 0, "indicatorCount": 0, "indicatorAttainment": 0, "progress": 25}`))
		})
	})

	Describe("covers", func() {
		It("should upload cover from multipart file", func() {
			var received string
			var receivedSize int64
			namespace.UploadProjectCoverFunc = func(id types.ID, r io.Reader, size int64, contentType string, s *session.Session) (string, error) {
				data, _ := io.ReadAll(r)
				received, receivedSize = string(data), size
				return "covers/" + id.String(), nil
			}

			buf := &bytes.Buffer{}
			writer := multipart.NewWriter(buf)
			part, err := writer.CreateFormFile("file", "cover.png")
			Expect(err).To(BeNil())
			_, _ = part.Write([]byte("image-bytes"))
			Expect(writer.Close()).To(BeNil())

			req := httptest.NewRequest(http.MethodPut, namespace.ProjectsApiRoot+"/123/cover", buf)
			req.Header.Set("Content-Type", writer.FormDataContentType())
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"coverKey": "covers/123"}`))
			Expect(received).To(Equal("image-bytes"))
			Expect(receivedSize).To(Equal(int64(len("image-bytes"))))
		})

		It("should return 400 without file", func() {
			req := httptest.NewRequest(http.MethodPut, namespace.ProjectsApiRoot+"/123/cover", nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("should stream cover", func() {
			namespace.OpenProjectCoverFunc = func(id types.ID, s *session.Session) (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader("plain cover")), nil
			}
			req := httptest.NewRequest(http.MethodGet, namespace.ProjectsApiRoot+"/123/cover", nil)
			status, body, header := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(Equal("plain cover"))
			Expect(header.Get("Content-Type")).To(Equal("text/plain; charset=utf-8"))
		})

		It("should return 503 when object store is disabled", func() {
			namespace.OpenProjectCoverFunc = func(id types.ID, s *session.Session) (io.ReadCloser, error) {
				return nil, bizerror.ErrObjectStoreDisabled
			}
			req := httptest.NewRequest(http.MethodGet, namespace.ProjectsApiRoot+"/123/cover", nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusServiceUnavailable))
		})

		It("should return error from domain", func() {
			namespace.OpenProjectCoverFunc = func(id types.ID, s *session.Session) (io.ReadCloser, error) {
				return nil, errors.New("boom")
			}
			req := httptest.NewRequest(http.MethodGet, namespace.ProjectsApiRoot+"/123/cover", nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusInternalServerError))
		})
	})
})
