package namespace_test

import (
	"net/http"
	"net/http/httptest"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/session"
	"partywork/testinfra"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("WorkspaceRestApi", func() {
	var (
		router *gin.Engine
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		namespace.RegisterWorkspacesRestApis(router, testinfra.InjectSession(testinfra.BuildSession(1)))
		namespace.RegisterWorkspaceMembersRestApis(router, testinfra.InjectSession(testinfra.BuildSession(1)))
		namespace.RegisterProjectMembersRestApis(router, testinfra.InjectSession(testinfra.BuildSession(1)))
	})

	It("should query workspaces", func() {
		namespace.QueryWorkspacesFunc = func(s *session.Session) (*[]domain.WorkspaceDetail, error) {
			t := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
			return &[]domain.WorkspaceDetail{{Workspace: domain.Workspace{ID: 100, Name: "first", Slug: "first", OwnerID: 1,
				CreateTime: t, UpdateTime: t}, Role: domain.WorkspaceRoleAdmin, MemberCount: 2, ProjectCount: 3}}, nil
		}
		req := httptest.NewRequest(http.MethodGet, namespace.WorkspacesApiRoot, nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[{"id": "100", "externalId": "", "name": "first", "slug": "first", "description": "",
			"imageUrl": "", "ownerId": "1", "createTime": "2021-01-01T00:00:00Z", "updateTime": "2021-01-01T00:00:00Z",
			"role": "ADMIN", "memberCount": 2, "projectCount": 3}]`))
	})

	It("should create workspace", func() {
		var payload *domain.WorkspaceCreation
		namespace.CreateWorkspaceFunc = func(c *domain.WorkspaceCreation, s *session.Session) (*domain.Workspace, error) {
			payload = c
			return &domain.Workspace{ID: 100, Name: c.Name, Slug: c.Slug}, nil
		}
		req := httptest.NewRequest(http.MethodPost, namespace.WorkspacesApiRoot, common.StringReader(`{"name": "Youth", "slug": "youth"}`))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(*payload).To(Equal(domain.WorkspaceCreation{Name: "Youth", Slug: "youth"}))

		namespace.CreateWorkspaceFunc = func(c *domain.WorkspaceCreation, s *session.Session) (*domain.Workspace, error) {
			return nil, bizerror.ErrWorkspaceSlugTaken
		}
		req = httptest.NewRequest(http.MethodPost, namespace.WorkspacesApiRoot, common.StringReader(`{"name": "Youth", "slug": "youth"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(ContainSubstring(`"code":"workspace.slug_taken"`))
	})

	It("should reject invalid path id", func() {
		req := httptest.NewRequest(http.MethodGet, namespace.WorkspacesApiRoot+"/abc", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
	})

	It("should update and delete workspace", func() {
		var updated, deleted types.ID
		namespace.UpdateWorkspaceFunc = func(id types.ID, u *domain.WorkspaceUpdating, s *session.Session) error {
			updated = id
			return nil
		}
		namespace.DeleteWorkspaceFunc = func(id types.ID, s *session.Session) error {
			deleted = id
			return bizerror.ErrForbidden
		}
		req := httptest.NewRequest(http.MethodPut, namespace.WorkspacesApiRoot+"/100", common.StringReader(`{"name": "renamed"}`))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(updated).To(Equal(types.ID(100)))

		req = httptest.NewRequest(http.MethodDelete, namespace.WorkspacesApiRoot+"/100", nil)
		status, _, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(deleted).To(Equal(types.ID(100)))
	})

	It("should handle workspace members", func() {
		var deletion *domain.WorkspaceMemberDeletion
		namespace.DeleteWorkspaceMemberFunc = func(d *domain.WorkspaceMemberDeletion, s *session.Session) error {
			deletion = d
			return bizerror.ErrLastWorkspaceAdmin
		}
		req := httptest.NewRequest(http.MethodDelete, namespace.WorkspaceMembersApiRoot+"?workspaceId=100&memberId=10", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(ContainSubstring(`"code":"workspace.last_admin"`))
		Expect(*deletion).To(Equal(domain.WorkspaceMemberDeletion{WorkspaceID: 100, MemberID: 10}))

		req = httptest.NewRequest(http.MethodPost, namespace.WorkspaceMembersApiRoot,
			common.StringReader(`{"workspaceId": "100", "memberId": "10", "role": "OWNER"}`))
		status, _, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
	})

	It("should handle project members", func() {
		var creation *domain.ProjectMemberCreation
		namespace.CreateProjectMemberFunc = func(c *domain.ProjectMemberCreation, s *session.Session) error {
			creation = c
			return nil
		}
		req := httptest.NewRequest(http.MethodPost, namespace.ProjectsMemberApiRoot,
			common.StringReader(`{"projectId": "1000", "memberId": "21"}`))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(*creation).To(Equal(domain.ProjectMemberCreation{ProjectID: 1000, MemberID: 21}))

		var query *domain.ProjectMemberQuery
		namespace.QueryProjectMembersFunc = func(q *domain.ProjectMemberQuery, s *session.Session) (*[]domain.ProjectMemberDetail, error) {
			query = q
			return &[]domain.ProjectMemberDetail{}, nil
		}
		req = httptest.NewRequest(http.MethodGet, namespace.ProjectsMemberApiRoot+"?projectId=1000", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[]`))
		Expect(*query.ProjectID).To(Equal(types.ID(1000)))
		Expect(query.MemberID).To(BeNil())
	})
})
