package account_test

import (
	"net/http"
	"net/http/httptest"
	"partywork/account"
	"partywork/bizerror"
	"partywork/session"
	"partywork/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("UserRestApi", func() {
	var (
		router *gin.Engine
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		account.RegisterUsersHandler(router, testinfra.InjectSession(testinfra.BuildSession(1)))
	})
	AfterEach(func() {
		account.QueryUsersFunc = account.QueryUsers
		account.DetailUserFunc = account.DetailUser
	})

	Describe("HandleQueryUsers", func() {
		It("should return 200 when query successful", func() {
			var query *account.UserQuery
			account.QueryUsersFunc = func(q *account.UserQuery, s *session.Session) (*[]account.UserInfo, error) {
				query = q
				Expect(s.Identity.ID).To(Equal(types.ID(1)))
				return &[]account.UserInfo{{ID: 123, Name: "test", Email: "t@example.com"}}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/v1/users?workspaceId=9&keyword=te", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[{"id": "123", "name": "test", "email": "t@example.com", "imageUrl": ""}]`))
			Expect(*query).To(Equal(account.UserQuery{WorkspaceID: 9, Keyword: "te"}))
		})

		It("should return 400 when query is invalid", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/users?workspaceId=abc", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
		})
	})

	Describe("HandleDetailUser", func() {
		It("should return user detail", func() {
			account.DetailUserFunc = func(id types.ID, s *session.Session) (*account.UserInfo, error) {
				return &account.UserInfo{ID: id, Name: "test"}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/users/123", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"id": "123", "name": "test", "email": "", "imageUrl": ""}`))
		})

		It("should return 403 when forbidden", func() {
			account.DetailUserFunc = func(id types.ID, s *session.Session) (*account.UserInfo, error) {
				return nil, bizerror.ErrForbidden
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/users/123", nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusForbidden))
		})

		It("should return 400 when id is invalid", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/users/abc", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid id 'abc'","data":null}`))
		})
	})
})
