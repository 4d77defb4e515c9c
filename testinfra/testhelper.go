package testinfra

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"partywork/authority"
	"partywork/domain"
	"partywork/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSession builds a session whose role lists agree with perms.
func BuildSession(uid types.ID, perms ...string) *session.Session {
	workspaceRoles := authority.WorkspaceRoles{}
	projectRoles := authority.ProjectRoles{}
	for _, perm := range perms {
		idx := strings.LastIndex(perm, "_")
		if idx <= 0 {
			continue
		}
		id, err := types.ParseID(perm[idx+1:])
		if err != nil {
			continue
		}
		switch perm[:idx] {
		case authority.WorkspaceAdminPrefix:
			workspaceRoles = append(workspaceRoles, domain.WorkspaceRoleBinding{WorkspaceID: id, Role: domain.WorkspaceRoleAdmin})
		case authority.WorkspaceMemberPrefix:
			workspaceRoles = append(workspaceRoles, domain.WorkspaceRoleBinding{WorkspaceID: id, Role: domain.WorkspaceRoleMember})
		case authority.ProjectLeadPrefix:
			projectRoles = append(projectRoles, domain.ProjectRoleBinding{ProjectID: id, Role: domain.ProjectRoleLead})
		case authority.ProjectMemberPrefix:
			projectRoles = append(projectRoles, domain.ProjectRoleBinding{ProjectID: id, Role: domain.ProjectRoleMember})
		}
	}

	return &session.Session{
		Token:          "test-token-" + uid.String(),
		Identity:       session.Identity{ID: uid, Name: "user" + uid.String()},
		Perms:          perms,
		WorkspaceRoles: workspaceRoles,
		ProjectRoles:   projectRoles,
		Context:        context.Background(),
	}
}

// InjectSession returns a middleware putting s into each request, standing in for the auth filter.
func InjectSession(s *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		session.InjectSessionIntoGinContext(c, s)
		c.Next()
	}
}

func ExecuteRequest(req *http.Request, engine *gin.Engine) (int, string, http.Header) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	bodyBytes, _ := io.ReadAll(w.Body)
	return w.Code, string(bodyBytes), w.Header()
}
