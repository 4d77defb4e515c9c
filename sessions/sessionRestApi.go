package sessions

import (
	"net/http"
	"partywork/account"
	"partywork/session"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterSessionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/session", middleWares...)
	g.GET("", DetailSession)
	g.DELETE("", EvictSession)
}

// DetailSession reloads permissions of the current session, so membership changes are visible at once.
func DetailSession(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)

	perms, workspaceRoles, projectRoles, err := account.LoadPermFunc(s.Identity.ID)
	if err != nil {
		panic(err)
	}
	fresh := session.Session{Token: s.Token, Identity: s.Identity, Perms: perms,
		WorkspaceRoles: workspaceRoles, ProjectRoles: projectRoles, SigningTime: time.Now()}

	if _, expiration, found := session.TokenCache.GetWithExpiration(s.Token); found {
		if ttl := time.Until(expiration); ttl > 0 {
			session.TokenCache.Set(s.Token, &fresh, ttl)
		}
	}
	c.JSON(http.StatusOK, &fresh)
}

// EvictSession drops the cached session, the token itself stays valid at the identity provider.
func EvictSession(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)
	session.TokenCache.Delete(s.Token)
	c.Status(http.StatusNoContent)
}
