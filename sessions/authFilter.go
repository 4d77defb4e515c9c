package sessions

import (
	"context"
	"errors"
	"partywork/account"
	"partywork/bizerror"
	"partywork/persistence"
	"partywork/session"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	FindUserByExternalIDFunc = findUserByExternalID
)

func findUserByExternalID(ctx context.Context, externalId string) (*account.User, error) {
	return account.FindUserByExternalID(externalId, persistence.ActiveDataSourceManager.GormDB(ctx))
}

// BearerAuthFilter resolves the session of the bearer token (or session cookie), caching it in session.TokenCache.
func BearerAuthFilter(verifier session.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			panic(bizerror.ErrUnauthenticated)
		}

		if cached, found := session.TokenCache.Get(token); found {
			if s, ok := cached.(*session.Session); ok {
				session.InjectSessionIntoGinContext(c, s)
				c.Next()
				return
			}
		}

		s, ttl, err := buildSession(c.Request.Context(), verifier, token)
		if err != nil {
			if !errors.Is(err, bizerror.ErrUnauthenticated) {
				panic(err)
			}
			panic(bizerror.ErrUnauthenticated)
		}
		session.TokenCache.Set(token, s, ttl)
		session.InjectSessionIntoGinContext(c, s)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return ""
	}
	if cookie, err := c.Cookie(session.KeySessionCookie); err == nil {
		return cookie
	}
	return ""
}

func buildSession(ctx context.Context, verifier session.TokenVerifier, token string) (*session.Session, time.Duration, error) {
	claims, err := verifier.Verify(token)
	if err != nil {
		logrus.Debugf("token verification failed: %v", err)
		return nil, 0, bizerror.ErrUnauthenticated
	}

	user, err := FindUserByExternalIDFunc(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithField("subject", claims.Subject).Info("token subject is not synchronized yet")
			return nil, 0, bizerror.ErrUnauthenticated
		}
		return nil, 0, err
	}

	perms, workspaceRoles, projectRoles, err := account.LoadPermFunc(user.ID)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	ttl := claims.ExpiresAt.Sub(now)
	if ttl > session.MaxSessionCaching {
		ttl = session.MaxSessionCaching
	}
	if ttl <= 0 {
		return nil, 0, bizerror.ErrUnauthenticated
	}
	return &session.Session{
		Token:          token,
		Identity:       session.Identity{ID: user.ID, ExternalID: user.ExternalID, Name: user.DisplayName(), Email: user.Email},
		Perms:          perms,
		WorkspaceRoles: workspaceRoles,
		ProjectRoles:   projectRoles,
		SigningTime:    now,
	}, ttl, nil
}
