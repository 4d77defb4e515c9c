package session

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// MaxSessionCaching bounds how long a resolved session stays in TokenCache,
// so permission changes are picked up without waiting for token expiry.
const MaxSessionCaching = 5 * time.Minute

var TokenCache = cache.New(MaxSessionCaching, 1*time.Minute)

const KeySecCtx = "SecCtx"

// KeySessionCookie is the cookie the identity provider's frontend SDK stores the session token in.
const KeySessionCookie = "__session"

func ExtractSessionFromGinContext(ctx *gin.Context) *Session {
	var reqCtx context.Context = context.Background()
	if ctx.Request != nil {
		reqCtx = ctx.Request.Context()
	}
	value, found := ctx.Get(KeySecCtx)
	if !found {
		return &Session{Context: reqCtx}
	}
	s0, ok := value.(*Session)
	if !ok || s0.Token == "" {
		return &Session{Context: reqCtx}
	}
	s := s0.Clone()
	s.Context = reqCtx // trace context
	return &s
}

func InjectSessionIntoGinContext(ctx *gin.Context, s *Session) {
	if s != nil && s.Token != "" {
		ctx.Set(KeySecCtx, s)
	}
}
