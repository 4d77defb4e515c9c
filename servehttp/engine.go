package servehttp

import (
	"net/http"
	"partywork/account"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain/namespace"
	"partywork/domain/objective"
	"partywork/domain/resource"
	"partywork/domain/task"
	"partywork/identitysync"
	"partywork/infra/metrics"
	"partywork/infra/tracing"
	"partywork/search"
	"partywork/session"
	"partywork/sessions"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BuildEngine registers every api. Webhooks are left out when webhookVerifier is nil.
func BuildEngine(tokenVerifier session.TokenVerifier, webhookVerifier identitysync.Verifier) *gin.Engine {
	engine := gin.Default()
	engine.Use(metrics.GinMiddleware(), tracing.TracingIngress(), bizerror.ErrorHandling())

	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})
	metrics.RegisterMetricsApi(engine)

	if webhookVerifier != nil {
		identitysync.RegisterWebhookRestApis(engine, webhookVerifier)
	} else {
		logrus.Warn("identity webhook secret is not configured, webhook api disabled")
	}

	auth := sessions.BearerAuthFilter(tokenVerifier)
	sessions.RegisterSessionHandler(engine, auth)
	account.RegisterUsersHandler(engine, auth)
	namespace.RegisterWorkspacesRestApis(engine, auth)
	namespace.RegisterWorkspaceMembersRestApis(engine, auth)
	namespace.RegisterProjectsRestApis(engine, auth)
	namespace.RegisterProjectMembersRestApis(engine, auth)
	task.RegisterTasksRestApis(engine, auth)
	objective.RegisterObjectivesRestApis(engine, auth)
	resource.RegisterResourcesRestApis(engine, auth)
	search.RegisterSearchRestAPI(engine, auth)
	identitysync.RegisterSyncEventsRestApis(engine, auth)
	return engine
}
