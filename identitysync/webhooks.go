package identitysync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"partywork/bizerror"
	"partywork/common"
	"partywork/idgen"
	"partywork/infra/metrics"
	"partywork/persistence"
	"partywork/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	svix "github.com/svix/svix-webhooks/go"
)

var (
	WebhookApiPath    = "/v1/webhooks/identity"
	SyncEventsApiRoot = "/v1/sync-events"

	QuerySyncEventsFunc = QuerySyncEvents
)

const deliveryHeader = "svix-id"

// Verifier checks the signature headers of a webhook delivery.
type Verifier interface {
	Verify(payload []byte, headers http.Header) error
}

// NewVerifier builds a svix signature verifier, the secret has the form "whsec_<base64>".
func NewVerifier(secret string) (Verifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return wh, nil
}

// MaxWebhookBodySize bounds deliveries read before their signature is checked.
const MaxWebhookBodySize = 1 << 20

// RegisterWebhookRestApis mounts the webhook receiver, it authenticates by signature instead of session.
func RegisterWebhookRestApis(r *gin.Engine, verifier Verifier) {
	r.POST(WebhookApiPath, HandleIdentityWebhook(verifier))
}

func RegisterSyncEventsRestApis(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(SyncEventsApiRoot, middleWares...)
	g.GET("", HandleQuerySyncEvents)
}

func HandleIdentityWebhook(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodySize))
		if err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		if err := verifier.Verify(body, c.Request.Header); err != nil {
			metrics.SyncEventsTotal.WithLabelValues("unknown", "REJECTED").Inc()
			logrus.WithField("remote", c.ClientIP()).Warnf("webhook signature rejected: %v", err)
			panic(bizerror.ErrUnauthenticated)
		}

		envelope := webhookEnvelope{}
		if err := json.Unmarshal(body, &envelope); err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		deliveryId := c.GetHeader(deliveryHeader)
		if deliveryId == "" || envelope.Type == "" {
			panic(&bizerror.ErrBadParam{Cause: errors.New("delivery id and event type are required")})
		}

		e, duplicated, err := accept(c.Request.Context(), deliveryId, envelope.Type, body)
		if err != nil {
			panic(err)
		}
		if duplicated {
			c.JSON(http.StatusOK, gin.H{"duplicated": true, "status": e.Status})
			return
		}

		if err := Process(c.Request.Context(), e); err != nil && e.Status != SyncStatusFailed {
			panic(err)
		}
		if e.Status == SyncStatusFailed {
			// accepted, the retry job picks it up later
			c.JSON(http.StatusAccepted, e)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// accept persists a new delivery, or returns the stored one when the delivery id was seen before.
func accept(ctx context.Context, deliveryId, eventType string, body []byte) (*SyncEvent, bool, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	existing, err := findByDelivery(db, deliveryId)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	now := common.Now()
	e := SyncEvent{ID: idgen.NextID(), DeliveryID: deliveryId, Type: eventType, Payload: string(body),
		Status: SyncStatusPending, CreateTime: now, UpdateTime: now}
	if err := db.Create(&e).Error; err != nil {
		// a concurrent delivery of the same id won the unique index
		if existing, findErr := findByDelivery(db, deliveryId); findErr == nil && existing != nil {
			return existing, true, nil
		}
		return nil, false, err
	}
	return &e, false, nil
}

func QuerySyncEvents(q *SyncEventQuery, s *session.Session) (*[]SyncEvent, error) {
	if !s.IsSystemAdmin() {
		return nil, bizerror.ErrForbidden
	}
	limit := q.Limit
	if limit == 0 {
		limit = 100
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	records := []SyncEvent{}
	if err := db.Order("create_time DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return &records, nil
}

func HandleQuerySyncEvents(c *gin.Context) {
	query := SyncEventQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := QuerySyncEventsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
