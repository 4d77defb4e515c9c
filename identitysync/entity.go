package identitysync

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type SyncStatus string

const (
	SyncStatusPending = SyncStatus("PENDING")
	SyncStatusDone    = SyncStatus("DONE")
	SyncStatusFailed  = SyncStatus("FAILED")
)

const MaxSyncAttempts = 5

// SyncEvent is a webhook delivery of the identity provider, kept for deduplication and retries.
type SyncEvent struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	DeliveryID string   `json:"deliveryId" gorm:"unique_index:uni_sync_delivery"`
	Type       string   `json:"type" gorm:"index:idx_sync_type"`
	Payload    string   `json:"payload" gorm:"type:text"`

	Status    SyncStatus `json:"status" gorm:"index:idx_sync_status"`
	Attempts  int        `json:"attempts"`
	Message   string     `json:"message"`
	LastError string     `json:"lastError" gorm:"type:text"`

	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

type SyncEventQuery struct {
	Status SyncStatus `form:"status" binding:"omitempty,oneof=PENDING DONE FAILED"`
	Limit  int        `form:"limit" binding:"omitempty,min=1,max=500"`
}
