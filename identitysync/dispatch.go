package identitysync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"partywork/account"
	"partywork/common"
	"partywork/domain/namespace"
	"partywork/infra/metrics"
	"partywork/persistence"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	UpsertExternalUserFunc                = account.UpsertExternalUser
	DeleteExternalUserFunc                = account.DeleteExternalUser
	SyncWorkspaceFunc                     = namespace.SyncWorkspace
	DeleteWorkspaceByExternalIDFunc       = namespace.DeleteWorkspaceByExternalID
	SyncWorkspaceMemberFunc               = namespace.SyncWorkspaceMember
	DeleteWorkspaceMemberByExternalIDFunc = namespace.DeleteWorkspaceMemberByExternalID

	DispatchFunc = Dispatch
)

const messageIgnored = "ignored"

// Dispatch applies one provider event to the local users and workspaces.
// It returns a short message for the sync record, unknown types are ignored.
func Dispatch(ctx context.Context, eventType string, data json.RawMessage) (string, error) {
	switch eventType {
	case "user.created", "user.updated":
		u := userData{}
		if err := json.Unmarshal(data, &u); err != nil {
			return "", err
		}
		user, err := UpsertExternalUserFunc(ctx, u.profile())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("user %s synced", user.ID), nil
	case "user.deleted":
		d := deletedData{}
		if err := json.Unmarshal(data, &d); err != nil {
			return "", err
		}
		if err := DeleteExternalUserFunc(ctx, d.ID); err != nil {
			return "", err
		}
		return "user deleted", nil
	case "organization.created", "organization.updated":
		o := organizationData{}
		if err := json.Unmarshal(data, &o); err != nil {
			return "", err
		}
		w, err := SyncWorkspaceFunc(ctx, o.organization())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("workspace %s synced", w.ID), nil
	case "organization.deleted":
		d := deletedData{}
		if err := json.Unmarshal(data, &d); err != nil {
			return "", err
		}
		if err := DeleteWorkspaceByExternalIDFunc(ctx, d.ID); err != nil {
			return "", err
		}
		return "workspace deleted", nil
	case "organizationMembership.created", "organizationMembership.updated":
		m := membershipData{}
		if err := json.Unmarshal(data, &m); err != nil {
			return "", err
		}
		if err := SyncWorkspaceMemberFunc(ctx, m.Organization.ID, m.PublicUserData.UserID, workspaceRole(m.Role)); err != nil {
			return "", err
		}
		return "membership synced", nil
	case "organizationMembership.deleted":
		m := membershipData{}
		if err := json.Unmarshal(data, &m); err != nil {
			return "", err
		}
		if err := DeleteWorkspaceMemberByExternalIDFunc(ctx, m.Organization.ID, m.PublicUserData.UserID); err != nil {
			return "", err
		}
		return "membership deleted", nil
	default:
		return messageIgnored, nil
	}
}

// Process runs the dispatch for a persisted sync event and records the outcome on it.
func Process(ctx context.Context, e *SyncEvent) error {
	envelope := webhookEnvelope{}
	var message string
	err := json.Unmarshal([]byte(e.Payload), &envelope)
	if err == nil {
		message, err = DispatchFunc(ctx, e.Type, envelope.Data)
	}

	e.Attempts++
	e.UpdateTime = common.Now()
	if err != nil {
		e.Status = SyncStatusFailed
		e.LastError = err.Error()
		e.Message = ""
		logrus.WithField("delivery", e.DeliveryID).WithField("type", e.Type).WithField("attempts", e.Attempts).
			Warnf("identity sync failed: %v", err)
	} else {
		e.Status = SyncStatusDone
		e.LastError = ""
		e.Message = message
	}
	metrics.SyncEventsTotal.WithLabelValues(e.Type, string(e.Status)).Inc()

	updates := map[string]interface{}{"status": e.Status, "attempts": e.Attempts, "message": e.Message,
		"last_error": e.LastError, "update_time": e.UpdateTime}
	if dbErr := persistence.ActiveDataSourceManager.GormDB(ctx).Model(&SyncEvent{}).
		Where("id = ?", e.ID).Updates(updates).Error; dbErr != nil {
		return dbErr
	}
	return err
}

func findByDelivery(db *gorm.DB, deliveryId string) (*SyncEvent, error) {
	e := SyncEvent{}
	if err := db.Where("delivery_id = ?", deliveryId).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
