package identitysync

import (
	"context"
	"partywork/persistence"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	RetryBatchSize = 100
	// RetryInterval paces retried deliveries so a backlog does not flood the database
	RetryInterval = 100 * time.Millisecond
)

// RetryFailedSyncEvents reprocesses failed deliveries which have attempts left.
// It returns the number of deliveries that succeeded on this run.
func RetryFailedSyncEvents(ctx context.Context) (int, error) {
	var records []SyncEvent
	if err := persistence.ActiveDataSourceManager.GormDB(ctx).
		Where("status = ? AND attempts < ?", SyncStatusFailed, MaxSyncAttempts).
		Order("create_time ASC").Limit(RetryBatchSize).Find(&records).Error; err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	limiter := rate.NewLimiter(rate.Every(RetryInterval), 1)
	recovered := 0
	for i := range records {
		if err := limiter.Wait(ctx); err != nil {
			return recovered, err
		}
		if err := Process(ctx, &records[i]); err != nil {
			if records[i].Attempts >= MaxSyncAttempts {
				logrus.WithField("delivery", records[i].DeliveryID).Errorf("identity sync gave up after %d attempts", records[i].Attempts)
			}
			continue
		}
		recovered++
	}
	logrus.Infof("identity sync retry: %d of %d deliveries recovered", recovered, len(records))
	return recovered, nil
}
