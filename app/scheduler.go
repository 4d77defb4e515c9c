package app

import (
	"context"
	"partywork/config"
	"partywork/domain/task"
	"partywork/identitysync"
	"partywork/search"
	"time"

	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var (
	RemindDueTasksFunc        = task.RemindDueTasks
	RetryFailedSyncEventsFunc = identitysync.RetryFailedSyncEvents
	TryFullSyncFunc           = search.TryFullSync
	SearchEnabledFunc         = func() bool { return search.IndexEnabledFunc() }
)

// NewScheduler registers the periodic jobs, specs have a leading seconds field.
// The returned crontab is not started.
func NewScheduler(ctx context.Context, c config.ScheduleConfig) (*cron.Cron, error) {
	crontab := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	if _, err := crontab.AddFunc(c.DueReminder, func() {
		count, err := RemindDueTasksFunc(ctx, time.Now())
		if err != nil {
			logrus.Errorf("remind due tasks: %v", err)
			return
		}
		logrus.Infof("due reminders sent for %d tasks", count)
	}); err != nil {
		return nil, err
	}

	if _, err := crontab.AddFunc(c.SyncRetry, func() {
		if _, err := RetryFailedSyncEventsFunc(ctx); err != nil {
			logrus.Errorf("retry identity sync events: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	if _, err := crontab.AddFunc(c.Reindex, func() {
		if !SearchEnabledFunc() {
			return
		}
		if !TryFullSyncFunc() {
			logrus.Info("nightly reindex skipped, a full sync is running")
		}
	}); err != nil {
		return nil, err
	}
	return crontab, nil
}
