package task

import (
	"context"
	"partywork/common"
	"partywork/domain"
	"partywork/persistence"
	"time"

	"github.com/sirupsen/logrus"
)

const DueReminderWindow = 24 * time.Hour

// RemindTaskFunc delivers a due reminder to the assignee, reminders are skipped while it is nil.
var RemindTaskFunc func(ctx context.Context, t *domain.Task) error

// RemindDueTasks reminds assignees of open tasks due within the next 24 hours, each task at most once
// until its due date or assignee changes. It returns the number of reminded tasks.
func RemindDueTasks(ctx context.Context, now time.Time) (int, error) {
	if RemindTaskFunc == nil {
		logrus.Warn("task reminder is not configured, skip")
		return 0, nil
	}

	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	var tasks []domain.Task
	if err := db.Where("status <> ? AND assignee_id <> 0 AND remind_time IS NULL AND due_date IS NOT NULL AND due_date >= ? AND due_date <= ?",
		domain.TaskStatusDone, now.UTC(), now.UTC().Add(DueReminderWindow)).Order("due_date ASC").Find(&tasks).Error; err != nil {
		return 0, err
	}

	reminded := 0
	for i := range tasks {
		t := &tasks[i]
		if err := RemindTaskFunc(ctx, t); err != nil {
			logrus.WithField("task", t.ID).Warnf("failed to remind due task: %v", err)
			continue
		}
		if err := db.Model(&domain.Task{}).Where("id = ?", t.ID).Update("remind_time", common.Now()).Error; err != nil {
			return reminded, err
		}
		reminded++
	}
	logrus.WithField("count", reminded).Info("due tasks reminded")
	return reminded, nil
}
