package search

import (
	"context"
	"fmt"
	"partywork/client/es"
	"partywork/domain"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	TaskIndexName = "partywork_tasks"

	IndexEnabledFunc = es.Enabled
)

// TaskDocument is the indexed form of a task, carrying the scope needed for filtering.
type TaskDocument struct {
	ID          types.ID `json:"id"`
	WorkspaceID types.ID `json:"workspaceId"`
	ProjectID   types.ID `json:"projectId"`
	ProjectName string   `json:"projectName"`

	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.TaskStatus `json:"status"`
	Priority    domain.Priority   `json:"priority"`
	Type        domain.TaskType   `json:"type"`
	AssigneeID  types.ID          `json:"assigneeId"`
	DueDate     *time.Time        `json:"dueDate,omitempty"`

	CreatorID  types.ID  `json:"creatorId"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

func NewTaskDocument(t *domain.Task, p *domain.Project) TaskDocument {
	return TaskDocument{ID: t.ID, WorkspaceID: p.WorkspaceID, ProjectID: p.ID, ProjectName: p.Name,
		Title: t.Title, Description: t.Description, Status: t.Status, Priority: t.Priority, Type: t.Type,
		AssigneeID: t.AssigneeID, DueDate: t.DueDate, CreatorID: t.CreatorID, CreateTime: t.CreateTime, UpdateTime: t.UpdateTime}
}

func (d *TaskDocument) Task() domain.Task {
	return domain.Task{ID: d.ID, ProjectID: d.ProjectID, Title: d.Title, Description: d.Description, Status: d.Status,
		Priority: d.Priority, Type: d.Type, AssigneeID: d.AssigneeID, DueDate: d.DueDate, CreatorID: d.CreatorID,
		CreateTime: d.CreateTime, UpdateTime: d.UpdateTime}
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

// IndexTasks writes the documents one by one, failures are collected instead of aborting the batch.
func IndexTasks(ctx context.Context, docs []TaskDocument) error {
	errs := BatchActionError{}
	for _, doc := range docs {
		if err := es.IndexFunc(ctx, TaskIndexName, doc.ID, doc); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index task %d: %v", doc.ID, err)
		} else {
			logrus.Debugf("index task %d successfully", doc.ID)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
