package task

import (
	"partywork/domain"
	"partywork/event"
	"partywork/session"

	"github.com/jinzhu/gorm"
)

func taskSource(t *domain.Task, p *domain.Project) event.Source {
	return event.Source{SourceId: t.ID, SourceType: event.SourceTask, SourceDesc: t.Title, WorkspaceId: p.WorkspaceID, ProjectId: p.ID}
}

func CreateTaskCreatedEvent(t *domain.Task, p *domain.Project, identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	var props []event.UpdatedProperty
	if t.AssigneeID != 0 {
		props = append(props, event.UpdatedProperty{PropertyName: "AssigneeId", PropertyDesc: "Assignee", NewValue: t.AssigneeID.String()})
	}
	return event.CreateEvent(taskSource(t, p), event.EventCategoryCreated, props, nil, identity, db)
}
func CreateTaskDeletedEvent(t *domain.Task, p *domain.Project, identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(taskSource(t, p), event.EventCategoryDeleted, nil, nil, identity, db)
}
func CreateTaskPropertyUpdatedEvent(t *domain.Task, p *domain.Project, updates []event.UpdatedProperty, identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(taskSource(t, p), event.EventCategoryPropertyUpdated, updates, nil, identity, db)
}

func CreateCommentCreatedEvent(c *domain.Comment, t *domain.Task, p *domain.Project, identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	source := event.Source{SourceId: c.ID, SourceType: event.SourceComment, SourceDesc: t.Title, WorkspaceId: p.WorkspaceID, ProjectId: p.ID}
	props := []event.UpdatedProperty{{PropertyName: "TaskId", PropertyDesc: "Task", NewValue: t.ID.String(), NewValueDesc: t.Title}}
	return event.CreateEvent(source, event.EventCategoryCreated, props, nil, identity, db)
}
