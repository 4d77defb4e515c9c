package task

import (
	"errors"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/domain/progress"
	"partywork/event"
	"partywork/idgen"
	"partywork/persistence"
	"partywork/session"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	CreateTaskFunc       = CreateTask
	UpdateTaskFunc       = UpdateTask
	UpdateTaskStatusFunc = UpdateTaskStatus
	DetailTaskFunc       = DetailTask
	QueryTasksFunc       = QueryTasks
	DeleteTasksFunc      = DeleteTasks
)

func QueryTasks(q *domain.TaskQuery, s *session.Session) (*[]domain.Task, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	dbQuery := db.Model(&domain.Task{})

	if q.ProjectID != 0 {
		if _, err := namespace.LoadViewableProject(db, q.ProjectID, s); err != nil {
			return nil, err
		}
		dbQuery = dbQuery.Where("project_id = ?", q.ProjectID)
	} else {
		ids, all, err := namespace.ViewableProjectIDs(db, s)
		if err != nil {
			return nil, err
		}
		if !all {
			if len(ids) == 0 {
				return &[]domain.Task{}, nil
			}
			dbQuery = dbQuery.Where("project_id IN (?)", ids)
		}
	}
	if q.AssigneeID != 0 {
		dbQuery = dbQuery.Where("assignee_id = ?", q.AssigneeID)
	}
	if q.Status != "" {
		dbQuery = dbQuery.Where("status = ?", q.Status)
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		dbQuery = dbQuery.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	tasks := []domain.Task{}
	if err := dbQuery.Order("create_time DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return &tasks, nil
}

func CreateTask(c *domain.TaskCreation, s *session.Session) (*domain.Task, error) {
	now := common.Now()
	t := domain.Task{ID: idgen.NextID(), ProjectID: c.ProjectID, Title: c.Title, Description: c.Description,
		Status: c.Status, Priority: c.Priority, Type: c.Type, AssigneeID: c.AssigneeID, DueDate: common.NormalizeTime(c.DueDate),
		Objective: c.Objective, Result: c.Result, Risk: c.Risk, KeyFactor: c.KeyFactor,
		CreatorID: s.Identity.ID, CreateTime: now, UpdateTime: now}
	if t.Status == "" {
		t.Status = domain.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.Type == "" {
		t.Type = domain.TaskTypeTask
	}

	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		p, err := namespace.LoadContributableProject(tx, c.ProjectID, s)
		if err != nil {
			return err
		}
		if err := checkAssignee(tx, p, t.AssigneeID); err != nil {
			return err
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		if _, err := progress.RefreshProjectProgressFunc(p.ID, tx); err != nil {
			return err
		}
		ev, err = CreateTaskCreatedEvent(&t, p, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return &t, nil
}

func DetailTask(id types.ID, s *session.Session) (*domain.Task, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	t, err := FindTask(db, id)
	if err != nil {
		return nil, err
	}
	if _, err := namespace.LoadViewableProject(db, t.ProjectID, s); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTask replaces the editable fields, changing the assignee resets the due reminder.
func UpdateTask(id types.ID, u *domain.TaskUpdating, s *session.Session) (*domain.Task, error) {
	var ev *event.EventRecord
	var updated *domain.Task
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t, err := FindTask(tx, id)
		if err != nil {
			return err
		}
		p, err := namespace.LoadContributableProject(tx, t.ProjectID, s)
		if err != nil {
			return err
		}
		if u.AssigneeID != t.AssigneeID {
			if err := checkAssignee(tx, p, u.AssigneeID); err != nil {
				return err
			}
		}

		dueDate := common.NormalizeTime(u.DueDate)
		changes := taskChanges(t, u, dueDate)
		if len(changes) == 0 {
			updated = t
			return nil
		}

		values := map[string]interface{}{
			"title": u.Title, "description": u.Description, "status": u.Status, "priority": u.Priority, "type": u.Type,
			"assignee_id": u.AssigneeID, "due_date": dueDate, "objective": u.Objective, "result": u.Result,
			"risk": u.Risk, "key_factor": u.KeyFactor, "update_time": common.Now(),
		}
		if u.AssigneeID != t.AssigneeID || !sameTime(t.DueDate, dueDate) {
			values["remind_time"] = nil
		}
		if err := tx.Model(&domain.Task{}).Where("id = ?", t.ID).Updates(values).Error; err != nil {
			return err
		}
		if t.Status != u.Status {
			if _, err := progress.RefreshProjectProgressFunc(p.ID, tx); err != nil {
				return err
			}
		}

		if updated, err = FindTask(tx, id); err != nil {
			return err
		}
		ev, err = CreateTaskPropertyUpdatedEvent(updated, p, changes, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if ev != nil {
		event.InvokeAll([]*event.EventRecord{ev})
	}
	return updated, nil
}

// UpdateTaskStatus is allowed to the assignee and to those working on the project.
func UpdateTaskStatus(id types.ID, status domain.TaskStatus, s *session.Session) error {
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t, err := FindTask(tx, id)
		if err != nil {
			return err
		}
		p, err := namespace.FindProject(tx, t.ProjectID)
		if err != nil {
			return err
		}
		if t.AssigneeID != s.Identity.ID && !namespace.CanContributeProject(p, s) {
			return bizerror.ErrForbidden
		}
		if t.Status == status {
			return nil
		}

		if err := tx.Model(&domain.Task{}).Where("id = ?", t.ID).
			Updates(map[string]interface{}{"status": status, "update_time": common.Now()}).Error; err != nil {
			return err
		}
		if _, err := progress.RefreshProjectProgressFunc(p.ID, tx); err != nil {
			return err
		}
		changes := []event.UpdatedProperty{{PropertyName: "Status", PropertyDesc: "Status", OldValue: string(t.Status), NewValue: string(status)}}
		ev, err = CreateTaskPropertyUpdatedEvent(t, p, changes, &s.Identity, tx)
		return err
	})
	if err != nil {
		return err
	}
	if ev != nil {
		event.InvokeAll([]*event.EventRecord{ev})
	}
	return nil
}

// DeleteTasks deletes the tasks with their comments, the lead, workspace admins and the creator of a task may delete it.
func DeleteTasks(ids []types.ID, s *session.Session) error {
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		projects := map[types.ID]*domain.Project{}
		for _, id := range ids {
			t, err := FindTask(tx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			p, found := projects[t.ProjectID]
			if !found {
				if p, err = namespace.FindProject(tx, t.ProjectID); err != nil {
					return err
				}
				projects[p.ID] = p
			}
			if !namespace.CanManageProject(p, s) && !(t.CreatorID == s.Identity.ID && namespace.CanContributeProject(p, s)) {
				return bizerror.ErrForbidden
			}

			if err := tx.Where("task_id = ?", t.ID).Delete(&domain.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id = ?", t.ID).Delete(&domain.Task{}).Error; err != nil {
				return err
			}
			ev, err := CreateTaskDeletedEvent(t, p, &s.Identity, tx)
			if err != nil {
				return err
			}
			records = append(records, ev)
		}
		for id := range projects {
			if _, err := progress.RefreshProjectProgressFunc(id, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	event.InvokeAll(records)
	return nil
}

func FindTask(tx *gorm.DB, id types.ID) (*domain.Task, error) {
	t := domain.Task{}
	if err := tx.Where(&domain.Task{ID: id}).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func checkAssignee(tx *gorm.DB, p *domain.Project, assigneeId types.ID) error {
	if assigneeId == 0 || assigneeId == p.LeadID {
		return nil
	}
	ok, err := namespace.IsProjectMember(tx, p.ID, assigneeId)
	if err != nil {
		return err
	}
	if !ok {
		return bizerror.ErrTaskAssigneeNotMember
	}
	return nil
}

func taskChanges(t *domain.Task, u *domain.TaskUpdating, dueDate *time.Time) []event.UpdatedProperty {
	var changes []event.UpdatedProperty
	diff := func(name, desc, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, event.UpdatedProperty{PropertyName: name, PropertyDesc: desc, OldValue: oldValue, NewValue: newValue})
		}
	}
	diff("Title", "Title", t.Title, u.Title)
	diff("Status", "Status", string(t.Status), string(u.Status))
	diff("Priority", "Priority", string(t.Priority), string(u.Priority))
	diff("Type", "Type", string(t.Type), string(u.Type))
	diff("AssigneeId", "Assignee", idString(t.AssigneeID), idString(u.AssigneeID))
	diff("DueDate", "Due Date", formatTime(t.DueDate), formatTime(dueDate))

	// long texts are reported without values
	for _, f := range []struct{ name, oldValue, newValue string }{
		{"Description", t.Description, u.Description}, {"Objective", t.Objective, u.Objective},
		{"Result", t.Result, u.Result}, {"Risk", t.Risk, u.Risk}, {"KeyFactor", t.KeyFactor, u.KeyFactor},
	} {
		if f.oldValue != f.newValue {
			changes = append(changes, event.UpdatedProperty{PropertyName: f.name, PropertyDesc: f.name})
		}
	}
	return changes
}

func idString(id types.ID) string {
	if id == 0 {
		return ""
	}
	return id.String()
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
