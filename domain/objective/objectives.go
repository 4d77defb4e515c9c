package objective

import (
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/domain/progress"
	"partywork/event"
	"partywork/idgen"
	"partywork/persistence"
	"partywork/session"
	"strconv"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryObjectivesFunc   = QueryObjectives
	CreateObjectiveFunc   = CreateObjective
	UpdateObjectiveFunc   = UpdateObjective
	DeleteObjectiveFunc   = DeleteObjective
	ReorderObjectivesFunc = ReorderObjectives
)

// QueryObjectives returns the objectives of a project ordered by position, each with its indicators.
func QueryObjectives(projectId types.ID, s *session.Session) (*[]domain.ObjectiveDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if _, err := namespace.LoadViewableProject(db, projectId, s); err != nil {
		return nil, err
	}

	var objectives []domain.Objective
	if err := db.Where("project_id = ?", projectId).Order("position ASC").Find(&objectives).Error; err != nil {
		return nil, err
	}
	var indicators []domain.Indicator
	if err := db.Where("project_id = ?", projectId).Order("create_time ASC").Find(&indicators).Error; err != nil {
		return nil, err
	}
	indicatorsMap := map[types.ID][]domain.Indicator{}
	for _, i := range indicators {
		indicatorsMap[i.ObjectiveID] = append(indicatorsMap[i.ObjectiveID], i)
	}

	details := []domain.ObjectiveDetail{}
	for _, o := range objectives {
		detail := domain.ObjectiveDetail{Objective: o, Indicators: indicatorsMap[o.ID]}
		if detail.Indicators == nil {
			detail.Indicators = []domain.Indicator{}
		}
		details = append(details, detail)
	}
	return &details, nil
}

// CreateObjective appends a new objective after the existing ones.
func CreateObjective(c *domain.ObjectiveCreation, s *session.Session) (*domain.Objective, error) {
	o := domain.Objective{ID: idgen.NextID(), ProjectID: c.ProjectID, Title: c.Title, Description: c.Description, CreateTime: common.Now()}

	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		p, err := namespace.LoadManageableProject(tx, c.ProjectID, s)
		if err != nil {
			return err
		}
		if err := tx.Model(&domain.Objective{}).Where("project_id = ?", p.ID).Count(&o.Position).Error; err != nil {
			return err
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}
		if _, err := progress.RefreshProjectProgressFunc(p.ID, tx); err != nil {
			return err
		}
		ev, err = CreateObjectiveEvent(&o, p, event.EventCategoryCreated, nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return &o, nil
}

func UpdateObjective(id types.ID, u *domain.ObjectiveUpdating, s *session.Session) error {
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		o, p, err := loadManageableObjective(tx, id, s)
		if err != nil {
			return err
		}

		var changes []event.UpdatedProperty
		if o.Title != u.Title {
			changes = append(changes, event.UpdatedProperty{PropertyName: "Title", PropertyDesc: "Title", OldValue: o.Title, NewValue: u.Title})
		}
		if o.Description != u.Description {
			changes = append(changes, event.UpdatedProperty{PropertyName: "Description", PropertyDesc: "Description"})
		}
		if o.Completed != u.Completed {
			changes = append(changes, event.UpdatedProperty{PropertyName: "Completed", PropertyDesc: "Completed",
				OldValue: strconv.FormatBool(o.Completed), NewValue: strconv.FormatBool(u.Completed)})
		}
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Model(&domain.Objective{}).Where("id = ?", o.ID).
			Updates(map[string]interface{}{"title": u.Title, "description": u.Description, "completed": u.Completed}).Error; err != nil {
			return err
		}
		if o.Completed != u.Completed {
			if _, err := progress.RefreshProjectProgressFunc(p.ID, tx); err != nil {
				return err
			}
		}
		o.Title = u.Title
		ev, err = CreateObjectiveEvent(o, p, event.EventCategoryPropertyUpdated, changes, &s.Identity, tx)
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

// DeleteObjective removes the objective with its indicators and closes the gap in positions.
func DeleteObjective(id types.ID, s *session.Session) error {
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		o, p, err := loadManageableObjective(tx, id, s)
		if err != nil {
			return err
		}
		if err := tx.Where("objective_id = ?", o.ID).Delete(&domain.Indicator{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", o.ID).Delete(&domain.Objective{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Objective{}).Where("project_id = ? AND position > ?", p.ID, o.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error; err != nil {
			return err
		}
		if _, err := progress.RefreshProjectProgressFunc(p.ID, tx); err != nil {
			return err
		}
		ev, err = CreateObjectiveEvent(o, p, event.EventCategoryDeleted, nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return nil
}

// ReorderObjectives assigns positions 0..n-1 in the given order, ids must be exactly the project's objectives.
func ReorderObjectives(projectId types.ID, ids []types.ID, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		p, err := namespace.LoadManageableProject(tx, projectId, s)
		if err != nil {
			return err
		}
		var objectives []domain.Objective
		if err := tx.Where("project_id = ?", p.ID).Find(&objectives).Error; err != nil {
			return err
		}
		if len(objectives) != len(ids) {
			return bizerror.ErrObjectiveOrderMismatch
		}
		existing := map[types.ID]bool{}
		for _, o := range objectives {
			existing[o.ID] = true
		}
		for _, id := range ids {
			if !existing[id] {
				return bizerror.ErrObjectiveOrderMismatch
			}
			delete(existing, id)
		}

		for position, id := range ids {
			if err := tx.Model(&domain.Objective{}).Where("id = ?", id).UpdateColumn("position", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func findObjective(tx *gorm.DB, id types.ID) (*domain.Objective, error) {
	o := domain.Objective{}
	if err := tx.Where(&domain.Objective{ID: id}).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func loadManageableObjective(tx *gorm.DB, id types.ID, s *session.Session) (*domain.Objective, *domain.Project, error) {
	o, err := findObjective(tx, id)
	if err != nil {
		return nil, nil, err
	}
	p, err := namespace.LoadManageableProject(tx, o.ProjectID, s)
	if err != nil {
		return nil, nil, err
	}
	return o, p, nil
}
