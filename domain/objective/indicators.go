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
	CreateIndicatorFunc = CreateIndicator
	UpdateIndicatorFunc = UpdateIndicator
	DeleteIndicatorFunc = DeleteIndicator
)

func CreateIndicator(c *domain.IndicatorCreation, s *session.Session) (*domain.Indicator, error) {
	now := common.Now()
	i := domain.Indicator{ID: idgen.NextID(), ObjectiveID: c.ObjectiveID, Name: c.Name, Target: c.Target, Current: c.Current,
		Unit: c.Unit, CreateTime: now, UpdateTime: now}

	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		_, p, err := loadManageableObjective(tx, c.ObjectiveID, s)
		if err != nil {
			return err
		}
		i.ProjectID = p.ID
		if err := tx.Create(&i).Error; err != nil {
			return err
		}
		if _, err := progress.RefreshProjectProgressFunc(p.ID, tx); err != nil {
			return err
		}
		ev, err = CreateIndicatorEvent(&i, p, event.EventCategoryCreated, nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return &i, nil
}

// UpdateIndicator applies the given fields. Any project member may move Current,
// changing the name, target or unit is reserved to those managing the project.
func UpdateIndicator(id types.ID, u *domain.IndicatorUpdating, s *session.Session) (*domain.Indicator, error) {
	var ev *event.EventRecord
	var updated *domain.Indicator
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		i := domain.Indicator{}
		if err := tx.Where(&domain.Indicator{ID: id}).First(&i).Error; err != nil {
			return err
		}
		p, err := namespace.FindProject(tx, i.ProjectID)
		if err != nil {
			return err
		}

		definitionChanged := (u.Name != nil && *u.Name != i.Name) || (u.Target != nil && *u.Target != i.Target) ||
			(u.Unit != nil && *u.Unit != i.Unit)
		if definitionChanged && !namespace.CanManageProject(p, s) {
			return bizerror.ErrForbidden
		}
		if !namespace.CanContributeProject(p, s) {
			return bizerror.ErrForbidden
		}

		values := map[string]interface{}{}
		var changes []event.UpdatedProperty
		if u.Name != nil && *u.Name != i.Name {
			values["name"] = *u.Name
			changes = append(changes, event.UpdatedProperty{PropertyName: "Name", PropertyDesc: "Name", OldValue: i.Name, NewValue: *u.Name})
		}
		if u.Target != nil && *u.Target != i.Target {
			values["target"] = *u.Target
			changes = append(changes, event.UpdatedProperty{PropertyName: "Target", PropertyDesc: "Target",
				OldValue: formatFloat(i.Target), NewValue: formatFloat(*u.Target)})
		}
		if u.Unit != nil && *u.Unit != i.Unit {
			values["unit"] = *u.Unit
			changes = append(changes, event.UpdatedProperty{PropertyName: "Unit", PropertyDesc: "Unit", OldValue: i.Unit, NewValue: *u.Unit})
		}
		if u.Current != nil && *u.Current != i.Current {
			values["current"] = *u.Current
			changes = append(changes, event.UpdatedProperty{PropertyName: "Current", PropertyDesc: "Current",
				OldValue: formatFloat(i.Current), NewValue: formatFloat(*u.Current)})
		}
		if len(changes) == 0 {
			updated = &i
			return nil
		}

		values["update_time"] = common.Now()
		if err := tx.Model(&domain.Indicator{}).Where("id = ?", i.ID).Updates(values).Error; err != nil {
			return err
		}
		if _, err := progress.RefreshProjectProgressFunc(p.ID, tx); err != nil {
			return err
		}
		updated = &domain.Indicator{}
		if err := tx.Where(&domain.Indicator{ID: id}).First(updated).Error; err != nil {
			return err
		}
		ev, err = CreateIndicatorEvent(updated, p, event.EventCategoryPropertyUpdated, changes, &s.Identity, tx)
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

func DeleteIndicator(id types.ID, s *session.Session) error {
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		i := domain.Indicator{}
		if err := tx.Where(&domain.Indicator{ID: id}).First(&i).Error; err != nil {
			return err
		}
		p, err := namespace.LoadManageableProject(tx, i.ProjectID, s)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ?", i.ID).Delete(&domain.Indicator{}).Error; err != nil {
			return err
		}
		if _, err := progress.RefreshProjectProgressFunc(p.ID, tx); err != nil {
			return err
		}
		ev, err = CreateIndicatorEvent(&i, p, event.EventCategoryDeleted, nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
