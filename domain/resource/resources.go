package resource

import (
	"errors"
	"math"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/event"
	"partywork/idgen"
	"partywork/persistence"
	"partywork/session"
	"strconv"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryResourcesFunc = QueryResources
	CreateResourceFunc = CreateResource
	UpdateResourceFunc = UpdateResource
	DeleteResourceFunc = DeleteResource
)

func QueryResources(q *domain.ResourceQuery, s *session.Session) (*[]domain.Resource, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if _, err := namespace.LoadViewableProject(db, q.ProjectID, s); err != nil {
		return nil, err
	}
	dbQuery := db.Where("project_id = ?", q.ProjectID)
	if q.Kind != "" {
		dbQuery = dbQuery.Where("kind = ?", q.Kind)
	}
	resources := []domain.Resource{}
	if err := dbQuery.Order("create_time ASC").Find(&resources).Error; err != nil {
		return nil, err
	}
	return &resources, nil
}

func CreateResource(c *domain.ResourceCreation, s *session.Session) (*domain.Resource, error) {
	currency := strings.ToUpper(c.Currency)
	if err := validateQuantity(c.Kind, c.Quantity, currency); err != nil {
		return nil, err
	}
	r := domain.Resource{ID: idgen.NextID(), ProjectID: c.ProjectID, Kind: c.Kind, Name: c.Name, Description: c.Description,
		Unit: c.Unit, Currency: currency, Quantity: c.Quantity, CreatorID: s.Identity.ID, CreateTime: common.Now()}
	if r.Kind != domain.ResourceKindFinancial {
		r.Currency = ""
	}

	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		p, err := namespace.LoadManageableProject(tx, c.ProjectID, s)
		if err != nil {
			return err
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		ev, err = CreateResourceEvent(&r, p, event.EventCategoryCreated, nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return &r, nil
}

func UpdateResource(id types.ID, u *domain.ResourceUpdating, s *session.Session) (*domain.Resource, error) {
	var ev *event.EventRecord
	var updated *domain.Resource
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		r, err := FindResource(tx, id)
		if err != nil {
			return err
		}
		p, err := namespace.LoadManageableProject(tx, r.ProjectID, s)
		if err != nil {
			return err
		}
		currency := strings.ToUpper(u.Currency)
		if err := validateQuantity(r.Kind, u.Quantity, currency); err != nil {
			return err
		}
		if r.Kind != domain.ResourceKindFinancial {
			currency = ""
		}

		var changes []event.UpdatedProperty
		diff := func(name, oldValue, newValue string) {
			if oldValue != newValue {
				changes = append(changes, event.UpdatedProperty{PropertyName: name, PropertyDesc: name, OldValue: oldValue, NewValue: newValue})
			}
		}
		diff("Name", r.Name, u.Name)
		diff("Unit", r.Unit, u.Unit)
		diff("Currency", r.Currency, currency)
		diff("Quantity", formatAmount(r.Quantity), formatAmount(u.Quantity))
		if r.Description != u.Description {
			changes = append(changes, event.UpdatedProperty{PropertyName: "Description", PropertyDesc: "Description"})
		}
		if len(changes) == 0 {
			updated = r
			return nil
		}

		if err := tx.Model(&domain.Resource{}).Where("id = ?", r.ID).Updates(map[string]interface{}{"name": u.Name,
			"description": u.Description, "unit": u.Unit, "currency": currency, "quantity": u.Quantity}).Error; err != nil {
			return err
		}
		if updated, err = FindResource(tx, id); err != nil {
			return err
		}
		ev, err = CreateResourceEvent(updated, p, event.EventCategoryPropertyUpdated, changes, &s.Identity, tx)
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

// DeleteResource removes a resource together with its pending and rejected contributions,
// resources with approved contributions are kept.
func DeleteResource(id types.ID, s *session.Session) error {
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		r, err := FindResource(tx, id)
		if err != nil {
			return err
		}
		p, err := namespace.LoadManageableProject(tx, r.ProjectID, s)
		if err != nil {
			return err
		}
		var approved int
		if err := tx.Model(&domain.Contribution{}).Where("resource_id = ? AND status = ?", r.ID, domain.ContributionApproved).
			Count(&approved).Error; err != nil {
			return err
		}
		if approved > 0 {
			return bizerror.ErrResourceInUse
		}
		if err := tx.Where("resource_id = ?", r.ID).Delete(&domain.Contribution{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", r.ID).Delete(&domain.Resource{}).Error; err != nil {
			return err
		}
		ev, err = CreateResourceEvent(r, p, event.EventCategoryDeleted, nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return nil
}

func FindResource(tx *gorm.DB, id types.ID) (*domain.Resource, error) {
	r := domain.Resource{}
	if err := tx.Where(&domain.Resource{ID: id}).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// validateQuantity checks kind specific rules: people are counted in whole numbers, money needs a currency.
func validateQuantity(kind domain.ResourceKind, quantity float64, currency string) error {
	if quantity <= 0 {
		return &bizerror.ErrBadParam{Cause: errors.New("quantity must be positive")}
	}
	switch kind {
	case domain.ResourceKindHuman:
		if math.Trunc(quantity) != quantity {
			return &bizerror.ErrBadParam{Cause: errors.New("quantity of human resource must be integral")}
		}
	case domain.ResourceKindFinancial:
		if currency == "" {
			return &bizerror.ErrBadParam{Cause: errors.New("currency is required for financial resource")}
		}
	}
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func amountDesc(v float64, r *domain.Resource) string {
	switch {
	case r.Kind == domain.ResourceKindFinancial:
		return formatAmount(v) + " " + r.Currency
	case r.Unit != "":
		return formatAmount(v) + " " + r.Unit
	default:
		return formatAmount(v)
	}
}
