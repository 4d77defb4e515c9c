package objective

import (
	"partywork/domain"
	"partywork/event"
	"partywork/session"

	"github.com/jinzhu/gorm"
)

func objectiveSource(o *domain.Objective, p *domain.Project) event.Source {
	return event.Source{SourceId: o.ID, SourceType: event.SourceObjective, SourceDesc: o.Title, WorkspaceId: p.WorkspaceID, ProjectId: p.ID}
}

func indicatorSource(i *domain.Indicator, p *domain.Project) event.Source {
	return event.Source{SourceId: i.ID, SourceType: event.SourceIndicator, SourceDesc: i.Name, WorkspaceId: p.WorkspaceID, ProjectId: p.ID}
}

func CreateObjectiveEvent(o *domain.Objective, p *domain.Project, category event.EventCategory, updates []event.UpdatedProperty,
	identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(objectiveSource(o, p), category, updates, nil, identity, db)
}

func CreateIndicatorEvent(i *domain.Indicator, p *domain.Project, category event.EventCategory, updates []event.UpdatedProperty,
	identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(indicatorSource(i, p), category, updates, nil, identity, db)
}
