package resource

import (
	"partywork/domain"
	"partywork/event"
	"partywork/session"

	"github.com/jinzhu/gorm"
)

func resourceSource(r *domain.Resource, p *domain.Project) event.Source {
	return event.Source{SourceId: r.ID, SourceType: event.SourceResource, SourceDesc: r.Name, WorkspaceId: p.WorkspaceID, ProjectId: p.ID}
}

func contributionSource(c *domain.Contribution, r *domain.Resource, p *domain.Project) event.Source {
	return event.Source{SourceId: c.ID, SourceType: event.SourceContribution, SourceDesc: r.Name, WorkspaceId: p.WorkspaceID, ProjectId: p.ID}
}

func CreateResourceEvent(r *domain.Resource, p *domain.Project, category event.EventCategory, updates []event.UpdatedProperty,
	identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(resourceSource(r, p), category, updates, nil, identity, db)
}

func CreateContributionCreatedEvent(c *domain.Contribution, r *domain.Resource, p *domain.Project,
	identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	props := []event.UpdatedProperty{
		{PropertyName: "ResourceId", PropertyDesc: "Resource", NewValue: r.ID.String(), NewValueDesc: r.Name},
		{PropertyName: "ContributorId", PropertyDesc: "Contributor", NewValue: c.ContributorID.String()},
		{PropertyName: "Amount", PropertyDesc: "Amount", NewValue: formatAmount(c.Amount), NewValueDesc: amountDesc(c.Amount, r)},
	}
	return event.CreateEvent(contributionSource(c, r, p), event.EventCategoryCreated, props, nil, identity, db)
}

func CreateContributionDeletedEvent(c *domain.Contribution, r *domain.Resource, p *domain.Project,
	identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(contributionSource(c, r, p), event.EventCategoryDeleted, nil, nil, identity, db)
}

// CreateContributionStatusUpdatedEvent carries the contributor and the review note along with the status change.
func CreateContributionStatusUpdatedEvent(c *domain.Contribution, r *domain.Resource, p *domain.Project, from domain.ContributionStatus,
	identity *session.Identity, db *gorm.DB) (*event.EventRecord, error) {
	props := []event.UpdatedProperty{
		{PropertyName: "Status", PropertyDesc: "Status", OldValue: string(from), NewValue: string(c.Status)},
		{PropertyName: "ContributorId", PropertyDesc: "Contributor", OldValue: c.ContributorID.String(), NewValue: c.ContributorID.String()},
	}
	if c.ReviewNote != "" {
		props = append(props, event.UpdatedProperty{PropertyName: "ReviewNote", PropertyDesc: "Review Note", NewValue: c.ReviewNote})
	}
	return event.CreateEvent(contributionSource(c, r, p), event.EventCategoryPropertyUpdated, props, nil, identity, db)
}
