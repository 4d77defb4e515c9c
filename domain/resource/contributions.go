package resource

import (
	"errors"
	"math"
	"partywork/account"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/domain/state"
	"partywork/event"
	"partywork/idgen"
	"partywork/persistence"
	"partywork/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryContributionsFunc   = QueryContributions
	CreateContributionFunc   = CreateContribution
	WithdrawContributionFunc = WithdrawContribution
	TransitContributionFunc  = TransitContribution
	QueryUserInfosFunc       = account.QueryUserInfos
)

var (
	statePending  = state.State{Name: string(domain.ContributionPending)}
	stateApproved = state.State{Name: string(domain.ContributionApproved), Terminal: true}
	stateRejected = state.State{Name: string(domain.ContributionRejected), Terminal: true}

	// ContributionStateMachine is the approval flow of contributions.
	ContributionStateMachine = state.NewStateMachine(
		[]state.State{statePending, stateApproved, stateRejected},
		[]state.Transition{
			{Name: domain.ContributionActionApprove, From: statePending, To: stateApproved},
			{Name: domain.ContributionActionReject, From: statePending, To: stateRejected},
			{Name: domain.ContributionActionReopen, From: stateApproved, To: statePending},
			{Name: domain.ContributionActionReopen, From: stateRejected, To: statePending},
		})
)

// QueryContributions lists contributions of a project, those who can not review them only see their own.
func QueryContributions(q *domain.ContributionQuery, s *session.Session) (*[]domain.ContributionDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	p, err := namespace.LoadViewableProject(db, q.ProjectID, s)
	if err != nil {
		return nil, err
	}

	dbQuery := db.Where("project_id = ?", p.ID)
	if !namespace.CanManageProject(p, s) {
		dbQuery = dbQuery.Where("contributor_id = ?", s.Identity.ID)
	}
	if q.ContributorID != 0 {
		dbQuery = dbQuery.Where("contributor_id = ?", q.ContributorID)
	}
	if q.ResourceID != 0 {
		dbQuery = dbQuery.Where("resource_id = ?", q.ResourceID)
	}
	if q.Status != "" {
		dbQuery = dbQuery.Where("status = ?", q.Status)
	}
	var contributions []domain.Contribution
	if err := dbQuery.Order("create_time DESC").Find(&contributions).Error; err != nil {
		return nil, err
	}

	var resources []domain.Resource
	if err := db.Where("project_id = ?", p.ID).Find(&resources).Error; err != nil {
		return nil, err
	}
	resourceNames := map[types.ID]string{}
	for _, r := range resources {
		resourceNames[r.ID] = r.Name
	}
	var contributorIds []types.ID
	for _, c := range contributions {
		contributorIds = append(contributorIds, c.ContributorID)
	}
	contributors, err := QueryUserInfosFunc(contributorIds)
	if err != nil {
		return nil, err
	}

	details := []domain.ContributionDetail{}
	for _, c := range contributions {
		detail := domain.ContributionDetail{Contribution: c, ResourceName: resourceNames[c.ResourceID], ContributorName: "Unknown"}
		if info, found := contributors[c.ContributorID]; found {
			detail.ContributorName = info.DisplayName()
		}
		details = append(details, detail)
	}
	return &details, nil
}

// CreateContribution offers an amount toward a resource, open to workspace members who can view the project.
func CreateContribution(c *domain.ContributionCreation, s *session.Session) (*domain.Contribution, error) {
	var contribution *domain.Contribution
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		r, err := FindResource(tx, c.ResourceID)
		if err != nil {
			return err
		}
		p, err := namespace.LoadViewableProject(tx, r.ProjectID, s)
		if err != nil {
			return err
		}
		if !s.IsWorkspaceMember(p.WorkspaceID) {
			return bizerror.ErrForbidden
		}
		if err := validateAmount(r.Kind, c.Amount); err != nil {
			return err
		}

		contribution = &domain.Contribution{ID: idgen.NextID(), ResourceID: r.ID, ProjectID: p.ID, Kind: r.Kind,
			ContributorID: s.Identity.ID, Amount: c.Amount, Note: c.Note, Status: domain.ContributionPending, CreateTime: common.Now()}
		if err := tx.Create(contribution).Error; err != nil {
			return err
		}
		ev, err = CreateContributionCreatedEvent(contribution, r, p, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return contribution, nil
}

// WithdrawContribution deletes a pending contribution of the session user.
func WithdrawContribution(id types.ID, s *session.Session) error {
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		c, err := FindContribution(tx, id)
		if err != nil {
			return err
		}
		if c.ContributorID != s.Identity.ID {
			return bizerror.ErrForbidden
		}
		if c.Status != domain.ContributionPending {
			return bizerror.ErrContributionNotPending
		}
		r, err := FindResource(tx, c.ResourceID)
		if err != nil {
			return err
		}
		p, err := namespace.FindProject(tx, c.ProjectID)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ?", c.ID).Delete(&domain.Contribution{}).Error; err != nil {
			return err
		}
		ev, err = CreateContributionDeletedEvent(c, r, p, &s.Identity, tx)
		return err
	})
	if err != nil {
		return err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return nil
}

// TransitContribution applies a review action. Project leads and workspace admins review contributions,
// except their own ones which only a system admin may review. The fulfilled amount of the resource
// follows the contributions entering and leaving APPROVED.
func TransitContribution(id types.ID, t *domain.ContributionTransition, s *session.Session) (*domain.Contribution, error) {
	var ev *event.EventRecord
	var updated *domain.Contribution
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		c, err := FindContribution(tx, id)
		if err != nil {
			return err
		}
		p, err := namespace.LoadManageableProject(tx, c.ProjectID, s)
		if err != nil {
			return err
		}
		if c.ContributorID == s.Identity.ID && !s.IsSystemAdmin() {
			return bizerror.ErrContributionSelfReview
		}
		transition, ok := ContributionStateMachine.Fire(string(c.Status), t.Action)
		if !ok {
			return bizerror.ErrContributionInvalidTrans
		}
		r, err := FindResource(tx, c.ResourceID)
		if err != nil {
			return err
		}

		from := c.Status
		to := domain.ContributionStatus(transition.To.Name)
		now := common.Now()
		if err := tx.Model(&domain.Contribution{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"status": to, "reviewer_id": s.Identity.ID, "review_note": t.Note, "review_time": &now}).Error; err != nil {
			return err
		}

		delta := 0.0
		if to == domain.ContributionApproved {
			delta = c.Amount
		} else if from == domain.ContributionApproved {
			delta = -c.Amount
		}
		if delta != 0 {
			if err := tx.Model(&domain.Resource{}).Where("id = ?", r.ID).
				UpdateColumn("fulfilled", gorm.Expr("fulfilled + ?", delta)).Error; err != nil {
				return err
			}
		}

		if updated, err = FindContribution(tx, id); err != nil {
			return err
		}
		ev, err = CreateContributionStatusUpdatedEvent(updated, r, p, from, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return updated, nil
}

func FindContribution(tx *gorm.DB, id types.ID) (*domain.Contribution, error) {
	c := domain.Contribution{}
	if err := tx.Where(&domain.Contribution{ID: id}).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func validateAmount(kind domain.ResourceKind, amount float64) error {
	if amount <= 0 {
		return &bizerror.ErrBadParam{Cause: errors.New("amount must be positive")}
	}
	if kind == domain.ResourceKindHuman && math.Trunc(amount) != amount {
		return &bizerror.ErrBadParam{Cause: errors.New("amount of human contribution must be integral")}
	}
	return nil
}
