package namespace

import (
	"context"
	"errors"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/domain/progress"
	"partywork/event"
	"partywork/idgen"
	"partywork/persistence"
	"partywork/session"
	"strconv"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryProjectNamesFunc    = QueryProjectNames
	DetailProjectMembersFunc = DetailProjectMembers
)

func QueryProjects(q *domain.ProjectQuery, s *session.Session) (*[]domain.Project, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&domain.Project{}).Scopes(ViewableProjectsScope(s))
	if q.WorkspaceID != 0 {
		db = db.Where("workspace_id = ?", q.WorkspaceID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}

	projects := []domain.Project{}
	if err := db.Order("create_time DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return &projects, nil
}

func CreateProject(c *domain.ProjectCreation, s *session.Session) (*domain.Project, error) {
	if !s.IsWorkspaceMember(c.WorkspaceID) {
		return nil, bizerror.ErrForbidden
	}
	if err := checkDates(c.StartDate, c.EndDate); err != nil {
		return nil, err
	}

	now := common.Now()
	p := domain.Project{ID: idgen.NextID(), WorkspaceID: c.WorkspaceID, Name: c.Name, Description: c.Description,
		Status: c.Status, Priority: c.Priority, StartDate: common.NormalizeTime(c.StartDate), EndDate: common.NormalizeTime(c.EndDate),
		LeadID: c.LeadID, Public: c.Public, CreatorID: s.Identity.ID, CreateTime: now, UpdateTime: now}
	if p.Status == "" {
		p.Status = domain.ProjectStatusPlanning
	}
	if p.Priority == "" {
		p.Priority = domain.PriorityMedium
	}
	if p.LeadID == 0 {
		p.LeadID = s.Identity.ID
	}

	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if _, err := FindWorkspace(tx, p.WorkspaceID); err != nil {
			return err
		}
		memberIds := []types.ID{p.LeadID}
		for _, id := range c.MemberIDs {
			if !containsID(memberIds, id) {
				memberIds = append(memberIds, id)
			}
		}
		for _, id := range memberIds {
			ok, err := IsWorkspaceMember(tx, p.WorkspaceID, id)
			if err != nil {
				return err
			}
			if !ok {
				return bizerror.ErrProjectMemberNotInSpace
			}
		}

		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		ev, err := event.CreateEvent(projectSource(&p), event.EventCategoryCreated, nil, nil, &s.Identity, tx)
		if err != nil {
			return err
		}
		records = append(records, ev)

		for _, id := range memberIds {
			role := domain.ProjectRoleMember
			if id == p.LeadID {
				role = domain.ProjectRoleLead
			}
			ev, err := addProjectMember(tx, &p, id, role, now, &s.Identity)
			if err != nil {
				return err
			}
			records = append(records, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll(records)
	return &p, nil
}

func DetailProject(id types.ID, s *session.Session) (*domain.ProjectDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	p, err := LoadViewableProject(db, id, s)
	if err != nil {
		return nil, err
	}

	var members []domain.ProjectMember
	if err := db.Where("project_id = ?", id).Order("create_time ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	details, err := DetailProjectMembersFunc(&members)
	if err != nil {
		return nil, err
	}
	return &domain.ProjectDetail{Project: *p, Members: *details}, nil
}

// UpdateProject changes the project, a new lead takes the LEAD row and the previous lead stays a MEMBER.
func UpdateProject(id types.ID, u *domain.ProjectUpdating, s *session.Session) error {
	if err := checkDates(u.StartDate, u.EndDate); err != nil {
		return err
	}
	normalized := *u
	normalized.StartDate, normalized.EndDate = common.NormalizeTime(u.StartDate), common.NormalizeTime(u.EndDate)
	u = &normalized

	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		p, err := LoadManageableProject(tx, id, s)
		if err != nil {
			return err
		}

		changes := projectChanges(p, u)
		if u.LeadID != p.LeadID {
			ok, err := IsWorkspaceMember(tx, p.WorkspaceID, u.LeadID)
			if err != nil {
				return err
			}
			if !ok {
				return bizerror.ErrProjectMemberNotInSpace
			}
			if p.LeadID != 0 {
				if err := tx.Model(&domain.ProjectMember{}).Where("project_id = ? AND member_id = ?", p.ID, p.LeadID).
					Update("role", domain.ProjectRoleMember).Error; err != nil {
					return err
				}
			}
			wasMember, err := IsProjectMember(tx, p.ID, u.LeadID)
			if err != nil {
				return err
			}
			if wasMember {
				if err := tx.Model(&domain.ProjectMember{}).Where("project_id = ? AND member_id = ?", p.ID, u.LeadID).
					Update("role", domain.ProjectRoleLead).Error; err != nil {
					return err
				}
			} else {
				ev, err := addProjectMember(tx, p, u.LeadID, domain.ProjectRoleLead, common.Now(), &s.Identity)
				if err != nil {
					return err
				}
				records = append(records, ev)
			}
		}
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Model(&domain.Project{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"name": u.Name, "description": u.Description, "status": u.Status, "priority": u.Priority,
			"start_date": u.StartDate, "end_date": u.EndDate,
			"lead_id": u.LeadID, "public": u.Public, "update_time": common.Now(),
		}).Error; err != nil {
			return err
		}
		p.Name = u.Name
		ev, err := event.CreateEvent(projectSource(p), event.EventCategoryPropertyUpdated, changes, nil, &s.Identity, tx)
		if err != nil {
			return err
		}
		records = append([]*event.EventRecord{ev}, records...)
		return nil
	})
	if err != nil {
		return err
	}
	event.InvokeAll(records)
	return nil
}

func DeleteProject(id types.ID, s *session.Session) error {
	var records []*event.EventRecord
	var cover string
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		p, err := LoadManageableProject(tx, id, s)
		if err != nil {
			return err
		}
		if err := purgeProject(tx, p.ID); err != nil {
			return err
		}
		cover = p.CoverKey
		ev, err := event.CreateEvent(projectSource(p), event.EventCategoryDeleted, nil, nil, &s.Identity, tx)
		if err != nil {
			return err
		}
		records = append(records, ev)
		return nil
	})
	if err != nil {
		return err
	}
	if cover != "" {
		deleteCovers(s.Context, []string{cover})
	}
	event.InvokeAll(records)
	return nil
}

func DetailProjectProgress(id types.ID, s *session.Session) (*domain.ProjectProgress, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if _, err := LoadViewableProject(db, id, s); err != nil {
		return nil, err
	}
	return progress.ComputeProjectProgressFunc(id, db)
}

func QueryProjectNames(ids []types.ID) (map[types.ID]string, error) {
	if len(ids) == 0 {
		return map[types.ID]string{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	var records []domain.Project
	if err := db.Model(&domain.Project{}).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for _, r := range records {
		result[r.ID] = r.Name
	}
	return result, nil
}

// purgeProject deletes the project with everything it owns.
func purgeProject(tx *gorm.DB, projectId types.ID) error {
	owned := []interface{}{&domain.Comment{}, &domain.Task{}, &domain.Indicator{}, &domain.Objective{},
		&domain.Contribution{}, &domain.Resource{}, &domain.ProjectMember{}}
	for _, model := range owned {
		if err := tx.Where("project_id = ?", projectId).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Where("id = ?", projectId).Delete(&domain.Project{}).Error
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return &bizerror.ErrBadParam{Cause: errors.New("endDate is before startDate")}
	}
	return nil
}

func projectChanges(p *domain.Project, u *domain.ProjectUpdating) []event.UpdatedProperty {
	var changes []event.UpdatedProperty
	if p.Name != u.Name {
		changes = append(changes, event.UpdatedProperty{PropertyName: "Name", PropertyDesc: "Name", OldValue: p.Name, NewValue: u.Name})
	}
	if p.Description != u.Description {
		changes = append(changes, event.UpdatedProperty{PropertyName: "Description", PropertyDesc: "Description"})
	}
	if p.Status != u.Status {
		changes = append(changes, event.UpdatedProperty{PropertyName: "Status", PropertyDesc: "Status",
			OldValue: string(p.Status), NewValue: string(u.Status)})
	}
	if p.Priority != u.Priority {
		changes = append(changes, event.UpdatedProperty{PropertyName: "Priority", PropertyDesc: "Priority",
			OldValue: string(p.Priority), NewValue: string(u.Priority)})
	}
	if !sameDate(p.StartDate, u.StartDate) {
		changes = append(changes, event.UpdatedProperty{PropertyName: "StartDate", PropertyDesc: "Start Date",
			OldValue: formatDate(p.StartDate), NewValue: formatDate(u.StartDate)})
	}
	if !sameDate(p.EndDate, u.EndDate) {
		changes = append(changes, event.UpdatedProperty{PropertyName: "EndDate", PropertyDesc: "End Date",
			OldValue: formatDate(p.EndDate), NewValue: formatDate(u.EndDate)})
	}
	if p.LeadID != u.LeadID {
		changes = append(changes, event.UpdatedProperty{PropertyName: "LeadId", PropertyDesc: "Lead",
			OldValue: p.LeadID.String(), NewValue: u.LeadID.String()})
	}
	if p.Public != u.Public {
		changes = append(changes, event.UpdatedProperty{PropertyName: "Public", PropertyDesc: "Public",
			OldValue: strconv.FormatBool(p.Public), NewValue: strconv.FormatBool(u.Public)})
	}
	return changes
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func projectSource(p *domain.Project) event.Source {
	return event.Source{SourceId: p.ID, SourceType: event.SourceProject, SourceDesc: p.Name, WorkspaceId: p.WorkspaceID, ProjectId: p.ID}
}

func containsID(ids []types.ID, id types.ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
