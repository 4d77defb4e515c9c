package namespace

import (
	"errors"
	"partywork/account"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/event"
	"partywork/persistence"
	"partywork/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

func QueryProjectMembers(q *domain.ProjectMemberQuery, s *session.Session) (*[]domain.ProjectMemberDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	dbQuery := db.Model(&domain.ProjectMember{})

	if q.ProjectID != nil {
		if _, err := LoadViewableProject(db, *q.ProjectID, s); err != nil {
			return nil, err
		}
		dbQuery = dbQuery.Where("project_id = ?", *q.ProjectID)
	} else {
		ids, all, err := ViewableProjectIDs(db, s)
		if err != nil {
			return nil, err
		}
		if !all {
			if len(ids) == 0 {
				return &[]domain.ProjectMemberDetail{}, nil
			}
			dbQuery = dbQuery.Where("project_id IN (?)", ids)
		}
	}
	if q.MemberID != nil {
		dbQuery = dbQuery.Where("member_id = ?", *q.MemberID)
	}

	var result []domain.ProjectMember
	if err := dbQuery.Order("create_time ASC").Find(&result).Error; err != nil {
		return nil, err
	}
	return DetailProjectMembersFunc(&result)
}

func DetailProjectMembers(pms *[]domain.ProjectMember) (*[]domain.ProjectMemberDetail, error) {
	if pms == nil {
		return &[]domain.ProjectMemberDetail{}, nil
	}

	var projectIds []types.ID
	var memberIds []types.ID
	for _, pm := range *pms {
		projectIds = append(projectIds, pm.ProjectID)
		memberIds = append(memberIds, pm.MemberID)
	}

	projectIdNameMap, err := QueryProjectNamesFunc(projectIds)
	if err != nil {
		return nil, err
	}
	memberInfos, err := QueryUserInfosFunc(memberIds)
	if err != nil {
		return nil, err
	}

	details := []domain.ProjectMemberDetail{}
	for _, pm := range *pms {
		detail := domain.ProjectMemberDetail{ProjectMember: pm, ProjectName: "Unknown", MemberName: "Unknown"}
		if projectName, found := projectIdNameMap[pm.ProjectID]; found {
			detail.ProjectName = projectName
		}
		if info, found := memberInfos[pm.MemberID]; found {
			detail.MemberName, detail.MemberEmail = info.DisplayName(), info.Email
		}
		details = append(details, detail)
	}
	return &details, nil
}

// CreateProjectMember adds a workspace member to the project as MEMBER, leads are set by updating the project.
func CreateProjectMember(c *domain.ProjectMemberCreation, s *session.Session) error {
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		p, err := LoadManageableProject(tx, c.ProjectID, s)
		if err != nil {
			return err
		}
		if c.MemberID == p.LeadID {
			return bizerror.ErrProjectLeadGrant
		}
		user := account.User{}
		if err := tx.Where(&account.User{ID: c.MemberID}).First(&user).Error; err != nil {
			return err
		}
		ok, err := IsWorkspaceMember(tx, p.WorkspaceID, c.MemberID)
		if err != nil {
			return err
		}
		if !ok {
			return bizerror.ErrProjectMemberNotInSpace
		}
		existed, err := IsProjectMember(tx, p.ID, c.MemberID)
		if err != nil {
			return err
		}
		if existed {
			return nil
		}

		ev, err := addProjectMember(tx, p, c.MemberID, domain.ProjectRoleMember, common.Now(), &s.Identity)
		if err != nil {
			return err
		}
		records = append(records, ev)
		return nil
	})
	if err != nil {
		return err
	}
	event.InvokeAll(records)
	return nil
}

// DeleteProjectMember removes a member other than the lead, open tasks assigned to it become unassigned.
func DeleteProjectMember(d *domain.ProjectMemberDeletion, s *session.Session) error {
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		p, err := LoadManageableProject(tx, d.ProjectID, s)
		if err != nil {
			return err
		}
		record := domain.ProjectMember{}
		if err := tx.Where("project_id = ? AND member_id = ?", d.ProjectID, d.MemberID).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if record.Role == domain.ProjectRoleLead || p.LeadID == d.MemberID {
			return bizerror.ErrProjectLeadDelete
		}

		if err := tx.Where("project_id = ? AND member_id = ?", d.ProjectID, d.MemberID).Delete(&domain.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Task{}).Where("project_id = ? AND assignee_id = ? AND status <> ?", d.ProjectID, d.MemberID, domain.TaskStatusDone).
			Update("assignee_id", types.ID(0)).Error; err != nil {
			return err
		}
		ev, err := event.CreateEvent(projectMemberSource(p), event.EventCategoryRelationUpdated, nil,
			[]event.UpdatedRelation{memberRelation(d.MemberID, "", false)}, &s.Identity, tx)
		if err != nil {
			return err
		}
		records = append(records, ev)
		return nil
	})
	if err != nil {
		return err
	}
	event.InvokeAll(records)
	return nil
}

func addProjectMember(tx *gorm.DB, p *domain.Project, memberId types.ID, role domain.ProjectRole, now time.Time,
	identity *session.Identity) (*event.EventRecord, error) {

	record := domain.ProjectMember{ProjectID: p.ID, MemberID: memberId, Role: role, CreateTime: now}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}
	return event.CreateEvent(projectMemberSource(p), event.EventCategoryRelationUpdated, nil,
		[]event.UpdatedRelation{memberRelation(memberId, "", true)}, identity, tx)
}

func projectMemberSource(p *domain.Project) event.Source {
	return event.Source{SourceId: p.ID, SourceType: event.SourceProjectMember, SourceDesc: p.Name, WorkspaceId: p.WorkspaceID, ProjectId: p.ID}
}
