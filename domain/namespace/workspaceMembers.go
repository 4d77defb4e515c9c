package namespace

import (
	"context"
	"errors"
	"partywork/account"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/event"
	"partywork/persistence"
	"partywork/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	QueryUserInfosFunc = account.QueryUserInfos
)

func QueryWorkspaceMembers(q *domain.WorkspaceMemberQuery, s *session.Session) (*[]domain.WorkspaceMemberDetail, error) {
	if !s.IsWorkspaceMember(q.WorkspaceID) {
		return nil, bizerror.ErrForbidden
	}

	var members []domain.WorkspaceMember
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Where("workspace_id = ?", q.WorkspaceID).
		Order("create_time ASC").Find(&members).Error; err != nil {
		return nil, err
	}

	ids := make([]types.ID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.MemberID)
	}
	infos, err := QueryUserInfosFunc(ids)
	if err != nil {
		return nil, err
	}

	details := make([]domain.WorkspaceMemberDetail, 0, len(members))
	for _, m := range members {
		detail := domain.WorkspaceMemberDetail{WorkspaceMember: m, MemberName: "Unknown"}
		if info, found := infos[m.MemberID]; found {
			detail.MemberName, detail.MemberEmail, detail.MemberImageURL = info.DisplayName(), info.Email, info.ImageURL
		}
		details = append(details, detail)
	}
	return &details, nil
}

// CreateWorkspaceMember adds the user identified by id or email, or changes its role when already a member.
func CreateWorkspaceMember(c *domain.WorkspaceMemberCreation, s *session.Session) (*domain.WorkspaceMember, error) {
	if !s.IsWorkspaceAdmin(c.WorkspaceID) {
		return nil, bizerror.ErrForbidden
	}
	if c.MemberID == 0 && c.Email == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("either memberId or email is required")}
	}

	var member *domain.WorkspaceMember
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		w, err := FindWorkspace(tx, c.WorkspaceID)
		if err != nil {
			return err
		}
		user, err := findUser(tx, c.MemberID, c.Email)
		if err != nil {
			return err
		}

		var ev *event.EventRecord
		member, ev, err = upsertWorkspaceMember(tx, w, user, c.Role, true, &s.Identity)
		if err != nil {
			return err
		}
		if ev != nil {
			records = append(records, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll(records)
	return member, nil
}

func UpdateWorkspaceMember(u *domain.WorkspaceMemberUpdating, s *session.Session) error {
	if !s.IsWorkspaceAdmin(u.WorkspaceID) {
		return bizerror.ErrForbidden
	}
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		w, err := FindWorkspace(tx, u.WorkspaceID)
		if err != nil {
			return err
		}
		existed := domain.WorkspaceMember{}
		if err := tx.Where("workspace_id = ? AND member_id = ?", u.WorkspaceID, u.MemberID).First(&existed).Error; err != nil {
			return err
		}
		user := account.User{ID: u.MemberID}
		_, ev, err := upsertWorkspaceMember(tx, w, &user, u.Role, true, &s.Identity)
		if err != nil {
			return err
		}
		if ev != nil {
			records = append(records, ev)
		}
		return nil
	})
	if err != nil {
		return err
	}
	event.InvokeAll(records)
	return nil
}

// DeleteWorkspaceMember removes a member by an admin, or the session user leaving the workspace.
func DeleteWorkspaceMember(d *domain.WorkspaceMemberDeletion, s *session.Session) error {
	if !s.IsWorkspaceAdmin(d.WorkspaceID) && !(d.MemberID == s.Identity.ID && s.IsWorkspaceMember(d.WorkspaceID)) {
		return bizerror.ErrForbidden
	}
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		w, err := FindWorkspace(tx, d.WorkspaceID)
		if err != nil {
			return err
		}
		existed := domain.WorkspaceMember{}
		if err := tx.Where("workspace_id = ? AND member_id = ?", d.WorkspaceID, d.MemberID).First(&existed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if existed.Role == domain.WorkspaceRoleAdmin {
			if err := ensureAdminRemains(tx, d.WorkspaceID, d.MemberID); err != nil {
				return err
			}
		}
		var leading int
		if err := tx.Model(&domain.Project{}).Where("workspace_id = ? AND lead_id = ?", d.WorkspaceID, d.MemberID).
			Count(&leading).Error; err != nil {
			return err
		}
		if leading > 0 {
			return bizerror.ErrProjectLeadDelete
		}

		if err := removeWorkspaceMembership(tx, d.WorkspaceID, d.MemberID); err != nil {
			return err
		}
		ev, err := event.CreateEvent(workspaceSource(w), event.EventCategoryRelationUpdated, nil,
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

// SyncWorkspaceMember applies a membership of the identity provider, the provider being the source of truth
// the last admin rule is not checked.
func SyncWorkspaceMember(ctx context.Context, orgExternalId, userExternalId string, role domain.WorkspaceRole) error {
	if !role.Valid() {
		role = domain.WorkspaceRoleMember
	}
	return persistence.ActiveDataSourceManager.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		w, user, err := findExternalMembership(tx, orgExternalId, userExternalId)
		if err != nil {
			return err
		}
		_, _, err = upsertWorkspaceMember(tx, w, user, role, false, nil)
		return err
	})
}

// DeleteWorkspaceMemberByExternalID removes a membership deleted at the identity provider,
// projects led by the member are left without lead.
func DeleteWorkspaceMemberByExternalID(ctx context.Context, orgExternalId, userExternalId string) error {
	return persistence.ActiveDataSourceManager.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		w, user, err := findExternalMembership(tx, orgExternalId, userExternalId)
		if err != nil {
			if errors.Is(err, bizerror.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Model(&domain.Project{}).Where("workspace_id = ? AND lead_id = ?", w.ID, user.ID).
			Update("lead_id", types.ID(0)).Error; err != nil {
			return err
		}
		if err := removeWorkspaceMembership(tx, w.ID, user.ID); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"workspace": w.ID, "member": user.ID}).Info("workspace member removed by identity provider")
		return nil
	})
}

func findExternalMembership(tx *gorm.DB, orgExternalId, userExternalId string) (*domain.Workspace, *account.User, error) {
	w := domain.Workspace{}
	if orgExternalId == "" {
		return nil, nil, bizerror.ErrNotFound
	}
	if err := tx.Where(&domain.Workspace{ExternalID: orgExternalId}).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}
	user, err := account.FindUserByExternalID(userExternalId, tx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}
	return &w, user, nil
}

func findUser(tx *gorm.DB, id types.ID, email string) (*account.User, error) {
	if id != 0 {
		user := account.User{}
		if err := tx.Where(&account.User{ID: id}).First(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	return account.FindUserByEmail(email, tx)
}

// upsertWorkspaceMember returns a nil event when nothing changed or when identity is nil.
func upsertWorkspaceMember(tx *gorm.DB, w *domain.Workspace, user *account.User, role domain.WorkspaceRole,
	checkLastAdmin bool, identity *session.Identity) (*domain.WorkspaceMember, *event.EventRecord, error) {

	existed := domain.WorkspaceMember{}
	err := tx.Where("workspace_id = ? AND member_id = ?", w.ID, user.ID).First(&existed).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	if err == nil {
		if existed.Role == role {
			return &existed, nil, nil
		}
		if checkLastAdmin && existed.Role == domain.WorkspaceRoleAdmin {
			if err := ensureAdminRemains(tx, w.ID, user.ID); err != nil {
				return nil, nil, err
			}
		}
		oldRole := existed.Role
		if err := tx.Model(&domain.WorkspaceMember{}).Where("workspace_id = ? AND member_id = ?", w.ID, user.ID).
			Update("role", role).Error; err != nil {
			return nil, nil, err
		}
		existed.Role = role
		if identity == nil {
			return &existed, nil, nil
		}
		ev, err := event.CreateEvent(workspaceSource(w), event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "MemberRole", PropertyDesc: "Member Role",
				OldValue: string(oldRole), NewValue: string(role), NewValueDesc: user.ID.String()}}, nil, identity, tx)
		if err != nil {
			return nil, nil, err
		}
		return &existed, ev, nil
	}

	m := domain.WorkspaceMember{WorkspaceID: w.ID, MemberID: user.ID, Role: role, CreateTime: common.Now()}
	if err := tx.Create(&m).Error; err != nil {
		return nil, nil, err
	}
	if identity == nil {
		return &m, nil, nil
	}
	ev, err := event.CreateEvent(workspaceSource(w), event.EventCategoryRelationUpdated, nil,
		[]event.UpdatedRelation{memberRelation(user.ID, user.DisplayName(), true)}, identity, tx)
	if err != nil {
		return nil, nil, err
	}
	return &m, ev, nil
}

func ensureAdminRemains(tx *gorm.DB, workspaceId, leavingMemberId types.ID) error {
	var admins int
	if err := tx.Model(&domain.WorkspaceMember{}).Where("workspace_id = ? AND member_id <> ? AND role = ?",
		workspaceId, leavingMemberId, domain.WorkspaceRoleAdmin).Count(&admins).Error; err != nil {
		return err
	}
	if admins == 0 {
		return bizerror.ErrLastWorkspaceAdmin
	}
	return nil
}

// removeWorkspaceMembership drops the member with its project memberships in the workspace,
// open tasks assigned to it there become unassigned.
func removeWorkspaceMembership(tx *gorm.DB, workspaceId, memberId types.ID) error {
	projectIds := tx.Model(&domain.Project{}).Where("workspace_id = ?", workspaceId).Select("id").QueryExpr()
	if err := tx.Where("member_id = ? AND project_id IN (?)", memberId, projectIds).Delete(&domain.ProjectMember{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&domain.Task{}).Where("assignee_id = ? AND status <> ? AND project_id IN (?)", memberId, domain.TaskStatusDone, projectIds).
		Update("assignee_id", types.ID(0)).Error; err != nil {
		return err
	}
	return tx.Where("workspace_id = ? AND member_id = ?", workspaceId, memberId).Delete(&domain.WorkspaceMember{}).Error
}

func memberRelation(memberId types.ID, memberName string, added bool) event.UpdatedRelation {
	r := event.UpdatedRelation{PropertyName: "MemberId", PropertyDesc: "Member", TargetType: "USER", TargetTypeDesc: "User"}
	if added {
		r.NewTargetId, r.NewTargetDesc = memberId.String(), memberName
	} else {
		r.OldTargetId, r.OldTargetDesc = memberId.String(), memberName
	}
	return r
}
