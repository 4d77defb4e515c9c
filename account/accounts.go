package account

import (
	"context"
	"errors"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/idgen"
	"partywork/persistence"
	"partywork/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	// SystemAdminEmails lists the emails granted the system admin role whenever their user is synchronized.
	SystemAdminEmails []string
)

func QueryUsers(q *UserQuery, s *session.Session) (*[]UserInfo, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&User{})

	if q.WorkspaceID != 0 {
		if !s.IsWorkspaceMember(q.WorkspaceID) {
			return &[]UserInfo{}, nil
		}
		db = db.Where("id IN (?)", persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&domain.WorkspaceMember{}).
			Where("workspace_id = ?", q.WorkspaceID).Select("member_id").QueryExpr())
	} else if !s.IsSystemAdmin() {
		workspaceIds := s.VisibleWorkspaces()
		if len(workspaceIds) == 0 {
			db = db.Where("id = ?", s.Identity.ID)
		} else {
			db = db.Where("id IN (?)", persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&domain.WorkspaceMember{}).
				Where("workspace_id IN (?)", workspaceIds).Select("member_id").QueryExpr())
		}
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	users := []UserInfo{}
	if err := db.Order("name ASC").Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func DetailUser(id types.ID, s *session.Session) (*UserInfo, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	user := User{}
	if err := db.Where(&User{ID: id}).First(&user).Error; err != nil {
		return nil, err
	}
	if id == s.Identity.ID || s.IsSystemAdmin() {
		info := user.Info()
		return &info, nil
	}

	workspaceIds := s.VisibleWorkspaces()
	if len(workspaceIds) == 0 {
		return nil, bizerror.ErrForbidden
	}
	var shared int
	if err := db.Model(&domain.WorkspaceMember{}).Where("member_id = ? AND workspace_id IN (?)", id, workspaceIds).
		Count(&shared).Error; err != nil {
		return nil, err
	}
	if shared == 0 {
		return nil, bizerror.ErrForbidden
	}
	info := user.Info()
	return &info, nil
}

func QueryAccountNames(ids []types.ID) (map[types.ID]string, error) {
	infos, err := QueryUserInfos(ids)
	if err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for id, info := range infos {
		result[id] = info.DisplayName()
	}
	return result, nil
}

func QueryUserInfos(ids []types.ID) (map[types.ID]UserInfo, error) {
	if len(ids) == 0 {
		return map[types.ID]UserInfo{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	var records []UserInfo
	if err := db.Model(&User{}).Where("id IN (?)", ids).Scan(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]UserInfo{}
	for _, r := range records {
		result[r.ID] = r
	}
	return result, nil
}

func FindUserByExternalID(externalId string, tx *gorm.DB) (*User, error) {
	if externalId == "" {
		return nil, gorm.ErrRecordNotFound
	}
	user := User{}
	if err := tx.Where(&User{ExternalID: externalId}).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByEmail(email string, tx *gorm.DB) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	user := User{}
	if err := tx.Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertExternalUser creates or refreshes the user mirroring an identity provider user.
func UpsertExternalUser(ctx context.Context, p *ExternalProfile) (*User, error) {
	if p.ExternalID == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("external id of user is empty")}
	}

	var user *User
	err := persistence.ActiveDataSourceManager.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		now := common.Now()
		found, err := FindUserByExternalID(p.ExternalID, tx)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if found == nil {
			user = &User{ID: idgen.NextID(), ExternalID: p.ExternalID, Email: p.Email, Name: p.Name, ImageURL: p.ImageURL,
				CreateTime: now, UpdateTime: now}
			if err := tx.Create(user).Error; err != nil {
				return err
			}
		} else {
			user = found
			user.Email, user.Name, user.ImageURL, user.UpdateTime = p.Email, p.Name, p.ImageURL, now
			if err := tx.Model(&User{}).Where(&User{ID: user.ID}).Updates(map[string]interface{}{
				"email": user.Email, "name": user.Name, "image_url": user.ImageURL, "update_time": now,
			}).Error; err != nil {
				return err
			}
		}

		if isSystemAdminEmail(user.Email) {
			binding := UserRoleBinding{UserID: user.ID, RoleID: SystemAdminRole}
			if err := tx.Where(&binding).FirstOrCreate(&binding).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteExternalUser removes the user with its memberships, projects it leads and tasks assigned to it
// are left without lead and assignee.
func DeleteExternalUser(ctx context.Context, externalId string) error {
	return persistence.ActiveDataSourceManager.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := FindUserByExternalID(externalId, tx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&UserRoleBinding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", user.ID).Delete(&domain.WorkspaceMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", user.ID).Delete(&domain.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Project{}).Where("lead_id = ?", user.ID).
			Update("lead_id", types.ID(0)).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Task{}).Where("assignee_id = ?", user.ID).
			Update("assignee_id", types.ID(0)).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", user.ID).Delete(&User{}).Error; err != nil {
			return err
		}
		logrus.WithField("user", user.ID).Info("user deleted by identity provider")
		return nil
	})
}

func isSystemAdminEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, e := range SystemAdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}
