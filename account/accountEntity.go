package account

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

// User mirrors a user of the identity provider.
type User struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	ExternalID string   `json:"externalId" gorm:"unique_index:uni_user_external"`
	Email      string   `json:"email" gorm:"index:idx_user_email"`
	Name       string   `json:"name"`
	ImageURL   string   `json:"imageUrl"`

	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

type UserInfo struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	ImageURL string   `json:"imageUrl"`
}

type UserQuery struct {
	WorkspaceID types.ID `form:"workspaceId"`
	Keyword     string   `form:"keyword" binding:"lte=100"`
}

// ExternalProfile is a user as announced by the identity provider.
type ExternalProfile struct {
	ExternalID string
	Email      string
	Name       string
	ImageURL   string
}

type UserRoleBinding struct {
	UserID types.ID `json:"userId" gorm:"primary_key;auto_increment:false"`
	RoleID string   `json:"roleId" gorm:"primary_key"`
}

const SystemAdminRole = "system-admin"

func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func (u UserInfo) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func (u User) Info() UserInfo {
	return UserInfo{ID: u.ID, Name: u.Name, Email: u.Email, ImageURL: u.ImageURL}
}
