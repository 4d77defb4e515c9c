package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type Workspace struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	// organization id at the identity provider, empty for workspaces created locally
	ExternalID string `json:"externalId" gorm:"index:idx_workspace_external"`

	Name        string `json:"name"`
	Slug        string `json:"slug" gorm:"unique_index:uni_workspace_slug"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"imageUrl"`

	OwnerID types.ID `json:"ownerId"`

	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

type WorkspaceDetail struct {
	Workspace

	Role         WorkspaceRole `json:"role,omitempty"`
	MemberCount  int           `json:"memberCount"`
	ProjectCount int           `json:"projectCount"`
}

type WorkspaceCreation struct {
	Name        string `json:"name" binding:"required,lte=100"`
	Slug        string `json:"slug" binding:"required,lte=60"`
	Description string `json:"description" binding:"lte=2000"`
	ImageURL    string `json:"imageUrl" binding:"omitempty,url"`
}

type WorkspaceUpdating struct {
	Name        string `json:"name" binding:"required,lte=100"`
	Description string `json:"description" binding:"lte=2000"`
	ImageURL    string `json:"imageUrl" binding:"omitempty,url"`
}

type WorkspaceRole string

const (
	WorkspaceRoleAdmin  = WorkspaceRole("ADMIN")
	WorkspaceRoleMember = WorkspaceRole("MEMBER")
)

func (r WorkspaceRole) Valid() bool {
	return r == WorkspaceRoleAdmin || r == WorkspaceRoleMember
}

type WorkspaceMember struct {
	WorkspaceID types.ID `json:"workspaceId" gorm:"primary_key;auto_increment:false"`
	MemberID    types.ID `json:"memberId" gorm:"primary_key;auto_increment:false"`

	Role       WorkspaceRole `json:"role"`
	CreateTime time.Time     `json:"createTime"`
}

type WorkspaceMemberDetail struct {
	WorkspaceMember

	MemberName     string `json:"memberName"`
	MemberEmail    string `json:"memberEmail"`
	MemberImageURL string `json:"memberImageUrl"`
}

type WorkspaceMemberCreation struct {
	WorkspaceID types.ID `json:"workspaceId" binding:"required"`
	// one of MemberID and Email identifies the user
	MemberID types.ID      `json:"memberId"`
	Email    string        `json:"email" binding:"omitempty,email"`
	Role     WorkspaceRole `json:"role" binding:"required,oneof=ADMIN MEMBER"`
}

type WorkspaceMemberUpdating struct {
	WorkspaceID types.ID      `json:"workspaceId" binding:"required"`
	MemberID    types.ID      `json:"memberId" binding:"required"`
	Role        WorkspaceRole `json:"role" binding:"required,oneof=ADMIN MEMBER"`
}

type WorkspaceMemberQuery struct {
	WorkspaceID types.ID `form:"workspaceId" binding:"required"`
}

type WorkspaceMemberDeletion struct {
	WorkspaceID types.ID `form:"workspaceId" binding:"required"`
	MemberID    types.ID `form:"memberId" binding:"required"`
}

// WorkspaceRoleBinding is the role a session holds on a workspace.
type WorkspaceRoleBinding struct {
	WorkspaceID   types.ID      `json:"workspaceId"`
	WorkspaceName string        `json:"workspaceName"`
	WorkspaceSlug string        `json:"workspaceSlug"`
	Role          WorkspaceRole `json:"role"`
}
