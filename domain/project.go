package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  = ProjectStatus("PLANNING")
	ProjectStatusActive    = ProjectStatus("ACTIVE")
	ProjectStatusOnHold    = ProjectStatus("ON_HOLD")
	ProjectStatusCompleted = ProjectStatus("COMPLETED")
	ProjectStatusCancelled = ProjectStatus("CANCELLED")
)

type Priority string

const (
	PriorityLow    = Priority("LOW")
	PriorityMedium = Priority("MEDIUM")
	PriorityHigh   = Priority("HIGH")
)

type Project struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	WorkspaceID types.ID `json:"workspaceId" gorm:"index:idx_project_workspace"`

	Name        string        `json:"name"`
	Description string        `json:"description" gorm:"type:text"`
	Status      ProjectStatus `json:"status"`
	Priority    Priority      `json:"priority"`

	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Progress  int        `json:"progress"`

	LeadID   types.ID `json:"leadId"`
	Public   bool     `json:"public"`
	CoverKey string   `json:"coverKey"`

	CreatorID  types.ID  `json:"creatorId"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

type ProjectDetail struct {
	Project

	Members []ProjectMemberDetail `json:"members"`
}

type ProjectCreation struct {
	WorkspaceID types.ID      `json:"workspaceId" binding:"required"`
	Name        string        `json:"name" binding:"required,lte=120"`
	Description string        `json:"description" binding:"lte=5000"`
	Status      ProjectStatus `json:"status" binding:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED CANCELLED"`
	Priority    Priority      `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	StartDate   *time.Time    `json:"startDate"`
	EndDate     *time.Time    `json:"endDate"`
	LeadID      types.ID      `json:"leadId"`
	Public      bool          `json:"public"`
	MemberIDs   []types.ID    `json:"memberIds"`
}

type ProjectUpdating struct {
	Name        string        `json:"name" binding:"required,lte=120"`
	Description string        `json:"description" binding:"lte=5000"`
	Status      ProjectStatus `json:"status" binding:"required,oneof=PLANNING ACTIVE ON_HOLD COMPLETED CANCELLED"`
	Priority    Priority      `json:"priority" binding:"required,oneof=LOW MEDIUM HIGH"`
	StartDate   *time.Time    `json:"startDate"`
	EndDate     *time.Time    `json:"endDate"`
	LeadID      types.ID      `json:"leadId" binding:"required"`
	Public      bool          `json:"public"`
}

type ProjectQuery struct {
	WorkspaceID types.ID      `form:"workspaceId"`
	Status      ProjectStatus `form:"status"`
}

type ProjectRole string

const (
	ProjectRoleLead   = ProjectRole("LEAD")
	ProjectRoleMember = ProjectRole("MEMBER")
)

type ProjectMember struct {
	ProjectID types.ID `json:"projectId" gorm:"primary_key;auto_increment:false"`
	MemberID  types.ID `json:"memberId" gorm:"primary_key;auto_increment:false"`

	Role       ProjectRole `json:"role"`
	CreateTime time.Time   `json:"createTime"`
}

type ProjectMemberDetail struct {
	ProjectMember

	ProjectName string `json:"projectName"`
	MemberName  string `json:"memberName"`
	MemberEmail string `json:"memberEmail"`
}

type ProjectMemberCreation struct {
	ProjectID types.ID `json:"projectId" binding:"required"`
	MemberID  types.ID `json:"memberId" binding:"required"`
}

type ProjectMemberQuery struct {
	ProjectID *types.ID `form:"projectId"`
	MemberID  *types.ID `form:"memberId"`
}

type ProjectMemberDeletion struct {
	ProjectID types.ID `form:"projectId" binding:"required"`
	MemberID  types.ID `form:"memberId" binding:"required"`
}

// ProjectRoleBinding is the role a session holds on a project.
type ProjectRoleBinding struct {
	ProjectID   types.ID    `json:"projectId"`
	ProjectName string      `json:"projectName"`
	WorkspaceID types.ID    `json:"workspaceId"`
	Role        ProjectRole `json:"role"`
}
