package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type ResourceKind string

const (
	ResourceKindMaterial  = ResourceKind("MATERIAL")
	ResourceKindHuman     = ResourceKind("HUMAN")
	ResourceKindFinancial = ResourceKind("FINANCIAL")
)

// Resource is a need stated by a project, Quantity is a count of people for HUMAN and money for FINANCIAL.
type Resource struct {
	ID        types.ID     `json:"id" gorm:"primary_key"`
	ProjectID types.ID     `json:"projectId" gorm:"index:idx_resource_project"`
	Kind      ResourceKind `json:"kind"`

	Name        string `json:"name"`
	Description string `json:"description" gorm:"type:text"`
	Unit        string `json:"unit"`
	Currency    string `json:"currency"`

	Quantity  float64 `json:"quantity"`
	Fulfilled float64 `json:"fulfilled"`

	CreatorID  types.ID  `json:"creatorId"`
	CreateTime time.Time `json:"createTime"`
}

type ResourceCreation struct {
	ProjectID   types.ID     `json:"projectId" binding:"required"`
	Kind        ResourceKind `json:"kind" binding:"required,oneof=MATERIAL HUMAN FINANCIAL"`
	Name        string       `json:"name" binding:"required,lte=200"`
	Description string       `json:"description" binding:"lte=5000"`
	Unit        string       `json:"unit" binding:"lte=30"`
	Currency    string       `json:"currency" binding:"omitempty,len=3,alpha"`
	Quantity    float64      `json:"quantity" binding:"required,gt=0"`
}

type ResourceUpdating struct {
	Name        string  `json:"name" binding:"required,lte=200"`
	Description string  `json:"description" binding:"lte=5000"`
	Unit        string  `json:"unit" binding:"lte=30"`
	Currency    string  `json:"currency" binding:"omitempty,len=3,alpha"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
}

type ResourceQuery struct {
	ProjectID types.ID     `form:"projectId" binding:"required"`
	Kind      ResourceKind `form:"kind"`
}

type ContributionStatus string

const (
	ContributionPending  = ContributionStatus("PENDING")
	ContributionApproved = ContributionStatus("APPROVED")
	ContributionRejected = ContributionStatus("REJECTED")
)

type Contribution struct {
	ID         types.ID     `json:"id" gorm:"primary_key"`
	ResourceID types.ID     `json:"resourceId" gorm:"index:idx_contribution_resource"`
	ProjectID  types.ID     `json:"projectId" gorm:"index:idx_contribution_project"`
	Kind       ResourceKind `json:"kind"`

	ContributorID types.ID `json:"contributorId"`
	Amount        float64  `json:"amount"`
	Note          string   `json:"note" gorm:"type:text"`

	Status     ContributionStatus `json:"status"`
	ReviewerID types.ID           `json:"reviewerId"`
	ReviewNote string             `json:"reviewNote" gorm:"type:text"`
	ReviewTime *time.Time         `json:"reviewTime"`

	CreateTime time.Time `json:"createTime"`
}

type ContributionDetail struct {
	Contribution

	ResourceName    string `json:"resourceName"`
	ContributorName string `json:"contributorName"`
}

type ContributionCreation struct {
	ResourceID types.ID `json:"resourceId" binding:"required"`
	Amount     float64  `json:"amount" binding:"required,gt=0"`
	Note       string   `json:"note" binding:"lte=2000"`
}

type ContributionQuery struct {
	ProjectID     types.ID           `form:"projectId" binding:"required"`
	ResourceID    types.ID           `form:"resourceId"`
	ContributorID types.ID           `form:"contributorId"`
	Status        ContributionStatus `form:"status"`
}

const (
	ContributionActionApprove = "approve"
	ContributionActionReject  = "reject"
	ContributionActionReopen  = "reopen"
)

type ContributionTransition struct {
	Action string `json:"action" binding:"required,oneof=approve reject reopen"`
	Note   string `json:"note" binding:"lte=2000"`
}
