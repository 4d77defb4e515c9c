package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type Objective struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId" gorm:"index:idx_objective_project"`

	Title       string `json:"title"`
	Description string `json:"description" gorm:"type:text"`
	Completed   bool   `json:"completed"`
	Position    int    `json:"position"`

	CreateTime time.Time `json:"createTime"`
}

type ObjectiveDetail struct {
	Objective

	Indicators []Indicator `json:"indicators"`
}

type ObjectiveQuery struct {
	ProjectID types.ID `form:"projectId" binding:"required"`
}

type ObjectiveCreation struct {
	ProjectID   types.ID `json:"projectId" binding:"required"`
	Title       string   `json:"title" binding:"required,lte=200"`
	Description string   `json:"description" binding:"lte=5000"`
}

type ObjectiveUpdating struct {
	Title       string `json:"title" binding:"required,lte=200"`
	Description string `json:"description" binding:"lte=5000"`
	Completed   bool   `json:"completed"`
}

type ObjectiveOrdering struct {
	ProjectID    types.ID   `json:"projectId" binding:"required"`
	ObjectiveIDs []types.ID `json:"objectiveIds" binding:"required"`
}

type Indicator struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	ObjectiveID types.ID `json:"objectiveId" gorm:"index:idx_indicator_objective"`
	ProjectID   types.ID `json:"projectId"`

	Name    string  `json:"name"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
	Unit    string  `json:"unit"`

	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

// Attainment is current/target capped to [0, 1].
func (i Indicator) Attainment() float64 {
	if i.Target <= 0 || i.Current <= 0 {
		return 0
	}
	if i.Current >= i.Target {
		return 1
	}
	return i.Current / i.Target
}

type IndicatorCreation struct {
	ObjectiveID types.ID `json:"objectiveId" binding:"required"`
	Name        string   `json:"name" binding:"required,lte=200"`
	Target      float64  `json:"target" binding:"required,gt=0"`
	Current     float64  `json:"current" binding:"gte=0"`
	Unit        string   `json:"unit" binding:"lte=30"`
}

// IndicatorUpdating carries optional fields, project members may only move Current.
type IndicatorUpdating struct {
	Name    *string  `json:"name" binding:"omitempty,lte=200"`
	Target  *float64 `json:"target" binding:"omitempty,gt=0"`
	Current *float64 `json:"current" binding:"omitempty,gte=0"`
	Unit    *string  `json:"unit" binding:"omitempty,lte=30"`
}

type ProjectProgress struct {
	ProjectID types.ID `json:"projectId"`

	TotalTasks int `json:"totalTasks"`
	DoneTasks  int `json:"doneTasks"`

	TotalObjectives     int `json:"totalObjectives"`
	CompletedObjectives int `json:"completedObjectives"`

	IndicatorCount      int     `json:"indicatorCount"`
	IndicatorAttainment float64 `json:"indicatorAttainment"`

	Progress int `json:"progress"`
}
