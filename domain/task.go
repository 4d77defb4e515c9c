package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type TaskStatus string

const (
	TaskStatusTodo       = TaskStatus("TODO")
	TaskStatusInProgress = TaskStatus("IN_PROGRESS")
	TaskStatusDone       = TaskStatus("DONE")
)

type TaskType string

const (
	TaskTypeTask        = TaskType("TASK")
	TaskTypeBug         = TaskType("BUG")
	TaskTypeFeature     = TaskType("FEATURE")
	TaskTypeImprovement = TaskType("IMPROVEMENT")
	TaskTypeOther       = TaskType("OTHER")
)

type Task struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId" gorm:"index:idx_task_project"`

	Title       string     `json:"title"`
	Description string     `json:"description" gorm:"type:text"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	Type        TaskType   `json:"type"`

	AssigneeID types.ID   `json:"assigneeId" gorm:"index:idx_task_assignee"`
	DueDate    *time.Time `json:"dueDate"`

	Objective string `json:"objective" gorm:"type:text"`
	Result    string `json:"result" gorm:"type:text"`
	Risk      string `json:"risk" gorm:"type:text"`
	KeyFactor string `json:"keyFactor" gorm:"type:text"`

	CreatorID  types.ID   `json:"creatorId"`
	RemindTime *time.Time `json:"-"`
	CreateTime time.Time  `json:"createTime"`
	UpdateTime time.Time  `json:"updateTime"`
}

type TaskCreation struct {
	ProjectID   types.ID   `json:"projectId" binding:"required"`
	Title       string     `json:"title" binding:"required,lte=200"`
	Description string     `json:"description" binding:"lte=10000"`
	Status      TaskStatus `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority    Priority   `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	Type        TaskType   `json:"type" binding:"omitempty,oneof=TASK BUG FEATURE IMPROVEMENT OTHER"`
	AssigneeID  types.ID   `json:"assigneeId"`
	DueDate     *time.Time `json:"dueDate"`
	Objective   string     `json:"objective" binding:"lte=5000"`
	Result      string     `json:"result" binding:"lte=5000"`
	Risk        string     `json:"risk" binding:"lte=5000"`
	KeyFactor   string     `json:"keyFactor" binding:"lte=5000"`
}

type TaskUpdating struct {
	Title       string     `json:"title" binding:"required,lte=200"`
	Description string     `json:"description" binding:"lte=10000"`
	Status      TaskStatus `json:"status" binding:"required,oneof=TODO IN_PROGRESS DONE"`
	Priority    Priority   `json:"priority" binding:"required,oneof=LOW MEDIUM HIGH"`
	Type        TaskType   `json:"type" binding:"required,oneof=TASK BUG FEATURE IMPROVEMENT OTHER"`
	AssigneeID  types.ID   `json:"assigneeId"`
	DueDate     *time.Time `json:"dueDate"`
	Objective   string     `json:"objective" binding:"lte=5000"`
	Result      string     `json:"result" binding:"lte=5000"`
	Risk        string     `json:"risk" binding:"lte=5000"`
	KeyFactor   string     `json:"keyFactor" binding:"lte=5000"`
}

type TaskStatusUpdating struct {
	Status TaskStatus `json:"status" binding:"required,oneof=TODO IN_PROGRESS DONE"`
}

type TaskQuery struct {
	ProjectID  types.ID   `form:"projectId"`
	AssigneeID types.ID   `form:"assigneeId"`
	Status     TaskStatus `form:"status"`
	Keyword    string     `form:"keyword"`
}

type TaskDeletion struct {
	TaskIDs []types.ID `json:"taskIds" binding:"required,min=1"`
}

type Comment struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	TaskID    types.ID `json:"taskId" gorm:"index:idx_comment_task"`
	ProjectID types.ID `json:"projectId"`

	AuthorID types.ID `json:"authorId"`
	Content  string   `json:"content" gorm:"type:text"`

	CreateTime time.Time `json:"createTime"`
}

type CommentDetail struct {
	Comment

	AuthorName     string `json:"authorName"`
	AuthorImageURL string `json:"authorImageUrl"`
}

type CommentCreation struct {
	TaskID  types.ID `json:"taskId" binding:"required"`
	Content string   `json:"content" binding:"required,lte=2000"`
}

type CommentQuery struct {
	TaskID types.ID `form:"taskId" binding:"required"`
}
