package task

import (
	"net/http"
	"partywork/bizerror"
	"partywork/domain"
	"partywork/misc"
	"partywork/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	TasksApiRoot         = "/v1/tasks"
	TaskDeletionsApiRoot = "/v1/task-deletions"
	CommentsApiRoot      = "/v1/comments"
)

func RegisterTasksRestApis(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	tasks := r.Group(TasksApiRoot, middleWares...)
	tasks.GET("", HandleQueryTasks)
	tasks.POST("", HandleCreateTask)
	tasks.GET(":id", HandleDetailTask)
	tasks.PUT(":id", HandleUpdateTask)
	tasks.PUT(":id/status", HandleUpdateTaskStatus)

	r.Group(TaskDeletionsApiRoot, middleWares...).POST("", HandleDeleteTasks)

	comments := r.Group(CommentsApiRoot, middleWares...)
	comments.GET("", HandleQueryComments)
	comments.POST("", HandleCreateComment)
	comments.DELETE(":id", HandleDeleteComment)
}

func HandleQueryTasks(c *gin.Context) {
	query := domain.TaskQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := QueryTasksFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleCreateTask(c *gin.Context) {
	payload := domain.TaskCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := CreateTaskFunc(&payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, result)
}

func HandleDetailTask(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	result, err := DetailTaskFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleUpdateTask(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	payload := domain.TaskUpdating{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := UpdateTaskFunc(id, &payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleUpdateTaskStatus(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	payload := domain.TaskStatusUpdating{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateTaskStatusFunc(id, payload.Status, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func HandleDeleteTasks(c *gin.Context) {
	payload := domain.TaskDeletion{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteTasksFunc(payload.TaskIDs, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func HandleQueryComments(c *gin.Context) {
	query := domain.CommentQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := QueryCommentsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleCreateComment(c *gin.Context) {
	payload := domain.CommentCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := CreateCommentFunc(&payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, result)
}

func HandleDeleteComment(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	if err := DeleteCommentFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
