package search

import (
	"net/http"
	"partywork/bizerror"
	"partywork/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathSearchTasks   = "/v1/search/tasks"
	PathIndexRequests = "/v1/indices/sync"
)

func RegisterSearchRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	r.Group(PathSearchTasks, middleWares...).POST("", handleSearchTasks)
	r.Group(PathIndexRequests, middleWares...).POST("", handleIndexRequest)
}

func handleSearchTasks(c *gin.Context) {
	query := TaskSearchQuery{}
	if err := c.ShouldBindBodyWith(&query, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := SearchTasksFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleIndexRequest(c *gin.Context) {
	success, err := ScheduleNewSyncRunFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"result": success})
}
