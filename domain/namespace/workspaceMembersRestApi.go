package namespace

import (
	"net/http"
	"partywork/bizerror"
	"partywork/domain"
	"partywork/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	WorkspaceMembersApiRoot = "/v1/workspace-members"

	QueryWorkspaceMembersFunc = QueryWorkspaceMembers
	CreateWorkspaceMemberFunc = CreateWorkspaceMember
	UpdateWorkspaceMemberFunc = UpdateWorkspaceMember
	DeleteWorkspaceMemberFunc = DeleteWorkspaceMember
)

func RegisterWorkspaceMembersRestApis(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	members := r.Group(WorkspaceMembersApiRoot, middleWares...)
	members.GET("", HandleQueryWorkspaceMembers)
	members.POST("", HandleCreateWorkspaceMember)
	members.PUT("", HandleUpdateWorkspaceMember)
	members.DELETE("", HandleDeleteWorkspaceMember)
}

func HandleQueryWorkspaceMembers(c *gin.Context) {
	query := domain.WorkspaceMemberQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := QueryWorkspaceMembersFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleCreateWorkspaceMember(c *gin.Context) {
	payload := domain.WorkspaceMemberCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := CreateWorkspaceMemberFunc(&payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleUpdateWorkspaceMember(c *gin.Context) {
	payload := domain.WorkspaceMemberUpdating{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateWorkspaceMemberFunc(&payload, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func HandleDeleteWorkspaceMember(c *gin.Context) {
	payload := domain.WorkspaceMemberDeletion{}
	if err := c.ShouldBindQuery(&payload); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteWorkspaceMemberFunc(&payload, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
