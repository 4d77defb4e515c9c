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
	ProjectsMemberApiRoot = "/v1/project-members"

	QueryProjectMembersFunc = QueryProjectMembers
	CreateProjectMemberFunc = CreateProjectMember
	DeleteProjectMemberFunc = DeleteProjectMember
)

func RegisterProjectMembersRestApis(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	members := r.Group(ProjectsMemberApiRoot, middleWares...)
	members.GET("", HandleQueryProjectMembers)
	members.POST("", HandleCreateProjectMember)
	members.DELETE("", HandleDeleteProjectMember)
}

func HandleQueryProjectMembers(c *gin.Context) {
	payload := domain.ProjectMemberQuery{}
	if err := c.ShouldBindQuery(&payload); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := QueryProjectMembersFunc(&payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleCreateProjectMember(c *gin.Context) {
	payload := domain.ProjectMemberCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := CreateProjectMemberFunc(&payload, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func HandleDeleteProjectMember(c *gin.Context) {
	payload := domain.ProjectMemberDeletion{}
	if err := c.ShouldBindQuery(&payload); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteProjectMemberFunc(&payload, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}
