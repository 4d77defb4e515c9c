package namespace

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
	WorkspacesApiRoot = "/v1/workspaces"

	QueryWorkspacesFunc = QueryWorkspaces
	CreateWorkspaceFunc = CreateWorkspace
	DetailWorkspaceFunc = DetailWorkspace
	UpdateWorkspaceFunc = UpdateWorkspace
	DeleteWorkspaceFunc = DeleteWorkspace
)

func RegisterWorkspacesRestApis(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	workspaces := r.Group(WorkspacesApiRoot, middleWares...)
	workspaces.GET("", HandleQueryWorkspaces)
	workspaces.POST("", HandleCreateWorkspace)
	workspaces.GET(":id", HandleDetailWorkspace)
	workspaces.PUT(":id", HandleUpdateWorkspace)
	workspaces.DELETE(":id", HandleDeleteWorkspace)
}

func HandleQueryWorkspaces(c *gin.Context) {
	result, err := QueryWorkspacesFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleCreateWorkspace(c *gin.Context) {
	payload := domain.WorkspaceCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := CreateWorkspaceFunc(&payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, result)
}

func HandleDetailWorkspace(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	result, err := DetailWorkspaceFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleUpdateWorkspace(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	payload := domain.WorkspaceUpdating{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateWorkspaceFunc(id, &payload, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func HandleDeleteWorkspace(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	if err := DeleteWorkspaceFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
