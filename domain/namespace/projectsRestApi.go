package namespace

import (
	"bufio"
	"io"
	"net/http"
	"partywork/bizerror"
	"partywork/domain"
	"partywork/misc"
	"partywork/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

var (
	ProjectsApiRoot = "/v1/projects"

	QueryProjectsFunc         = QueryProjects
	CreateProjectFunc         = CreateProject
	DetailProjectFunc         = DetailProject
	UpdateProjectFunc         = UpdateProject
	DeleteProjectFunc         = DeleteProject
	DetailProjectProgressFunc = DetailProjectProgress
	UploadProjectCoverFunc    = UploadProjectCover
	OpenProjectCoverFunc      = OpenProjectCover
)

func RegisterProjectsRestApis(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	projects := r.Group(ProjectsApiRoot, middleWares...)
	projects.GET("", HandleQueryProjects)
	projects.POST("", HandleCreateProject)
	projects.GET(":id", HandleDetailProject)
	projects.PUT(":id", HandleUpdateProject)
	projects.DELETE(":id", HandleDeleteProject)
	projects.GET(":id/progress", HandleDetailProjectProgress)
	projects.PUT(":id/cover", HandleUploadProjectCover)
	projects.GET(":id/cover", HandleGetProjectCover)
}

func HandleQueryProjects(c *gin.Context) {
	query := domain.ProjectQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := QueryProjectsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleCreateProject(c *gin.Context) {
	payload := domain.ProjectCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := CreateProjectFunc(&payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, result)
}

func HandleDetailProject(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	result, err := DetailProjectFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleUpdateProject(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	payload := domain.ProjectUpdating{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateProjectFunc(id, &payload, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func HandleDeleteProject(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	if err := DeleteProjectFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func HandleDetailProjectProgress(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	result, err := DetailProjectProgressFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleUploadProjectCover(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	header, err := c.FormFile("file")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	file, err := header.Open()
	if err != nil {
		panic(err)
	}
	defer file.Close()

	key, err := UploadProjectCoverFunc(id, file, header.Size, header.Header.Get("Content-Type"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"coverKey": key})
}

func HandleGetProjectCover(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	rc, err := OpenProjectCoverFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	defer rc.Close()

	reader := bufio.NewReader(rc)
	head, _ := reader.Peek(512)
	c.Header("Content-Type", http.DetectContentType(head))
	c.Header("Cache-Control", "private, max-age=300")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		logrus.WithField("project", id).Warnf("failed to stream cover: %v", err)
	}
}
