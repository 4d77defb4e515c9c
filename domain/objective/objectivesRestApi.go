package objective

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
	ObjectivesApiRoot      = "/v1/objectives"
	ObjectiveOrdersApiRoot = "/v1/objective-orders"
	IndicatorsApiRoot      = "/v1/indicators"
)

func RegisterObjectivesRestApis(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	objectives := r.Group(ObjectivesApiRoot, middleWares...)
	objectives.GET("", HandleQueryObjectives)
	objectives.POST("", HandleCreateObjective)
	objectives.PUT(":id", HandleUpdateObjective)
	objectives.DELETE(":id", HandleDeleteObjective)

	r.Group(ObjectiveOrdersApiRoot, middleWares...).PUT("", HandleReorderObjectives)

	indicators := r.Group(IndicatorsApiRoot, middleWares...)
	indicators.POST("", HandleCreateIndicator)
	indicators.PATCH(":id", HandleUpdateIndicator)
	indicators.DELETE(":id", HandleDeleteIndicator)
}

func HandleQueryObjectives(c *gin.Context) {
	query := domain.ObjectiveQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := QueryObjectivesFunc(query.ProjectID, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleCreateObjective(c *gin.Context) {
	payload := domain.ObjectiveCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := CreateObjectiveFunc(&payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, result)
}

func HandleUpdateObjective(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	payload := domain.ObjectiveUpdating{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateObjectiveFunc(id, &payload, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func HandleDeleteObjective(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	if err := DeleteObjectiveFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func HandleReorderObjectives(c *gin.Context) {
	payload := domain.ObjectiveOrdering{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := ReorderObjectivesFunc(payload.ProjectID, payload.ObjectiveIDs, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func HandleCreateIndicator(c *gin.Context) {
	payload := domain.IndicatorCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := CreateIndicatorFunc(&payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, result)
}

func HandleUpdateIndicator(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	payload := domain.IndicatorUpdating{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := UpdateIndicatorFunc(id, &payload, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func HandleDeleteIndicator(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	if err := DeleteIndicatorFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
