package account

import (
	"net/http"
	"partywork/bizerror"
	"partywork/misc"
	"partywork/session"

	"github.com/gin-gonic/gin"
)

var (
	QueryUsersFunc = QueryUsers
	DetailUserFunc = DetailUser
)

func RegisterUsersHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	users := r.Group("/v1/users", middleWares...)
	users.GET("", HandleQueryUsers)
	users.GET(":id", HandleDetailUser)
}

func HandleQueryUsers(c *gin.Context) {
	query := UserQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	results, err := QueryUsersFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, results)
}

func HandleDetailUser(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(err)
	}
	result, err := DetailUserFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
