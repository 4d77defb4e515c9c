package misc

import (
	"errors"
	"partywork/bizerror"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

func BindingPathID(c *gin.Context) (types.ID, error) {
	return BindingPathParamID(c, "id")
}

func BindingPathParamID(c *gin.Context, name string) (types.ID, error) {
	raw := c.Param(name)
	id, err := types.ParseID(raw)
	if err != nil || id == 0 {
		return 0, &bizerror.ErrBadParam{Cause: errors.New("invalid " + name + " '" + raw + "'")}
	}
	return id, nil
}
