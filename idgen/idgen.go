package idgen

import (
	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

// one worker for every entity, ids never collide across tables
var idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

func NextID() types.ID {
	id, err := idWorker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}
