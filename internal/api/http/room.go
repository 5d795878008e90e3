package http

import (
	"draw-guess-be/internal/state"

	"github.com/kataras/iris/v12"
)

// ListRooms 供大厅页面轮询当前房间列表
func ListRooms(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"rooms": appState.RoomSvc.Snapshot(),
		})
	}
}
