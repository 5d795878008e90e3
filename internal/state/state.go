package state

import (
	"draw-guess-be/internal/config"
	"draw-guess-be/internal/service"
)

type AppState struct {
	Cfg        *config.AppConfig
	RoomSvc    *service.RoomService
	Sessions   *service.SessionRegistry
	Dispatcher *service.Dispatcher
}

func NewAppState(
	cfg *config.AppConfig,
	roomSvc *service.RoomService,
	sessions *service.SessionRegistry,
	dispatcher *service.Dispatcher,
) *AppState {
	return &AppState{
		Cfg:        cfg,
		RoomSvc:    roomSvc,
		Sessions:   sessions,
		Dispatcher: dispatcher,
	}
}
