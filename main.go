package main

import (
	"draw-guess-be/internal/api/http"
	"draw-guess-be/internal/api/tcp"
	"draw-guess-be/internal/config"
	"draw-guess-be/internal/logger"
	"draw-guess-be/internal/service"
	"draw-guess-be/internal/service/game"
	"draw-guess-be/internal/state"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)

	// 组装服务
	roomSvc := service.NewRoomService(game.Config{
		MaxRounds:         cfg.MaxRounds,
		RoundTime:         cfg.RoundTime,
		RestTime:          cfg.RestTime,
		DrawerLeavePolicy: cfg.DrawerLeavePolicy,
	}, cfg.WordsFile)

	sessions := service.NewSessionRegistry()
	bc := service.NewBroadcaster(sessions, roomSvc)
	dispatcher := service.NewDispatcher(roomSvc, sessions, bc)

	appState := state.NewAppState(cfg, roomSvc, sessions, dispatcher)

	// 启动回合定时驱动器
	service.NewRoundTicker(dispatcher, roomSvc).Start()

	// 启动服务器
	go tcp.RunServer(appState)
	http.RunServer(appState)
}
