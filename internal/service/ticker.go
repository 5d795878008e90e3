package service

import (
	"time"

	"go.uber.org/zap"
)

// RoundTicker 以 1Hz 驱动所有房间的时间推进
// 单个协程顺序遍历，转移的广播与客户端触发的转移走同一路径
type RoundTicker struct {
	dispatcher *Dispatcher
	rooms      *RoomService

	done chan struct{}
}

func NewRoundTicker(dispatcher *Dispatcher, rooms *RoomService) *RoundTicker {
	return &RoundTicker{
		dispatcher: dispatcher,
		rooms:      rooms,
		done:       make(chan struct{}),
	}
}

func (rt *RoundTicker) Start() {
	go rt.run()
}

func (rt *RoundTicker) Stop() {
	close(rt.done)
}

func (rt *RoundTicker) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	zap.L().Info("回合定时驱动器已启动")

	for {
		select {
		case <-rt.done:
			zap.L().Info("回合定时驱动器已停止")
			return
		case now := <-ticker.C:
			for _, room := range rt.rooms.Rooms() {
				rt.dispatcher.AnnounceTransition(room, room.Tick(now))
			}
		}
	}
}
