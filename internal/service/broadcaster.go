package service

import (
	"draw-guess-be/internal/protocol"
	"draw-guess-be/internal/service/dto"
)

// Broadcaster 负责把消息扇出到房间内或全部会话
// 广播载荷在持有房间锁时构建，实际写入由各会话的写协程完成
type Broadcaster struct {
	sessions *SessionRegistry
	rooms    *RoomService
}

func NewBroadcaster(sessions *SessionRegistry, rooms *RoomService) *Broadcaster {
	return &Broadcaster{
		sessions: sessions,
		rooms:    rooms,
	}
}

// BroadcastRoom 向房间内所有会话投递同一条消息
// exclude 非空时跳过该会话（用于避免回显发送者自己的动作）
func (bc *Broadcaster) BroadcastRoom(roomID string, resp protocol.Response, exclude *Session) {
	for _, sess := range bc.sessions.InRoom(roomID) {
		if exclude != nil && sess.ID == exclude.ID {
			continue
		}
		sess.Send(resp)
	}
}

// BroadcastRoomState 向房间内每个会话发送按接收者构建的状态视图
// 不能共用同一份载荷，否则词语会泄露给猜词者
func (bc *Broadcaster) BroadcastRoomState(roomID string) {
	room, ok := bc.rooms.GetRoom(roomID)
	if !ok {
		return
	}

	for _, sess := range bc.sessions.InRoom(roomID) {
		view := room.ViewFor(sess.PlayerID())
		sess.Send(protocol.Response{
			Type: protocol.MSG_ROOM_UPDATE,
			Data: view,
		})
	}
}

// BroadcastRoomsUpdate 向所有连接推送房间列表
// 客户端无需轮询即可看到房间的创建与人数变化
func (bc *Broadcaster) BroadcastRoomsUpdate() {
	snapshot := bc.rooms.Snapshot()

	resp := protocol.Response{
		Type: protocol.MSG_ROOMS_UPDATE,
		Data: dto.RoomsUpdate{Rooms: snapshot},
	}

	for _, sess := range bc.sessions.All() {
		sess.Send(resp)
	}
}
