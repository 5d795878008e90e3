package service

import (
	"encoding/json"
	"fmt"
	"testing"

	"draw-guess-be/internal/protocol"
	"draw-guess-be/internal/service/dto"
	"draw-guess-be/internal/service/game"
)

func newTestEnv() (*Dispatcher, *RoomService, *SessionRegistry) {
	rooms := NewRoomService(game.Config{
		MaxRounds: 3,
		RoundTime: 60,
		RestTime:  10,
	}, "")
	sessions := NewSessionRegistry()
	bc := NewBroadcaster(sessions, rooms)

	return NewDispatcher(rooms, sessions, bc), rooms, sessions
}

func connect(t *testing.T, d *Dispatcher, sessions *SessionRegistry, playerID, name string) *Session {
	t.Helper()

	sess := NewSession()
	sessions.Add(sess)

	data, _ := json.Marshal(dto.ConnectRequest{PlayerID: playerID, Name: name})
	d.Dispatch(sess, protocol.Request{Type: protocol.MSG_CONNECT, Data: data})
	drain(sess)

	return sess
}

// drain 取走会话发送通道中当前积压的所有消息
func drain(sess *Session) []protocol.Response {
	var out []protocol.Response
	for {
		select {
		case resp := <-sess.SendCh():
			out = append(out, resp)
		default:
			return out
		}
	}
}

func findByType(msgs []protocol.Response, msgType string) (protocol.Response, bool) {
	for _, m := range msgs {
		if m.Type == msgType {
			return m, true
		}
	}
	return protocol.Response{}, false
}

func TestCreateRoomRequiresIdentity(t *testing.T) {
	d, _, sessions := newTestEnv()

	sess := NewSession()
	sessions.Add(sess)

	d.Dispatch(sess, protocol.Request{Type: protocol.MSG_CREATE_ROOM})

	msgs := drain(sess)
	errMsg, ok := findByType(msgs, protocol.MSG_ERROR)
	if !ok {
		t.Fatal("未注册身份创建房间应当返回错误")
	}
	if errMsg.Data.(dto.ErrorData).Msg != "Not connected" {
		t.Fatalf("错误内容不符: %v", errMsg.Data)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	d, _, sessions := newTestEnv()

	sess := connect(t, d, sessions, "p1", "Alice")

	data, _ := json.Marshal(dto.JoinRoomRequest{RoomID: "404"})
	d.Dispatch(sess, protocol.Request{Type: protocol.MSG_JOIN_ROOM, Data: data})

	errMsg, ok := findByType(drain(sess), protocol.MSG_ERROR)
	if !ok {
		t.Fatal("加入不存在的房间应当返回错误")
	}
	if errMsg.Data.(dto.ErrorData).Msg != "Room not found" {
		t.Fatalf("错误内容不符: %v", errMsg.Data)
	}
}

func TestRoomsUpdatePushedOnCreate(t *testing.T) {
	d, _, sessions := newTestEnv()

	creator := connect(t, d, sessions, "p1", "Alice")
	observer := connect(t, d, sessions, "p2", "Bob")

	d.Dispatch(creator, protocol.Request{Type: protocol.MSG_CREATE_ROOM})

	// 不在房间内的会话也应收到房间列表推送
	update, ok := findByType(drain(observer), protocol.MSG_ROOMS_UPDATE)
	if !ok {
		t.Fatal("创建房间后未向所有会话推送房间列表")
	}

	rooms := update.Data.(dto.RoomsUpdate).Rooms
	if len(rooms) != 1 || rooms[0].PlayerCount != 1 {
		t.Fatalf("房间列表内容不符: %+v", rooms)
	}
}

func TestKickRequiresOwner(t *testing.T) {
	d, rooms, sessions := newTestEnv()

	owner := connect(t, d, sessions, "p1", "Alice")
	other := connect(t, d, sessions, "p2", "Bob")

	d.Dispatch(owner, protocol.Request{Type: protocol.MSG_CREATE_ROOM})
	drain(owner)

	room := rooms.Rooms()[0]
	joinData, _ := json.Marshal(dto.JoinRoomRequest{RoomID: room.ID})
	d.Dispatch(other, protocol.Request{Type: protocol.MSG_JOIN_ROOM, Data: joinData})
	drain(other)

	kickData, _ := json.Marshal(dto.KickPlayerRequest{PlayerID: "p1"})
	d.Dispatch(other, protocol.Request{Type: protocol.MSG_KICK_PLAYER, Data: kickData})

	errMsg, ok := findByType(drain(other), protocol.MSG_ERROR)
	if !ok {
		t.Fatal("非房主踢人应当返回错误")
	}
	if errMsg.Data.(dto.ErrorData).Msg != "Permission denied" {
		t.Fatalf("错误内容不符: %v", errMsg.Data)
	}
	if !room.HasPlayer("p1") {
		t.Fatal("被拒绝的踢人不应移除玩家")
	}
}

func TestKickedPlayerNotified(t *testing.T) {
	d, rooms, sessions := newTestEnv()

	owner := connect(t, d, sessions, "p1", "Alice")
	target := connect(t, d, sessions, "p2", "Bob")

	d.Dispatch(owner, protocol.Request{Type: protocol.MSG_CREATE_ROOM})
	drain(owner)

	room := rooms.Rooms()[0]
	joinData, _ := json.Marshal(dto.JoinRoomRequest{RoomID: room.ID})
	d.Dispatch(target, protocol.Request{Type: protocol.MSG_JOIN_ROOM, Data: joinData})
	drain(target)

	kickData, _ := json.Marshal(dto.KickPlayerRequest{PlayerID: "p2"})
	d.Dispatch(owner, protocol.Request{Type: protocol.MSG_KICK_PLAYER, Data: kickData})

	ev, ok := findByType(drain(target), protocol.MSG_EVENT)
	if !ok || ev.Data.(dto.Event).Type != protocol.MSG_KICK_PLAYER {
		t.Fatal("被踢玩家未收到通知")
	}
	if target.RoomID() != "" {
		t.Fatal("被踢玩家的会话仍然属于房间")
	}
	if room.HasPlayer("p2") {
		t.Fatal("被踢玩家仍在房间中")
	}
}

func TestLeaveLastPlayerDeletesRoom(t *testing.T) {
	d, rooms, sessions := newTestEnv()

	sess := connect(t, d, sessions, "p1", "Alice")
	d.Dispatch(sess, protocol.Request{Type: protocol.MSG_CREATE_ROOM})
	drain(sess)

	d.Dispatch(sess, protocol.Request{Type: protocol.MSG_LEAVE_ROOM})

	if _, ok := findByType(drain(sess), protocol.MSG_ACK); !ok {
		t.Fatal("离开房间未收到确认")
	}
	if len(rooms.Rooms()) != 0 {
		t.Fatal("最后一人离开后房间未删除")
	}
	if sess.RoomID() != "" {
		t.Fatal("离开后会话仍然属于房间")
	}
}

func TestDisconnectTransfersOwnership(t *testing.T) {
	d, rooms, sessions := newTestEnv()

	owner := connect(t, d, sessions, "p1", "Alice")
	other := connect(t, d, sessions, "p2", "Bob")

	d.Dispatch(owner, protocol.Request{Type: protocol.MSG_CREATE_ROOM})
	drain(owner)

	room := rooms.Rooms()[0]
	joinData, _ := json.Marshal(dto.JoinRoomRequest{RoomID: room.ID})
	d.Dispatch(other, protocol.Request{Type: protocol.MSG_JOIN_ROOM, Data: joinData})
	drain(other)

	d.HandleDisconnect(owner)

	if !room.IsOwner("p2") {
		t.Fatal("房主断开后未移交房主")
	}
	if sessions.Count() != 1 {
		t.Fatalf("断开后会话数不符: %d", sessions.Count())
	}

	update, ok := findByType(drain(other), protocol.MSG_ROOM_UPDATE)
	if !ok {
		t.Fatal("断开后剩余玩家未收到状态更新")
	}
	if _, stays := update.Data.(dto.RoomView).Players["p1"]; stays {
		t.Fatal("断开的玩家仍出现在房间状态中")
	}
}

// startedRoom 搭建一个两人房间并开始游戏，返回绘画者与猜词者的会话及当前词语
func startedRoom(t *testing.T, d *Dispatcher, rooms *RoomService, sessions *SessionRegistry) (drawer, guesser *Session, word string) {
	t.Helper()

	a := connect(t, d, sessions, "p1", "Alice")
	b := connect(t, d, sessions, "p2", "Bob")

	d.Dispatch(a, protocol.Request{Type: protocol.MSG_CREATE_ROOM})
	drain(a)

	room := rooms.Rooms()[0]
	joinData, _ := json.Marshal(dto.JoinRoomRequest{RoomID: room.ID})
	d.Dispatch(b, protocol.Request{Type: protocol.MSG_JOIN_ROOM, Data: joinData})
	drain(a)
	drain(b)

	d.Dispatch(a, protocol.Request{Type: protocol.MSG_START_GAME})

	drawerID, _, _, _ := room.RoundInfo()
	drawer, guesser = a, b
	if drawerID == "p2" {
		drawer, guesser = b, a
	}

	update, ok := findByType(drain(drawer), protocol.MSG_ROOM_UPDATE)
	if !ok {
		t.Fatal("开始游戏后绘画者未收到状态更新")
	}
	word = update.Data.(dto.RoomView).CurrentWord
	if word == "" {
		t.Fatal("绘画者视图中没有当前词语")
	}
	drain(guesser)

	return drawer, guesser, word
}

func TestChatWithCorrectWordNotEchoed(t *testing.T) {
	d, rooms, sessions := newTestEnv()

	drawer, guesser, word := startedRoom(t, d, rooms, sessions)

	chatData, _ := json.Marshal(dto.ChatRequest{Text: word})
	d.Dispatch(guesser, protocol.Request{Type: protocol.MSG_CHAT, Data: chatData})

	for _, sess := range []*Session{drawer, guesser} {
		msgs := drain(sess)

		if _, echoed := findByType(msgs, protocol.MSG_CHAT); echoed {
			t.Fatal("猜中的消息不应进入聊天")
		}

		ev, ok := findByType(msgs, protocol.MSG_EVENT)
		if !ok || ev.Data.(dto.Event).Type != "guess_correct" {
			t.Fatal("猜中后未广播事件")
		}
		if ev.Data.(dto.Event).Word != word {
			t.Fatalf("事件中的词语不符: %v", ev.Data)
		}
	}
}

func TestChatWithWrongWordRelayed(t *testing.T) {
	d, rooms, sessions := newTestEnv()

	drawer, guesser, word := startedRoom(t, d, rooms, sessions)

	chatData, _ := json.Marshal(dto.ChatRequest{Text: word + "!"})
	d.Dispatch(guesser, protocol.Request{Type: protocol.MSG_CHAT, Data: chatData})

	// 普通聊天向房间内所有人转发，包括发送者
	for _, sess := range []*Session{drawer, guesser} {
		chat, ok := findByType(drain(sess), protocol.MSG_CHAT)
		if !ok {
			t.Fatal("普通聊天未转发")
		}
		if chat.Data.(dto.ChatMessage).Text != word+"!" {
			t.Fatalf("聊天内容不符: %v", chat.Data)
		}
	}
}

func TestGuessAckCarriesResult(t *testing.T) {
	d, rooms, sessions := newTestEnv()

	drawer, guesser, word := startedRoom(t, d, rooms, sessions)

	guessData, _ := json.Marshal(dto.GuessRequest{Text: word})
	d.Dispatch(guesser, protocol.Request{Type: protocol.MSG_GUESS, Data: guessData})

	ack, ok := findByType(drain(guesser), protocol.MSG_ACK)
	if !ok {
		t.Fatal("猜词未收到确认")
	}
	a := ack.Data.(dto.Ack)
	if !a.OK || a.Correct == nil || !*a.Correct {
		t.Fatalf("猜中的确认内容不符: %+v", a)
	}

	// 绘画者猜词被拒绝
	drain(drawer)
	d.Dispatch(drawer, protocol.Request{Type: protocol.MSG_GUESS, Data: guessData})

	ack, ok = findByType(drain(drawer), protocol.MSG_ACK)
	if !ok {
		t.Fatal("被拒绝的猜词也应收到确认")
	}
	a = ack.Data.(dto.Ack)
	if a.OK || (a.Correct != nil && *a.Correct) {
		t.Fatalf("被拒绝的确认内容不符: %+v", a)
	}
}

func TestDrawRelayedExcludingSender(t *testing.T) {
	d, rooms, sessions := newTestEnv()

	drawer, guesser, _ := startedRoom(t, d, rooms, sessions)

	drawData := json.RawMessage(`{"stroke":[[1,2],[3,4]]}`)
	d.Dispatch(drawer, protocol.Request{Type: protocol.MSG_DRAW, Data: drawData})

	if _, back := findByType(drain(drawer), protocol.MSG_DRAW_SYNC); back {
		t.Fatal("绘画动作不应回显给发送者")
	}

	sync, ok := findByType(drain(guesser), protocol.MSG_DRAW_SYNC)
	if !ok {
		t.Fatal("绘画动作未转发给房间内其他人")
	}
	ds := sync.Data.(dto.DrawSync)
	if ds.By == "" || string(ds.Data) != string(drawData) {
		t.Fatalf("绘画载荷不符: %+v", ds)
	}
}

func TestUnknownMessageType(t *testing.T) {
	d, _, sessions := newTestEnv()

	sess := connect(t, d, sessions, "p1", "Alice")
	d.Dispatch(sess, protocol.Request{Type: "teleport"})

	errMsg, ok := findByType(drain(sess), protocol.MSG_ERROR)
	if !ok {
		t.Fatal("未知消息类型应当返回错误")
	}
	want := fmt.Sprintf("unknown type: %s", "teleport")
	if errMsg.Data.(dto.ErrorData).Msg != want {
		t.Fatalf("错误内容不符: %v", errMsg.Data)
	}
}
