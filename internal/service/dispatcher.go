package service

import (
	"encoding/json"
	"fmt"

	"draw-guess-be/internal/protocol"
	"draw-guess-be/internal/service/dto"
	"draw-guess-be/internal/service/game"

	"go.uber.org/zap"
)

// Dispatcher 接收解码后的消息及其来源会话，做鉴权后
// 调用房间/注册表并决定回复与广播
// 所有错误都转化为对请求者的回复，不影响其他会话
type Dispatcher struct {
	rooms    *RoomService
	sessions *SessionRegistry
	bc       *Broadcaster
}

func NewDispatcher(rooms *RoomService, sessions *SessionRegistry, bc *Broadcaster) *Dispatcher {
	return &Dispatcher{
		rooms:    rooms,
		sessions: sessions,
		bc:       bc,
	}
}

// Dispatch 按消息类型路由一条入站消息
func (d *Dispatcher) Dispatch(sess *Session, req protocol.Request) {
	playerID, playerName := sess.Identity()

	zap.L().Debug(
		"收到消息",
		zap.String("type", req.Type),
		zap.String("player_id", playerID),
		zap.String("player_name", playerName),
	)

	switch req.Type {
	case protocol.MSG_CONNECT:
		d.handleConnect(sess, req)
	case protocol.MSG_CREATE_ROOM:
		d.handleCreateRoom(sess)
	case protocol.MSG_LIST_ROOMS:
		d.handleListRooms(sess)
	case protocol.MSG_JOIN_ROOM:
		d.handleJoinRoom(sess, req)
	case protocol.MSG_LEAVE_ROOM:
		d.handleLeaveRoom(sess)
	case protocol.MSG_KICK_PLAYER:
		d.handleKickPlayer(sess, req)
	case protocol.MSG_SET_GAME_CONFIG:
		d.handleSetGameConfig(sess, req)
	case protocol.MSG_START_GAME:
		d.handleStartGame(sess)
	case protocol.MSG_NEXT_ROUND:
		d.handleNextRound(sess)
	case protocol.MSG_END_GAME:
		d.handleEndGame(sess)
	case protocol.MSG_GUESS:
		d.handleGuess(sess, req)
	case protocol.MSG_GIVE_SCORE:
		d.handleGiveScore(sess, req)
	case protocol.MSG_DRAW:
		d.handleDraw(sess, req)
	case protocol.MSG_CHAT:
		d.handleChat(sess, req)
	case protocol.MSG_DISCONNECT:
		d.HandleDisconnect(sess)
	default:
		d.sendError(sess, fmt.Sprintf("unknown type: %s", req.Type))
	}
}

// HandleDisconnect 是断连清理路径
// 读写失败与主动断开走完全相同的流程，可重复调用
func (d *Dispatcher) HandleDisconnect(sess *Session) {
	playerID, _ := sess.Identity()

	if roomID := sess.RoomID(); roomID != "" {
		if room, ok := d.rooms.GetRoom(roomID); ok && playerID != "" {
			res := room.RemovePlayer(playerID)
			d.afterRemoval(room, res)
		}
		sess.SetRoomID("")
	}

	d.sessions.Remove(sess.ID)
	sess.Close()

	zap.L().Info(
		"会话已清理",
		zap.String("session_id", sess.ID),
		zap.String("player_id", playerID),
	)
}

func (d *Dispatcher) handleConnect(sess *Session, req protocol.Request) {
	var data dto.ConnectRequest
	if req.Data != nil {
		if err := json.Unmarshal(req.Data, &data); err != nil {
			d.sendError(sess, "Invalid connect data")
			return
		}
	}

	// 客户端自报身份，服务器不做任何校验
	playerID := data.PlayerID
	if playerID == "" {
		playerID = game.GenID()
	}

	name := data.Name
	if name == "" {
		suffix := playerID
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		name = "Player-" + suffix
	}

	sess.SetIdentity(playerID, name)

	zap.L().Info(
		"玩家注册身份",
		zap.String("player_id", playerID),
		zap.String("name", name),
	)

	d.sendAck(sess, dto.Ack{Event: protocol.MSG_CONNECT, OK: true})
}

func (d *Dispatcher) handleCreateRoom(sess *Session) {
	playerID, playerName := sess.Identity()
	if playerID == "" {
		d.sendError(sess, "Not connected")
		return
	}

	room := d.rooms.CreateRoom()
	room.AddPlayer(playerID, playerName)
	sess.SetRoomID(room.ID)

	zap.L().Info(
		"玩家创建房间",
		zap.String("room_id", room.ID),
		zap.String("player_id", playerID),
	)

	d.sendAck(sess, dto.Ack{Event: protocol.MSG_CREATE_ROOM, OK: true, RoomID: room.ID})
	d.bc.BroadcastRoomState(room.ID)
	d.bc.BroadcastRoomsUpdate()
}

func (d *Dispatcher) handleListRooms(sess *Session) {
	d.sendAck(sess, dto.Ack{
		Event: protocol.MSG_LIST_ROOMS,
		OK:    true,
		Rooms: d.rooms.Snapshot(),
	})
}

func (d *Dispatcher) handleJoinRoom(sess *Session, req protocol.Request) {
	playerID, playerName := sess.Identity()
	if playerID == "" {
		d.sendError(sess, "Not connected")
		return
	}

	var data dto.JoinRoomRequest
	if err := json.Unmarshal(req.Data, &data); err != nil {
		d.sendError(sess, "Invalid join data")
		return
	}

	room, ok := d.rooms.GetRoom(data.RoomID)
	if !ok {
		d.sendError(sess, "Room not found")
		return
	}

	// 重复加入幂等；房主缺失时由加入者顶替
	room.AddPlayer(playerID, playerName)
	sess.SetRoomID(room.ID)

	zap.L().Info(
		"玩家加入房间",
		zap.String("room_id", room.ID),
		zap.String("player_id", playerID),
	)

	d.sendAck(sess, dto.Ack{Event: protocol.MSG_JOIN_ROOM, OK: true, RoomID: room.ID})
	d.bc.BroadcastRoomState(room.ID)
	d.bc.BroadcastRoomsUpdate()
}

func (d *Dispatcher) handleLeaveRoom(sess *Session) {
	playerID, _ := sess.Identity()

	if roomID := sess.RoomID(); roomID != "" {
		if room, ok := d.rooms.GetRoom(roomID); ok && playerID != "" {
			res := room.RemovePlayer(playerID)
			d.afterRemoval(room, res)
		}
		sess.SetRoomID("")
	}

	d.sendAck(sess, dto.Ack{Event: protocol.MSG_LEAVE_ROOM, OK: true})
}

func (d *Dispatcher) handleKickPlayer(sess *Session, req protocol.Request) {
	playerID, _ := sess.Identity()

	room, ok := d.currentRoom(sess)
	if !ok {
		d.sendError(sess, "Room not found")
		return
	}

	if !room.IsOwner(playerID) {
		d.sendError(sess, "Permission denied")
		return
	}

	var data dto.KickPlayerRequest
	if err := json.Unmarshal(req.Data, &data); err != nil {
		d.sendError(sess, "Invalid kick data")
		return
	}

	if !room.HasPlayer(data.PlayerID) {
		return
	}

	res := room.RemovePlayer(data.PlayerID)
	d.afterRemoval(room, res)

	zap.L().Info(
		"玩家被踢出房间",
		zap.String("room_id", room.ID),
		zap.String("target_id", data.PlayerID),
		zap.String("by", playerID),
	)

	// 被踢者的会话清除房间归属并收到专门的通知
	if target := d.sessions.FindByPlayerID(data.PlayerID); target != nil {
		target.SetRoomID("")
		target.Send(protocol.Response{
			Type: protocol.MSG_EVENT,
			Data: dto.Event{Type: protocol.MSG_KICK_PLAYER, RoomID: room.ID},
		})
	}
}

func (d *Dispatcher) handleSetGameConfig(sess *Session, req protocol.Request) {
	playerID, _ := sess.Identity()

	room, ok := d.currentRoom(sess)
	if !ok {
		d.sendError(sess, "Room not found")
		return
	}

	if !room.IsOwner(playerID) {
		d.sendError(sess, "Permission denied")
		return
	}

	var data dto.SetGameConfigRequest
	if err := json.Unmarshal(req.Data, &data); err != nil {
		d.sendError(sess, "Invalid config")
		return
	}

	room.SetGameConfig(data.MaxRounds, data.RoundTime, data.RestTime)

	d.sendAck(sess, dto.Ack{Event: protocol.MSG_SET_GAME_CONFIG, OK: true})
	d.bc.BroadcastRoomState(room.ID)
}

func (d *Dispatcher) handleStartGame(sess *Session) {
	playerID, _ := sess.Identity()

	room, ok := d.currentRoom(sess)
	if !ok {
		d.sendError(sess, "Room not found")
		return
	}

	if !room.IsOwner(playerID) {
		d.sendError(sess, "Permission denied")
		return
	}

	if !room.StartGame() {
		d.sendError(sess, "Cannot start game with no players")
		return
	}

	drawerID, drawerName, roundNumber, maxRounds := room.RoundInfo()

	zap.L().Info(
		"游戏开始",
		zap.String("room_id", room.ID),
		zap.String("drawer_id", drawerID),
		zap.Int("max_rounds", maxRounds),
	)

	d.bc.BroadcastRoomState(room.ID)
	d.bc.BroadcastRoom(room.ID, protocol.Response{
		Type: protocol.MSG_EVENT,
		Data: dto.Event{
			Type:        protocol.MSG_START_GAME,
			OK:          true,
			DrawerID:    drawerID,
			DrawerName:  drawerName,
			DrawerOrder: room.DrawerOrder(),
			RoundNumber: roundNumber,
			MaxRounds:   maxRounds,
		},
	}, nil)
}

func (d *Dispatcher) handleNextRound(sess *Session) {
	playerID, _ := sess.Identity()

	room, ok := d.currentRoom(sess)
	if !ok {
		d.sendError(sess, "Room not found")
		return
	}

	// 房主或当前绘画者可以提前结束本回合
	if !room.IsOwner(playerID) && !room.IsDrawer(playerID) {
		d.sendError(sess, "Permission denied")
		return
	}

	d.AnnounceTransition(room, room.ForceNextRound())
}

func (d *Dispatcher) handleEndGame(sess *Session) {
	playerID, _ := sess.Identity()

	room, ok := d.currentRoom(sess)
	if !ok {
		d.sendError(sess, "Room not found")
		return
	}

	if !room.IsOwner(playerID) {
		d.sendError(sess, "Permission denied")
		return
	}

	room.EndGame()
	d.AnnounceTransition(room, game.TICK_GAME_ENDED)
}

func (d *Dispatcher) handleGuess(sess *Session, req protocol.Request) {
	playerID, playerName := sess.Identity()

	room, ok := d.currentRoom(sess)
	if !ok {
		d.sendError(sess, "Room not found")
		return
	}

	var data dto.GuessRequest
	if err := json.Unmarshal(req.Data, &data); err != nil {
		d.sendError(sess, "Invalid guess data")
		return
	}

	result, word := room.SubmitGuess(playerID, data.Text)

	correct := result == game.GUESS_CORRECT
	d.sendAck(sess, dto.Ack{
		Event:   protocol.MSG_GUESS,
		OK:      result != game.GUESS_REJECTED,
		Correct: &correct,
	})

	if correct {
		d.announceCorrectGuess(room, playerID, playerName, word)
	}
}

func (d *Dispatcher) handleGiveScore(sess *Session, req protocol.Request) {
	playerID, _ := sess.Identity()

	room, ok := d.currentRoom(sess)
	if !ok {
		d.sendError(sess, "Room not found")
		return
	}

	var data dto.GiveScoreRequest
	if err := json.Unmarshal(req.Data, &data); err != nil {
		d.sendError(sess, "Invalid score data")
		return
	}

	if !room.GiveScore(playerID, data.PlayerID, data.Score) {
		d.sendError(sess, "Permission denied")
		return
	}

	d.bc.BroadcastRoomState(room.ID)
	d.bc.BroadcastRoom(room.ID, protocol.Response{
		Type: protocol.MSG_EVENT,
		Data: dto.Event{
			Type:       protocol.MSG_GIVE_SCORE,
			PlayerID:   data.PlayerID,
			PlayerName: room.PlayerName(data.PlayerID),
			Score:      data.Score,
		},
	}, nil)
}

func (d *Dispatcher) handleDraw(sess *Session, req protocol.Request) {
	playerID, _ := sess.Identity()

	roomID := sess.RoomID()
	if roomID == "" {
		return
	}

	// 绘画动作不做解析，排除发送者原样转发
	d.bc.BroadcastRoom(roomID, protocol.Response{
		Type: protocol.MSG_DRAW_SYNC,
		Data: dto.DrawSync{By: playerID, Data: req.Data},
	}, sess)
}

func (d *Dispatcher) handleChat(sess *Session, req protocol.Request) {
	playerID, playerName := sess.Identity()

	room, ok := d.currentRoom(sess)
	if !ok {
		return
	}

	var data dto.ChatRequest
	if err := json.Unmarshal(req.Data, &data); err != nil {
		return
	}

	// 游戏进行中聊天内容即是猜词
	// 猜对的消息绝不进入聊天，避免把答案泄露给其他人
	if result, word := room.SubmitGuess(playerID, data.Text); result == game.GUESS_CORRECT {
		d.announceCorrectGuess(room, playerID, playerName, word)
		return
	}

	d.bc.BroadcastRoom(room.ID, protocol.Response{
		Type: protocol.MSG_CHAT,
		Data: dto.ChatMessage{By: playerID, ByName: playerName, Text: data.Text},
	}, nil)
}

// announceCorrectGuess 广播猜中事件与更新后的分数
func (d *Dispatcher) announceCorrectGuess(room *game.Room, playerID, playerName, word string) {
	zap.L().Info(
		"玩家猜中词语",
		zap.String("room_id", room.ID),
		zap.String("player_id", playerID),
	)

	d.bc.BroadcastRoomState(room.ID)
	d.bc.BroadcastRoom(room.ID, protocol.Response{
		Type: protocol.MSG_EVENT,
		Data: dto.Event{
			Type:       "guess_correct",
			PlayerID:   playerID,
			PlayerName: playerName,
			Word:       word,
		},
	}, nil)
}

// AnnounceTransition 把一次状态转移的结果广播给房间
// 定时驱动器与客户端触发的转移共用此路径
func (d *Dispatcher) AnnounceTransition(room *game.Room, ev game.TickEvent) {
	switch ev {
	case game.TICK_REST_STARTED:
		_, _, roundNumber, maxRounds := room.RoundInfo()

		d.bc.BroadcastRoomState(room.ID)
		d.bc.BroadcastRoom(room.ID, protocol.Response{
			Type: protocol.MSG_EVENT,
			Data: dto.Event{
				Type:        protocol.MSG_ROUND_END,
				RoundNumber: roundNumber,
				MaxRounds:   maxRounds,
			},
		}, nil)

	case game.TICK_ROUND_STARTED:
		drawerID, drawerName, roundNumber, maxRounds := room.RoundInfo()

		d.bc.BroadcastRoomState(room.ID)
		d.bc.BroadcastRoom(room.ID, protocol.Response{
			Type: protocol.MSG_EVENT,
			Data: dto.Event{
				Type:        protocol.MSG_NEXT_ROUND,
				OK:          true,
				DrawerID:    drawerID,
				DrawerName:  drawerName,
				RoundNumber: roundNumber,
				MaxRounds:   maxRounds,
			},
		}, nil)

	case game.TICK_GAME_ENDED:
		zap.L().Info("游戏结束", zap.String("room_id", room.ID))

		d.bc.BroadcastRoom(room.ID, protocol.Response{
			Type: protocol.MSG_GAME_RESULT,
			Data: dto.GameResult{Ranking: room.Ranking()},
		}, nil)
		d.bc.BroadcastRoom(room.ID, protocol.Response{
			Type: protocol.MSG_EVENT,
			Data: dto.Event{Type: protocol.MSG_END_GAME, OK: true},
		}, nil)
		d.bc.BroadcastRoomState(room.ID)
	}
}

// afterRemoval 在移除玩家后统一处理房间删除与广播
func (d *Dispatcher) afterRemoval(room *game.Room, res game.RemoveResult) {
	if !res.Removed {
		return
	}

	if res.Empty {
		// 最后一个玩家离开，房间随之消亡
		d.rooms.DeleteRoom(room.ID)
		d.bc.BroadcastRoomsUpdate()
		return
	}

	d.bc.BroadcastRoomState(room.ID)
	d.AnnounceTransition(room, res.Forced)
	d.bc.BroadcastRoomsUpdate()
}

func (d *Dispatcher) currentRoom(sess *Session) (*game.Room, bool) {
	roomID := sess.RoomID()
	if roomID == "" {
		return nil, false
	}

	return d.rooms.GetRoom(roomID)
}

func (d *Dispatcher) sendAck(sess *Session, ack dto.Ack) {
	sess.Send(protocol.Response{Type: protocol.MSG_ACK, Data: ack})
}

func (d *Dispatcher) sendError(sess *Session, msg string) {
	sess.Send(protocol.Response{
		Type: protocol.MSG_ERROR,
		Data: dto.ErrorData{Msg: msg},
	})
}
