package protocol

import "encoding/json"

// 客户端发往服务器的消息类型
const (
	MSG_CONNECT         = "connect"
	MSG_DISCONNECT      = "disconnect"
	MSG_CREATE_ROOM     = "create_room"
	MSG_JOIN_ROOM       = "join_room"
	MSG_LIST_ROOMS      = "list_rooms"
	MSG_LEAVE_ROOM      = "leave_room"
	MSG_KICK_PLAYER     = "kick_player"
	MSG_SET_GAME_CONFIG = "set_game_config"
	MSG_START_GAME      = "start_game"
	MSG_NEXT_ROUND      = "next_round"
	MSG_END_GAME        = "end_game"
	MSG_GUESS           = "guess"
	MSG_GIVE_SCORE      = "give_score"
	MSG_DRAW            = "draw"
	MSG_CHAT            = "chat"
)

// 服务器发往客户端的消息类型
const (
	MSG_ACK          = "ack"
	MSG_ERROR        = "error"
	MSG_ROOM_UPDATE  = "room_update"
	MSG_ROOMS_UPDATE = "rooms_update"
	MSG_EVENT        = "event"
	MSG_DRAW_SYNC    = "draw_sync"
	MSG_GAME_RESULT  = "game_result"
	MSG_ROUND_END    = "round_end"
)

// Request 是一条入站消息，data 延迟解析
type Request struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response 是一条出站消息
type Response struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
