package dto

import "encoding/json"

// 客户端请求载荷

type ConnectRequest struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type JoinRoomRequest struct {
	RoomID string `json:"room_id"`
}

type KickPlayerRequest struct {
	PlayerID string `json:"player_id"`
}

// 三个字段均为可选，零值或负数表示不修改
type SetGameConfigRequest struct {
	MaxRounds int `json:"max_rounds"`
	RoundTime int `json:"round_time"`
	RestTime  int `json:"rest_time"`
}

type GuessRequest struct {
	Text string `json:"text"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

type GiveScoreRequest struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

// 服务端响应载荷

// Ack 回应一条客户端请求，event 为被回应的请求类型
type Ack struct {
	Event   string        `json:"event"`
	OK      bool          `json:"ok"`
	RoomID  string        `json:"room_id,omitempty"`
	Rooms   []RoomSummary `json:"rooms,omitempty"`
	Correct *bool         `json:"correct,omitempty"`
}

type ErrorData struct {
	Msg string `json:"msg"`
}

// 游戏生命周期事件通知
// 除 type 外均为可选字段，按事件种类填充
type Event struct {
	Type        string   `json:"type"`
	OK          bool     `json:"ok,omitempty"`
	RoomID      string   `json:"room_id,omitempty"`
	PlayerID    string   `json:"player_id,omitempty"`
	PlayerName  string   `json:"player_name,omitempty"`
	DrawerID    string   `json:"drawer_id,omitempty"`
	DrawerName  string   `json:"drawer_name,omitempty"`
	DrawerOrder []string `json:"drawer_order,omitempty"`
	RoundNumber int      `json:"round_number,omitempty"`
	MaxRounds   int      `json:"max_rounds,omitempty"`
	Word        string   `json:"word,omitempty"`
	Score       int      `json:"score,omitempty"`
}

type ChatMessage struct {
	By     string `json:"by"`
	ByName string `json:"by_name"`
	Text   string `json:"text"`
}

// 绘画动作原样转发，服务器不解析其内容
type DrawSync struct {
	By   string          `json:"by"`
	Data json.RawMessage `json:"data"`
}
