package dto

// 房间状态
const (
	STATUS_WAITING = "waiting"
	STATUS_PLAYING = "playing"
	STATUS_RESTING = "resting"
	STATUS_ENDED   = "ended"
)

// RoomView 是按接收者构建的房间状态视图
// current_word 只有在对局进行中且接收者为绘画者时才会出现
type RoomView struct {
	RoomID      string                `json:"room_id"`
	OwnerID     string                `json:"owner_id,omitempty"`
	Status      string                `json:"status"`
	Players     map[string]PlayerView `json:"players"`
	DrawerID    string                `json:"drawer_id,omitempty"`
	RoundNumber int                   `json:"round_number"`
	MaxRounds   int                   `json:"max_rounds"`
	RoundTime   int                   `json:"round_time"`
	RestTime    int                   `json:"rest_time"`
	CurrentWord string                `json:"current_word,omitempty"`
}

// RoomSummary 是房间列表中的一项
type RoomSummary struct {
	RoomID      string `json:"room_id"`
	PlayerCount int    `json:"player_count"`
	Status      string `json:"status"`
}

type RoomsUpdate struct {
	Rooms []RoomSummary `json:"rooms"`
}

type GameResult struct {
	Ranking []RankEntry `json:"ranking"`
}
