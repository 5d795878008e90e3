package dto

// 房间状态广播中的玩家视图，键为玩家 ID
type PlayerView struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsDrawer bool   `json:"is_drawer"`
}

// 终局排名中的一条记录
type RankEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}
