package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"draw-guess-be/internal/service/dto"
)

// 绘画者中途退出时的处理策略
const (
	POLICY_REST       = "rest"
	POLICY_NEXT_ROUND = "next_round"
)

// 时间驱动的状态转移结果
type TickEvent int

const (
	TICK_NONE TickEvent = iota
	TICK_REST_STARTED
	TICK_ROUND_STARTED
	TICK_GAME_ENDED
)

type Player struct {
	ID       string
	Name     string
	Score    int
	IsDrawer bool
	// 加入顺序，用于终局排名的平局处理
	JoinSeq int
}

type Config struct {
	MaxRounds         int
	RoundTime         int // 秒
	RestTime          int // 秒
	DrawerLeavePolicy string
}

// Room 是单个房间的回合状态机
// 所有修改和用于构建广播载荷的读取都由内部互斥锁串行化
// 本身不做任何 I/O
type Room struct {
	mu sync.Mutex

	ID string

	ownerID string
	status  string
	players map[string]*Player
	joinSeq int

	drawerID    string
	roundNumber int
	maxRounds   int
	roundTime   int
	restTime    int

	roundStartTime time.Time
	restStartTime  time.Time

	// 整场游戏的出场顺序，长度为 maxRounds * 开局时的人数
	drawerOrder        []string
	currentDrawerIndex int
	currentWord        string

	words             WordSource
	drawerLeavePolicy string
}

func NewRoom(id string, words WordSource, cfg Config) *Room {
	policy := cfg.DrawerLeavePolicy
	if policy != POLICY_NEXT_ROUND {
		policy = POLICY_REST
	}

	return &Room{
		ID:                id,
		status:            dto.STATUS_WAITING,
		players:           make(map[string]*Player),
		maxRounds:         cfg.MaxRounds,
		roundTime:         cfg.RoundTime,
		restTime:          cfg.RestTime,
		words:             words,
		drawerLeavePolicy: policy,
	}
}

// AddPlayer 添加玩家，重复加入视为成功（幂等）
// 第一个玩家成为房主；若房主缺失则由加入者顶替
func (r *Room) AddPlayer(playerID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[playerID]; ok {
		return
	}

	r.joinSeq++
	r.players[playerID] = &Player{
		ID:      playerID,
		Name:    name,
		JoinSeq: r.joinSeq,
	}

	if r.ownerID == "" {
		r.ownerID = playerID
	}
}

type RemoveResult struct {
	Removed      bool
	Empty        bool
	OwnerChanged bool
	NewOwnerID   string
	DrawerLeft   bool
	// 绘画者中途离开触发的强制状态转移
	Forced TickEvent
}

// RemovePlayer 移除玩家并处理房主移交与绘画者离场
func (r *Room) RemovePlayer(playerID string) RemoveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := RemoveResult{}

	if _, ok := r.players[playerID]; !ok {
		return res
	}

	delete(r.players, playerID)
	res.Removed = true

	if len(r.players) == 0 {
		res.Empty = true
		return res
	}

	if r.ownerID == playerID {
		// 移交给任意一个剩余玩家
		for pid := range r.players {
			r.ownerID = pid
			break
		}
		res.OwnerChanged = true
		res.NewOwnerID = r.ownerID
	}

	if r.drawerID == playerID && r.status == dto.STATUS_PLAYING {
		res.DrawerLeft = true

		if r.drawerLeavePolicy == POLICY_NEXT_ROUND {
			if r.nextRoundLocked(time.Now()) {
				res.Forced = TICK_ROUND_STARTED
			} else {
				res.Forced = TICK_GAME_ENDED
			}
		} else {
			r.startRestLocked(time.Now())
			res.Forced = TICK_REST_STARTED
		}
	}

	return res
}

// SetGameConfig 更新计时参数，非正值保持原样
func (r *Room) SetGameConfig(maxRounds, roundTime, restTime int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if maxRounds > 0 {
		r.maxRounds = maxRounds
	}
	if roundTime > 0 {
		r.roundTime = roundTime
	}
	if restTime > 0 {
		r.restTime = restTime
	}
}

// StartGame 重置所有分数并进入第一回合
// 允许单人开局，便于调试
func (r *Room) StartGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) < 1 {
		return false
	}

	for _, p := range r.players {
		p.Score = 0
		p.IsDrawer = false
	}

	r.roundNumber = 0
	r.currentDrawerIndex = 0
	r.drawerOrder = r.buildDrawerOrderLocked()

	return r.nextRoundLocked(time.Now())
}

// buildDrawerOrderLocked 生成 maxRounds 段相互独立的随机排列
// 同一段内每人恰好出场一次
func (r *Room) buildDrawerOrderLocked() []string {
	ids := make([]string, 0, len(r.players))
	for pid := range r.players {
		ids = append(ids, pid)
	}
	// map 迭代顺序不稳定，先固定基准顺序再洗牌
	sort.Strings(ids)

	order := make([]string, 0, r.maxRounds*len(ids))

	for i := 0; i < r.maxRounds; i++ {
		lap := make([]string, len(ids))
		copy(lap, ids)
		rand.Shuffle(len(lap), func(a, b int) {
			lap[a], lap[b] = lap[b], lap[a]
		})
		order = append(order, lap...)
	}

	return order
}

// nextRoundLocked 推进到下一回合
// 超过总轮数或顺位表耗尽时结束游戏并返回 false
func (r *Room) nextRoundLocked(now time.Time) bool {
	r.roundNumber++
	if r.roundNumber > r.maxRounds {
		r.endGameLocked()
		return false
	}

	for r.currentDrawerIndex < len(r.drawerOrder) {
		pid := r.drawerOrder[r.currentDrawerIndex]
		r.currentDrawerIndex++

		// 跳过已经离开房间的玩家
		if _, ok := r.players[pid]; !ok {
			continue
		}

		r.drawerID = pid
		for id, p := range r.players {
			p.IsDrawer = id == pid
		}

		r.currentWord = r.words.NextWord()
		r.roundStartTime = now
		r.restStartTime = time.Time{}
		r.status = dto.STATUS_PLAYING

		return true
	}

	r.endGameLocked()
	return false
}

// startRestLocked 进入休息阶段
// 必须立刻清除词语和绘画者，休息期间任何人都不能再看到答案
func (r *Room) startRestLocked(now time.Time) {
	r.status = dto.STATUS_RESTING
	r.restStartTime = now
	r.currentWord = ""
	r.drawerID = ""
	for _, p := range r.players {
		p.IsDrawer = false
	}
}

func (r *Room) endGameLocked() {
	r.status = dto.STATUS_ENDED
	r.drawerID = ""
	r.currentWord = ""
	for _, p := range r.players {
		p.IsDrawer = false
	}
}

// EndGame 由房主提前终止对局
func (r *Room) EndGame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endGameLocked()
}

// ForceNextRound 由客户端请求推进回合，返回对应的转移结果
func (r *Room) ForceNextRound() TickEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nextRoundLocked(time.Now()) {
		return TICK_ROUND_STARTED
	}

	return TICK_GAME_ENDED
}

// Tick 由定时驱动器约每秒调用一次，推进时间相关的状态转移
func (r *Room) Tick(now time.Time) TickEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status {
	case dto.STATUS_PLAYING:
		if now.Sub(r.roundStartTime) >= time.Duration(r.roundTime)*time.Second {
			r.startRestLocked(now)
			return TICK_REST_STARTED
		}

	case dto.STATUS_RESTING:
		if now.Sub(r.restStartTime) >= time.Duration(r.restTime)*time.Second {
			if r.nextRoundLocked(now) {
				return TICK_ROUND_STARTED
			}
			return TICK_GAME_ENDED
		}
	}

	return TICK_NONE
}

// 猜词结果
type GuessResult int

const (
	// 非游戏阶段、绘画者本人或不在房间内，猜词被拒绝
	GUESS_REJECTED GuessResult = iota
	GUESS_WRONG
	GUESS_CORRECT
)

// SubmitGuess 提交猜词，精确匹配（区分大小写）
// 猜中者 +10，绘画者 +5；被拒绝的猜词不产生任何状态变化
func (r *Room) SubmitGuess(playerID, text string) (GuessResult, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != dto.STATUS_PLAYING || playerID == r.drawerID {
		return GUESS_REJECTED, ""
	}

	guesser, ok := r.players[playerID]
	if !ok {
		return GUESS_REJECTED, ""
	}

	if text != r.currentWord {
		return GUESS_WRONG, ""
	}

	guesser.Score += 10
	if drawer, ok := r.players[r.drawerID]; ok {
		drawer.Score += 5
	}

	return GUESS_CORRECT, r.currentWord
}

// GiveScore 绘画者手动给某玩家加分
func (r *Room) GiveScore(requesterID, targetID string, score int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.drawerID == "" || r.drawerID != requesterID {
		return false
	}

	target, ok := r.players[targetID]
	if !ok {
		return false
	}

	target.Score += score
	return true
}

func (r *Room) IsOwner(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ownerID != "" && r.ownerID == playerID
}

func (r *Room) IsDrawer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.drawerID != "" && r.drawerID == playerID
}

func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.players[playerID]
	return ok
}

func (r *Room) PlayerName(playerID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[playerID]; ok {
		return p.Name
	}

	return ""
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.players)
}

func (r *Room) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

// RoundInfo 返回当前回合的概要，用于填充事件通知
func (r *Room) RoundInfo() (drawerID, drawerName string, roundNumber, maxRounds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[r.drawerID]; ok {
		drawerName = p.Name
	}

	return r.drawerID, drawerName, r.roundNumber, r.maxRounds
}

func (r *Room) DrawerOrder() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	order := make([]string, len(r.drawerOrder))
	copy(order, r.drawerOrder)
	return order
}

// ViewFor 构建发给指定接收者的房间状态视图
// 只有进行中的对局里绘画者本人能看到当前词语
func (r *Room) ViewFor(recipientID string) dto.RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make(map[string]dto.PlayerView, len(r.players))
	for pid, p := range r.players {
		players[pid] = dto.PlayerView{
			Name:     p.Name,
			Score:    p.Score,
			IsDrawer: p.IsDrawer,
		}
	}

	view := dto.RoomView{
		RoomID:      r.ID,
		OwnerID:     r.ownerID,
		Status:      r.status,
		Players:     players,
		DrawerID:    r.drawerID,
		RoundNumber: r.roundNumber,
		MaxRounds:   r.maxRounds,
		RoundTime:   r.roundTime,
		RestTime:    r.restTime,
	}

	if r.status == dto.STATUS_PLAYING && recipientID == r.drawerID {
		view.CurrentWord = r.currentWord
	}

	return view
}

func (r *Room) Summary() dto.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return dto.RoomSummary{
		RoomID:      r.ID,
		PlayerCount: len(r.players),
		Status:      r.status,
	}
}

// Ranking 按分数降序排名，同分按加入顺序
func (r *Room) Ranking() []dto.RankEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}

	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].JoinSeq < players[j].JoinSeq
	})

	ranking := make([]dto.RankEntry, 0, len(players))
	for _, p := range players {
		ranking = append(ranking, dto.RankEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
		})
	}

	return ranking
}
