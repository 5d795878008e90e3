package service

import (
	"sort"
	"strconv"
	"sync"

	"draw-guess-be/internal/service/dto"
	"draw-guess-be/internal/service/game"

	"go.uber.org/zap"
)

// RoomService 是房间注册表，唯一决定哪些房间存在
// 注册表自身的锁与各房间内部的锁相互独立
type RoomService struct {
	mu    sync.RWMutex
	rooms map[string]*game.Room
	// 单调递增的房间号，删除后不复用
	nextID int

	defaults game.Config
	words    []string
}

func NewRoomService(defaults game.Config, wordsFile string) *RoomService {
	return &RoomService{
		rooms:    make(map[string]*game.Room),
		defaults: defaults,
		words:    game.LoadWords(wordsFile),
	}
}

// CreateRoom 总是成功，每个房间持有独立的词语来源
func (rs *RoomService) CreateRoom() *game.Room {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.nextID++
	roomID := strconv.Itoa(rs.nextID)

	room := game.NewRoom(roomID, game.NewWordList(rs.words), rs.defaults)
	rs.rooms[roomID] = room

	zap.L().Info("房间已创建", zap.String("room_id", roomID))

	return room
}

func (rs *RoomService) GetRoom(roomID string) (*game.Room, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	room, ok := rs.rooms[roomID]
	return room, ok
}

// DeleteRoom 将房间从注册表移除，此后任何查找都不再命中
func (rs *RoomService) DeleteRoom(roomID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, ok := rs.rooms[roomID]; !ok {
		return
	}

	delete(rs.rooms, roomID)

	zap.L().Info("房间已删除", zap.String("room_id", roomID))
}

// Rooms 返回当前房间的快照，供定时驱动器遍历
func (rs *RoomService) Rooms() []*game.Room {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	rooms := make([]*game.Room, 0, len(rs.rooms))
	for _, r := range rs.rooms {
		rooms = append(rooms, r)
	}

	return rooms
}

// Snapshot 构建某一时刻的房间列表
func (rs *RoomService) Snapshot() []dto.RoomSummary {
	rooms := rs.Rooms()

	summaries := make([]dto.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		summaries = append(summaries, r.Summary())
	}

	// 按房间号数值排序，保持列表稳定
	sort.Slice(summaries, func(i, j int) bool {
		a, _ := strconv.Atoi(summaries[i].RoomID)
		b, _ := strconv.Atoi(summaries[j].RoomID)
		return a < b
	})

	return summaries
}
