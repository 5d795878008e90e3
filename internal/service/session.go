package service

import (
	"sync"

	"draw-guess-be/internal/protocol"
	"draw-guess-be/internal/service/game"

	"go.uber.org/zap"
)

// Session 绑定一条存活连接与至多一个 (玩家, 房间) 身份
// 出站消息经带缓冲的发送通道交给传输层的写协程
// 房间锁因此不会跨网络写入持有
type Session struct {
	ID string

	mu         sync.Mutex
	playerID   string
	playerName string
	roomID     string

	sendCh    chan protocol.Response
	closed    chan struct{}
	closeOnce sync.Once
}

func NewSession() *Session {
	return &Session{
		ID:     game.GenID(),
		sendCh: make(chan protocol.Response, 64),
		closed: make(chan struct{}),
	}
}

func (s *Session) SetIdentity(playerID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playerID = playerID
	s.playerName = name
}

func (s *Session) Identity() (playerID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.playerID, s.playerName
}

func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.playerID
}

func (s *Session) SetRoomID(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roomID = roomID
}

func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roomID
}

// Send 非阻塞投递一条出站消息
// 通道已满说明对端消费过慢，直接丢弃，由状态重广播兜底
func (s *Session) Send(resp protocol.Response) bool {
	select {
	case <-s.closed:
		return false
	case s.sendCh <- resp:
		return true
	default:
		zap.L().Warn(
			"发送消息失败：会话发送通道已满",
			zap.String("session_id", s.ID),
			zap.String("type", resp.Type),
		)
		return false
	}
}

// SendCh 供传输层写协程消费
func (s *Session) SendCh() <-chan protocol.Response {
	return s.sendCh
}

// Done 在会话关闭后可读
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

// SessionRegistry 管理所有存活会话
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
	}
}

func (sr *SessionRegistry) Add(sess *Session) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sr.sessions[sess.ID] = sess
}

func (sr *SessionRegistry) Remove(sessionID string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	delete(sr.sessions, sessionID)
}

func (sr *SessionRegistry) Count() int {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	return len(sr.sessions)
}

// All 返回当前会话的快照
func (sr *SessionRegistry) All() []*Session {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	all := make([]*Session, 0, len(sr.sessions))
	for _, s := range sr.sessions {
		all = append(all, s)
	}

	return all
}

// InRoom 返回当前属于指定房间的会话快照
func (sr *SessionRegistry) InRoom(roomID string) []*Session {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	var in []*Session
	for _, s := range sr.sessions {
		if s.RoomID() == roomID {
			in = append(in, s)
		}
	}

	return in
}

// FindByPlayerID 按玩家 ID 查找会话，未找到返回 nil
func (sr *SessionRegistry) FindByPlayerID(playerID string) *Session {
	if playerID == "" {
		return nil
	}

	sr.mu.RLock()
	defer sr.mu.RUnlock()

	for _, s := range sr.sessions {
		if s.PlayerID() == playerID {
			return s
		}
	}

	return nil
}
