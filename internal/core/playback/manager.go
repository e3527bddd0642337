package playback

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gowvp/lynx/internal/core/timeline"
)

// Manager 播放会话管理器
// 每个观看端持有独立会话，互不共享游标
type Manager struct {
	media MediaProvider

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(media MediaProvider) *Manager {
	return &Manager{
		media:    media,
		sessions: make(map[string]*Session),
	}
}

// Create 为一条时间轴新建会话
func (m *Manager) Create(cameraID string, tl *timeline.Timeline, opts ...SessionOption) *Session {
	s := NewSession(uuid.NewString(), cameraID, tl, m.media, opts...)
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s
}

// Get 按会话 ID 查找
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove 关闭并释放会话
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len 当前存活会话数
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
