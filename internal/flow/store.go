package flow

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound 存储中不存在对应记录。
var ErrNotFound = errors.New("flow: record not found")

// Store 两份互相独立的持久化记录：会话状态 和 完成引导后的用户记录。
type Store interface {
	LoadSession(ctx context.Context, sessionID string) (*State, error)
	SaveSession(ctx context.Context, sessionID string, state State) error
	LoadUser(ctx context.Context, sessionID string) (*UserRecord, error)
	SaveUser(ctx context.Context, sessionID string, user UserRecord) error
	// Clear 同时删除两份记录
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore 进程内存储，SESSION_STORE=memory 时使用，也用于测试。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
	users    map[string]UserRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]State),
		users:    make(map[string]UserRecord),
	}
}

func (m *MemoryStore) LoadSession(_ context.Context, sessionID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, sessionID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sessionID] = state
	return nil
}

func (m *MemoryStore) LoadUser(_ context.Context, sessionID string) (*UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) SaveUser(_ context.Context, sessionID string, user UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[sessionID] = user
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	delete(m.users, sessionID)
	return nil
}
