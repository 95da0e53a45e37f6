package session

import (
	"context"
	"sync"
)

type chatState struct {
	role Role
	menu Menu
}

type memoryStore struct {
	opts options

	mu      sync.RWMutex
	chats   map[int64]chatState
	pending map[int64]Pending
}

// NewMemoryStore returns an in-process Store. State is lost on restart.
func NewMemoryStore(opts ...Option) Store {
	return &memoryStore{
		opts:    buildOptions(opts),
		chats:   make(map[int64]chatState),
		pending: make(map[int64]Pending),
	}
}

func (m *memoryStore) Role(_ context.Context, chatID int64) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chats[chatID].role, nil
}

func (m *memoryStore) SetRole(_ context.Context, chatID int64, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.chats[chatID]
	st.role = role
	m.chats[chatID] = st
	return nil
}

func (m *memoryStore) Menu(_ context.Context, chatID int64) (Menu, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chats[chatID].menu, nil
}

func (m *memoryStore) SetMenu(_ context.Context, chatID int64, menu Menu) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.chats[chatID]
	st.menu = menu
	m.chats[chatID] = st
	return nil
}

func (m *memoryStore) SetPending(_ context.Context, userID int64, p Pending) error {
	if p.SetAt.IsZero() {
		p.SetAt = m.opts.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[userID] = p
	return nil
}

func (m *memoryStore) TakePending(_ context.Context, userID int64) (Pending, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[userID]
	if !ok {
		return Pending{}, false, nil
	}
	delete(m.pending, userID)
	if m.opts.ttl > 0 && m.opts.now().Sub(p.SetAt) > m.opts.ttl {
		return Pending{}, false, nil
	}
	return p, true, nil
}

func (m *memoryStore) ClearPending(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, userID)
	return nil
}
