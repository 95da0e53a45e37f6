package bot

import "sync"

// chatLocks serializes work per chat id. Entries are dropped when unused.
type chatLocks struct {
	mu sync.Mutex
	m  map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{m: make(map[int64]*chatLock)}
}

// lock blocks until chatID is free and returns the matching unlock.
func (l *chatLocks) lock(chatID int64) func() {
	l.mu.Lock()
	e, ok := l.m[chatID]
	if !ok {
		e = &chatLock{}
		l.m[chatID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, chatID)
		}
		l.mu.Unlock()
	}
}

func (l *chatLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
