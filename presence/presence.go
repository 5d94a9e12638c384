// Package presence tracks which users hold at least one live socket
// connection and when each user was last seen.
package presence

import (
	"context"
	"sync"
	"time"
)

// Tracker is implemented by Memory for a single instance and by Redis when
// several instances share state.
type Tracker interface {
	Connect(ctx context.Context, userID string) error
	Disconnect(ctx context.Context, userID string) error
	Touch(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
	LastSeen(ctx context.Context, userID string) (time.Time, bool, error)
}

type entry struct {
	conns    int
	lastSeen time.Time
}

// Memory counts connections per user in process memory.
type Memory struct {
	mu    sync.Mutex
	users map[string]*entry
	now   func() time.Time
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{users: make(map[string]*entry), now: now}
}

func (m *Memory) Connect(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.users[userID]
	if !ok {
		e = &entry{}
		m.users[userID] = e
	}
	e.conns++
	e.lastSeen = m.now()
	return nil
}

func (m *Memory) Disconnect(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.users[userID]
	if !ok {
		return nil
	}
	if e.conns > 0 {
		e.conns--
	}
	e.lastSeen = m.now()
	return nil
}

// Touch is a no-op: memory connections never expire.
func (m *Memory) Touch(context.Context, string) error { return nil }

func (m *Memory) IsOnline(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.users[userID]
	return ok && e.conns > 0, nil
}

func (m *Memory) LastSeen(_ context.Context, userID string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.users[userID]
	if !ok {
		return time.Time{}, false, nil
	}
	return e.lastSeen, true, nil
}
