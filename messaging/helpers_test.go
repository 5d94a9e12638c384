package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/memstore"
)

var (
	student = Identity{ID: "s1", Email: "sara@example.com", Name: "Sara", Role: model.RoleStudent}
	owner   = Identity{ID: "o1", Email: "omar@example.com", Name: "Omar", Role: model.RoleOwner}
	other   = Identity{ID: "s2", Email: "sami@example.com", Name: "Sami", Role: model.RoleStudent}
	admin   = Identity{ID: "a1", Email: "admin@example.com", Name: "Admin", Role: model.RoleAdmin}
)

func users() []model.User {
	var out []model.User
	for _, i := range []Identity{student, owner, other, admin} {
		out = append(out, model.User{ID: i.ID, Email: i.Email, Name: i.Name, Role: i.Role})
	}
	return out
}

// tickingClock advances one second on every read.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *tickingClock {
	return &tickingClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// countingDirectory records how the directory is queried.
type countingDirectory struct {
	store.Directory
	byID  atomic.Int32
	byIDs atomic.Int32
}

func (d *countingDirectory) FindByID(ctx context.Context, id string) (*model.User, error) {
	d.byID.Add(1)
	return d.Directory.FindByID(ctx, id)
}

func (d *countingDirectory) FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	d.byIDs.Add(1)
	return d.Directory.FindByIDs(ctx, ids)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) types() []EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventType, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Type
	}
	return out
}

// brokenBackend fails every listing call with a driver error.
type brokenBackend struct {
	store.Backend
}

func (brokenBackend) ListConversations(context.Context, string) ([]*model.Conversation, error) {
	return nil, errors.New("dial tcp 10.0.0.7:5432: connection refused")
}

// collidingBackend resolves every pair key to the same stored conversation.
type collidingBackend struct {
	store.Backend
	foreign string
}

func (b collidingBackend) FindConversationByPair(ctx context.Context, _ string) (*model.Conversation, error) {
	return b.Backend.FindConversation(ctx, b.foreign)
}

type fakePresence struct {
	online map[string]bool
	seen   map[string]time.Time
}

func (p fakePresence) IsOnline(_ context.Context, id string) (bool, error) {
	return p.online[id], nil
}

func (p fakePresence) LastSeen(_ context.Context, id string) (time.Time, bool, error) {
	t, ok := p.seen[id]
	return t, ok, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (o *recordingObserver) Observe(action, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]string{}
	}
	o.outcomes[action] = outcome
}

var _ store.Backend = (*memstore.Store)(nil)
