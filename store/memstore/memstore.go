// Package memstore is the in-memory storage backend. It serves single
// instance deployments without a database and is the explicit fallback
// when the configured store is unreachable at startup.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
)

type Store struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	pairs         map[string]string
	messages      map[string][]*model.Message
}

func New() *Store {
	return &Store{
		conversations: make(map[string]*model.Conversation),
		pairs:         make(map[string]string),
		messages:      make(map[string][]*model.Message),
	}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateConversation(_ context.Context, conv *model.Conversation) (*model.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.PairKeyFor(conv)
	if key != "" {
		if id, ok := s.pairs[key]; ok {
			return store.CloneConversation(s.conversations[id]), false, nil
		}
	}
	if _, ok := s.conversations[conv.ID]; ok {
		return nil, false, store.ErrConflict
	}

	stored := store.CloneConversation(conv)
	s.conversations[conv.ID] = stored
	if key != "" {
		s.pairs[key] = conv.ID
	}
	return store.CloneConversation(stored), true, nil
}

func (s *Store) FindConversationByPair(_ context.Context, pairKey string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.pairs[pairKey]
	if !ok {
		return nil, store.ErrNotFound
	}
	return store.CloneConversation(s.conversations[id]), nil
}

func (s *Store) FindConversation(_ context.Context, id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return store.CloneConversation(c), nil
}

func (s *Store) FindParticipantConversation(_ context.Context, id, userID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok || !c.HasParticipant(userID) {
		return nil, store.ErrNotFound
	}
	return store.CloneConversation(c), nil
}

func (s *Store) ListConversations(_ context.Context, userID string) ([]*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if userID == "" || c.HasParticipant(userID) {
			out = append(out, store.CloneConversation(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) AppendMessage(_ context.Context, msg *model.Message) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[msg.ConversationID]
	if !ok {
		return nil, store.ErrNotFound
	}

	s.messages[c.ID] = append(s.messages[c.ID], store.CloneMessage(msg))

	c.LastMessage = &model.LastMessage{Text: msg.Text, SenderID: msg.SenderID, Timestamp: msg.CreatedAt}
	c.UpdatedAt = msg.CreatedAt
	for _, p := range c.Participants {
		if p.UserID != msg.SenderID {
			c.UnreadCounts[p.UserID]++
		}
	}
	return store.CloneConversation(c), nil
}

func (s *Store) ListMessages(_ context.Context, q store.MessageQuery) ([]*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyword := strings.ToLower(q.Keyword)
	all := s.messages[q.ConversationID]

	// Newest first: walk the append order backwards, then settle ties on
	// CreatedAt so out-of-order inserts still sort correctly.
	matched := make([]*model.Message, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if m.IsDeleted {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(m.Text), keyword) {
			continue
		}
		matched = append(matched, m)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if q.Offset < 0 || q.Offset >= len(matched) {
		return []*model.Message{}, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Limit < end-q.Offset {
		end = q.Offset + q.Limit
	}

	out := make([]*model.Message, 0, end-q.Offset)
	for _, m := range matched[q.Offset:end] {
		out = append(out, store.CloneMessage(m))
	}
	return out, nil
}

func (s *Store) FindMessage(_ context.Context, conversationID, messageID string) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.messages[conversationID] {
		if m.ID == messageID {
			return store.CloneMessage(m), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SoftDeleteMessage(_ context.Context, conversationID, messageID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages[conversationID] {
		if m.ID == messageID {
			m.IsDeleted = true
			m.UpdatedAt = at
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) MarkRead(_ context.Context, conversationID, userID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok || !c.HasParticipant(userID) {
		return 0, store.ErrNotFound
	}

	var marked int64
	for _, m := range s.messages[conversationID] {
		if m.SenderID == userID || m.ReadByUser(userID) {
			continue
		}
		m.ReadBy = append(m.ReadBy, model.Receipt{UserID: userID, ReadAt: at})
		m.UpdatedAt = at
		marked++
	}

	c.UnreadCounts[userID] = 0
	c.UpdatedAt = at
	return marked, nil
}
