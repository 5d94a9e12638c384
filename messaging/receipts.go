package messaging

import (
	"context"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
)

type ReadResult struct {
	ConversationID string `json:"conversationId"`
	Marked         int64  `json:"marked"`
}

type UnreadSummary struct {
	Total         int            `json:"total"`
	Conversations map[string]int `json:"conversations"`
}

// MarkRead records a receipt for every message the caller has not read and
// resets the caller's unread counter. Repeating it adds nothing.
func (s *Service) MarkRead(ctx context.Context, caller Identity, req MarkReadRequest) (*ReadResult, error) {
	if err := caller.validate(); err != nil {
		return nil, err
	}
	id, err := conversationID(req.ConversationID)
	if err != nil {
		return nil, err
	}

	conv, err := s.writable(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	marked, err := s.backend.MarkRead(ctx, id, caller.ID, now)
	if err != nil {
		return nil, s.storeErr("mark read", err)
	}

	counts := make(map[string]int, len(conv.UnreadCounts))
	for k, v := range conv.UnreadCounts {
		counts[k] = v
	}
	counts[caller.ID] = 0

	s.notify(ctx, Event{
		Type:           EventConversationRead,
		ConversationID: id,
		ActorID:        caller.ID,
		Recipients:     conv.ParticipantIDs(),
		UnreadCounts:   counts,
		At:             now,
	})
	return &ReadResult{ConversationID: id, Marked: marked}, nil
}

// UnreadCount sums the caller's own counters. Conversations the caller only
// sees through the read-all privilege do not count.
func (s *Service) UnreadCount(ctx context.Context, caller Identity) (*UnreadSummary, error) {
	if err := caller.validate(); err != nil {
		return nil, err
	}

	convs, err := s.backend.ListConversations(ctx, caller.ID)
	if err != nil {
		return nil, s.storeErr("list conversations", err)
	}

	out := &UnreadSummary{Conversations: make(map[string]int, len(convs))}
	for _, c := range convs {
		n := c.UnreadCounts[caller.ID]
		out.Conversations[c.ID] = n
		out.Total += n
	}
	return out, nil
}

// conversationPeers returns every user the caller shares a conversation with.
func (s *Service) conversationPeers(ctx context.Context, caller Identity) (map[string]model.Participant, error) {
	convs, err := s.backend.ListConversations(ctx, caller.ID)
	if err != nil {
		return nil, s.storeErr("list conversations", err)
	}
	peers := make(map[string]model.Participant)
	for _, c := range convs {
		for _, p := range c.Participants {
			if p.UserID != caller.ID {
				peers[p.UserID] = p
			}
		}
	}
	return peers, nil
}
