package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
)

// IsParticipant reports whether userID belongs to the conversation. A
// missing conversation and a foreign one look the same.
func (s *Service) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	_, err := s.backend.FindParticipantConversation(ctx, conversationID, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	}
	return false, s.storeErr("find participant conversation", err)
}

func conversationID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid("conversationId is required")
	}
	if len(id) > 64 {
		return "", invalid("conversationId is malformed")
	}
	return id, nil
}

// readable returns the conversation when the caller is a participant or
// holds the read-all privilege.
func (s *Service) readable(ctx context.Context, caller Identity, id string) (*model.Conversation, error) {
	conv, err := s.backend.FindParticipantConversation(ctx, id, caller.ID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, s.storeErr("find participant conversation", err)
	}
	if !s.allowed(caller, ObjConversations, ActReadAll) {
		return nil, notFound("conversation")
	}

	conv, err = s.backend.FindConversation(ctx, id)
	if err != nil {
		return nil, s.storeErr("find conversation", err)
	}
	return conv, nil
}

// writable returns the conversation only for participants. Callers that
// may read every conversation already know it exists, so they get
// Forbidden instead of NotFound.
func (s *Service) writable(ctx context.Context, caller Identity, id string) (*model.Conversation, error) {
	conv, err := s.readable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(caller.ID) {
		return nil, ErrForbidden
	}
	return conv, nil
}
