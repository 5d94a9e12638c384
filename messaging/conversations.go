package messaging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"github.com/rs/zerolog/log"
)

// CreateConversation returns the conversation between the caller and the
// other user, creating it on first contact. Repeat calls for the same pair
// return the same conversation.
func (s *Service) CreateConversation(ctx context.Context, caller Identity, req CreateConversationRequest) (*model.ConversationSummary, error) {
	if err := caller.validate(); err != nil {
		return nil, err
	}

	other, err := s.resolveUser(ctx, req.OtherUserID, req.OtherEmail)
	if err != nil {
		return nil, err
	}
	if other.ID == caller.ID {
		return nil, invalid("cannot start a conversation with yourself")
	}

	users := map[string]model.User{
		caller.ID: {ID: caller.ID, Email: caller.Email, Name: caller.Name, Role: caller.Role},
		other.ID:  *other,
	}

	conv, err := s.backend.FindConversationByPair(ctx, model.PairKey(caller.ID, other.ID))
	if err == nil {
		if !isPair(conv, caller.ID, other.ID) {
			return nil, s.pairMismatch(conv, caller.ID, other.ID)
		}
		summary := summarize(conv, caller, users)
		return &summary, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, s.storeErr("find conversation by pair", err)
	}

	otherName := strings.TrimSpace(req.OtherDisplayName)
	if otherName == "" {
		otherName = other.Name
	}
	now := s.clock()
	conv = &model.Conversation{
		ID: s.newID(),
		Participants: []model.Participant{
			{UserID: caller.ID, Role: caller.Role, DisplayName: caller.Name},
			{UserID: other.ID, Role: other.Role, DisplayName: otherName},
		},
		UnreadCounts: map[string]int{caller.ID: 0, other.ID: 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	conv, created, err := s.backend.CreateConversation(ctx, conv)
	if err != nil {
		return nil, s.storeErr("create conversation", err)
	}
	if !isPair(conv, caller.ID, other.ID) {
		return nil, s.pairMismatch(conv, caller.ID, other.ID)
	}
	if created {
		log.Info().Str("conversation_id", conv.ID).Str("user_id", caller.ID).Msg("conversation created")
		s.notify(ctx, Event{
			Type:           EventConversationCreated,
			ConversationID: conv.ID,
			ActorID:        caller.ID,
			Recipients:     conv.ParticipantIDs(),
			UnreadCounts:   conv.UnreadCounts,
			At:             now,
		})
	}

	summary := summarize(conv, caller, users)
	return &summary, nil
}

// isPair reports whether conv is exactly the conversation between a and b.
func isPair(conv *model.Conversation, a, b string) bool {
	return len(conv.Participants) == 2 && conv.HasParticipant(a) && conv.HasParticipant(b)
}

func (s *Service) pairMismatch(conv *model.Conversation, a, b string) error {
	log.Error().
		Str("conversation_id", conv.ID).
		Strs("pair", []string{a, b}).
		Strs("participants", conv.ParticipantIDs()).
		Msg("pair key resolved to a foreign conversation")
	return fmt.Errorf("%w: pair key conflict", ErrStoreUnavailable)
}

func (s *Service) resolveUser(ctx context.Context, id, email string) (*model.User, error) {
	id, email = strings.TrimSpace(id), strings.TrimSpace(email)

	var (
		u   *model.User
		err error
	)
	switch {
	case id != "":
		u, err = s.directory.FindByID(ctx, id)
	case email != "":
		u, err = s.directory.FindByEmail(ctx, email)
	default:
		return nil, invalid("otherUserId or otherEmail is required")
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, s.storeErr("find user", err)
	}
	return u, nil
}

// ListConversations returns the caller's conversations, or every
// conversation for callers with the read-all privilege, most recently
// updated first. Participant names and roles come from a single directory
// lookup for the whole page.
func (s *Service) ListConversations(ctx context.Context, caller Identity) ([]model.ConversationSummary, error) {
	if err := caller.validate(); err != nil {
		return nil, err
	}

	scope := caller.ID
	if s.allowed(caller, ObjConversations, ActReadAll) {
		scope = ""
	}

	convs, err := s.backend.ListConversations(ctx, scope)
	if err != nil {
		return nil, s.storeErr("list conversations", err)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, c := range convs {
		for _, p := range c.Participants {
			if _, ok := seen[p.UserID]; !ok {
				seen[p.UserID] = struct{}{}
				ids = append(ids, p.UserID)
			}
		}
	}

	users := map[string]model.User{}
	if len(ids) > 0 {
		users, err = s.directory.FindByIDs(ctx, ids)
		if err != nil {
			log.Warn().Err(err).Str("user_id", caller.ID).Msg("user directory lookup failed, using stored participant names")
			users = map[string]model.User{}
		}
	}

	out := make([]model.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, summarize(c, caller, users))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// otherParticipant picks the counterpart shown to viewer: the first
// participant that is not the viewer, or for an outside viewer the first
// non-admin participant.
func otherParticipant(c *model.Conversation, viewerID string) (model.Participant, bool) {
	if c.HasParticipant(viewerID) {
		for _, p := range c.Participants {
			if p.UserID != viewerID {
				return p, true
			}
		}
		return model.Participant{}, false
	}

	for _, p := range c.Participants {
		if p.Role != model.RoleAdmin {
			return p, true
		}
	}
	if len(c.Participants) > 0 {
		return c.Participants[0], true
	}
	return model.Participant{}, false
}

func summarize(c *model.Conversation, viewer Identity, users map[string]model.User) model.ConversationSummary {
	summary := model.ConversationSummary{
		ID:           c.ID,
		Participants: c.Participants,
		LastMessage:  c.LastMessage,
		UnreadCount:  c.UnreadCounts[viewer.ID],
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}

	other, ok := otherParticipant(c, viewer.ID)
	if !ok {
		return summary
	}
	summary.OtherParticipant = other.UserID
	summary.OtherParticipantName = model.UnknownUserName
	summary.OtherParticipantRole = other.Role

	if u, ok := users[other.UserID]; ok {
		if u.Name != "" {
			summary.OtherParticipantName = u.Name
		}
		if u.Role.Valid() {
			summary.OtherParticipantRole = u.Role
		}
	} else if other.DisplayName != "" {
		summary.OtherParticipantName = other.DisplayName
	}
	return summary
}
