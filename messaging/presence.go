package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxPresenceLookups = 100

type PresenceStatus struct {
	UserID   string     `json:"userId"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen"`
}

// Presence reports online state for the requested users. Users the caller
// shares no conversation with are left out unless the caller may read any
// presence.
func (s *Service) Presence(ctx context.Context, caller Identity, req GetPresenceRequest) ([]PresenceStatus, error) {
	if err := caller.validate(); err != nil {
		return nil, err
	}
	if len(req.UserIDs) == 0 {
		return nil, invalid("userIds is required")
	}
	if len(req.UserIDs) > maxPresenceLookups {
		return nil, invalid("too many userIds")
	}

	var visible func(id string) bool
	if s.allowed(caller, ObjPresence, ActReadAny) {
		visible = func(string) bool { return true }
	} else {
		peers, err := s.conversationPeers(ctx, caller)
		if err != nil {
			return nil, err
		}
		visible = func(id string) bool {
			_, ok := peers[id]
			return ok || id == caller.ID
		}
	}

	out := make([]PresenceStatus, 0, len(req.UserIDs))
	seen := make(map[string]struct{}, len(req.UserIDs))
	for _, id := range req.UserIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup || !visible(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, s.presenceOf(ctx, id))
	}
	return out, nil
}

func (s *Service) presenceOf(ctx context.Context, userID string) PresenceStatus {
	status := PresenceStatus{UserID: userID}
	if s.presence == nil {
		return status
	}

	online, err := s.presence.IsOnline(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("presence lookup failed")
		return status
	}
	status.Online = online

	if at, ok, err := s.presence.LastSeen(ctx, userID); err == nil && ok {
		at = at.UTC()
		status.LastSeen = &at
	}
	return status
}
