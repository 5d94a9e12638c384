// Package messaging implements direct conversations between marketplace
// users: find-or-create, send, fetch, search, mark-read and listing.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Casbin objects and actions checked by the service.
const (
	ObjConversations = "conversations"
	ObjPresence      = "presence"
	ActReadAll       = "read_all"
	ActReadAny       = "read_any"
)

// Authorizer decides role level privileges such as the admin read-all
// override. Participant membership is checked separately.
type Authorizer interface {
	Allow(role model.Role, obj, act string) (bool, error)
}

// AdminAuthorizer grants every privilege to admins and nothing to others.
type AdminAuthorizer struct{}

func (AdminAuthorizer) Allow(role model.Role, _, _ string) (bool, error) {
	return role == model.RoleAdmin, nil
}

// PresenceReader answers online and last-seen lookups.
type PresenceReader interface {
	IsOnline(ctx context.Context, userID string) (bool, error)
	LastSeen(ctx context.Context, userID string) (time.Time, bool, error)
}

type Options struct {
	Backend    store.Backend
	Directory  store.Directory
	Authorizer Authorizer
	Notifier   Notifier
	Presence   PresenceReader
	Now        func() time.Time
	NewID      func() string
	PageSize   int
}

type Service struct {
	backend    store.Backend
	directory  store.Directory
	authorizer Authorizer
	notifier   Notifier
	presence   PresenceReader
	now        func() time.Time
	newID      func() string
	pageSize   int
}

func NewService(opts Options) *Service {
	s := &Service{
		backend:    opts.Backend,
		directory:  opts.Directory,
		authorizer: opts.Authorizer,
		notifier:   opts.Notifier,
		presence:   opts.Presence,
		now:        opts.Now,
		newID:      opts.NewID,
		pageSize:   opts.PageSize,
	}
	if s.authorizer == nil {
		s.authorizer = AdminAuthorizer{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.pageSize <= 0 || s.pageSize > MaxPageSize {
		s.pageSize = DefaultPageSize
	}
	return s
}

// Ping reports whether the storage backend is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.backend.Ping(ctx); err != nil {
		return s.storeErr("ping", err)
	}
	return nil
}

// Backend returns the name of the selected storage backend.
func (s *Service) Backend() string { return s.backend.Name() }

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// storeErr classifies a backend error. Not found keeps its meaning, anything
// else is reported as an unavailable store and logged with its cause.
func (s *Service) storeErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound("conversation")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}
	log.Error().Err(err).Str("backend", s.backend.Name()).Str("op", op).Msg("store operation failed")
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func (s *Service) allowed(caller Identity, obj, act string) bool {
	ok, err := s.authorizer.Allow(caller.Role, obj, act)
	if err != nil {
		log.Error().Err(err).Str("user_id", caller.ID).Str("obj", obj).Str("act", act).Msg("authorization check failed")
		return false
	}
	return ok
}

func (s *Service) notify(ctx context.Context, ev Event) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		log.Warn().Err(err).
			Str("event", string(ev.Type)).
			Str("conversation_id", ev.ConversationID).
			Msg("failed to deliver event")
	}
}

// pageWindow converts a 1-based page and a page size into offset and limit.
func (s *Service) pageWindow(page, size int) (int, int, error) {
	if page < 0 {
		return 0, 0, invalid("page must be positive")
	}
	if size < 0 {
		return 0, 0, invalid("pageSize must be positive")
	}
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = s.pageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page-1 > math.MaxInt/size {
		return 0, 0, invalid("page is out of range")
	}
	return (page - 1) * size, size, nil
}
