// Package store defines the persistence capabilities the messaging service
// depends on. Backends are selected once at startup.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

// MessageQuery selects non-deleted messages of one conversation,
// newest first. Keyword, when set, is a case-insensitive literal substring.
type MessageQuery struct {
	ConversationID string
	Keyword        string
	Offset         int
	Limit          int
}

// Backend is the StorageBackend capability.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error

	// CreateConversation inserts conv unless a conversation with the same
	// pair key already exists, in which case the existing one is returned
	// with created == false.
	CreateConversation(ctx context.Context, conv *model.Conversation) (*model.Conversation, bool, error)
	FindConversationByPair(ctx context.Context, pairKey string) (*model.Conversation, error)
	FindConversation(ctx context.Context, id string) (*model.Conversation, error)
	// FindParticipantConversation returns the conversation only when userID
	// is one of its participants.
	FindParticipantConversation(ctx context.Context, id, userID string) (*model.Conversation, error)
	// ListConversations returns conversations containing userID, or every
	// conversation when userID is empty, ordered by UpdatedAt descending.
	ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error)

	// AppendMessage persists msg and applies it to the parent conversation:
	// lastMessage, updatedAt and an in-place increment of every other
	// participant's unread counter.
	AppendMessage(ctx context.Context, msg *model.Message) (*model.Conversation, error)
	ListMessages(ctx context.Context, q MessageQuery) ([]*model.Message, error)
	FindMessage(ctx context.Context, conversationID, messageID string) (*model.Message, error)
	SoftDeleteMessage(ctx context.Context, conversationID, messageID string, at time.Time) error

	// MarkRead appends a receipt for userID to every message of the
	// conversation that userID did not send and has not read yet, then
	// resets userID's unread counter. It returns the number of receipts added.
	MarkRead(ctx context.Context, conversationID, userID string, at time.Time) (int64, error)
}

// Directory is the read-only user directory.
type Directory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByIDs resolves many users in one lookup. Unknown ids are absent
	// from the result.
	FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error)
}

// PairKeyFor returns the uniqueness key of a two party conversation, or ""
// for any other participant count.
func PairKeyFor(conv *model.Conversation) string {
	if len(conv.Participants) != 2 {
		return ""
	}
	return model.PairKey(conv.ParticipantIDs()...)
}

// EscapeLike escapes LIKE wildcards so the keyword matches literally.
// The escape character is a backslash.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
