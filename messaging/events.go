package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
)

type EventType string

const (
	EventConversationCreated EventType = "conversation_created"
	EventMessageSent         EventType = "message_sent"
	EventConversationRead    EventType = "conversation_read"
	EventMessageDeleted      EventType = "message_deleted"
)

// Event is published after a mutation has been persisted.
type Event struct {
	Type           EventType      `json:"type"`
	ConversationID string         `json:"conversationId"`
	ActorID        string         `json:"actorId"`
	Recipients     []string       `json:"recipients"`
	Message        *model.Message `json:"message,omitempty"`
	MessageID      string         `json:"messageId,omitempty"`
	UnreadCounts   map[string]int `json:"unreadCounts,omitempty"`
	At             time.Time      `json:"at"`
}

// Notifier delivers events to whoever is listening: socket rooms, queues.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Notifiers fans an event out to every notifier.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }
