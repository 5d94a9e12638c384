package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

type Action string

const (
	ActionCreateConversation Action = "create_conversation"
	ActionSendMessage        Action = "send_message"
	ActionGetConversations   Action = "get_conversations"
	ActionGetMessages        Action = "get_messages"
	ActionSearchMessages     Action = "search_messages"
	ActionMarkRead           Action = "mark_read"
	ActionDeleteMessage      Action = "delete_message"
	ActionGetUnreadCount     Action = "get_unread_count"
	ActionGetPresence        Action = "get_presence"
)

// Actions lists every action Dispatch understands.
var Actions = []Action{
	ActionCreateConversation,
	ActionSendMessage,
	ActionGetConversations,
	ActionGetMessages,
	ActionSearchMessages,
	ActionMarkRead,
	ActionDeleteMessage,
	ActionGetUnreadCount,
	ActionGetPresence,
}

// Idempotent reports whether running the action again with the same payload
// leaves state unchanged. Sending is the only action that always appends.
func (a Action) Idempotent() bool {
	return a != ActionSendMessage
}

// Request is one of the typed action payloads below. Dispatch expects
// pointers, as returned by DecodeRequest and DecodePayload.
type Request interface {
	Action() Action
}

type CreateConversationRequest struct {
	OtherUserID      string `json:"otherUserId" validate:"required_without=OtherEmail,max=64"`
	OtherEmail       string `json:"otherEmail" validate:"omitempty,email,max=190"`
	OtherDisplayName string `json:"otherDisplayName" validate:"max=120"`
}

type SendMessageRequest struct {
	ConversationID string             `json:"conversationId" validate:"required,max=64"`
	Text           string             `json:"text" validate:"required"`
	MessageType    model.MessageType  `json:"messageType" validate:"omitempty,oneof=text image file"`
	Attachments    []model.Attachment `json:"attachments" validate:"max=10"`
}

type GetConversationsRequest struct{}

type GetMessagesRequest struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
	Page           int    `json:"page" validate:"gte=0"`
	PageSize       int    `json:"pageSize" validate:"gte=0"`
}

type SearchMessagesRequest struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
	Keyword        string `json:"keyword" validate:"required,max=200"`
	Page           int    `json:"page" validate:"gte=0"`
	PageSize       int    `json:"pageSize" validate:"gte=0"`
}

type MarkReadRequest struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
}

type DeleteMessageRequest struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
	MessageID      string `json:"messageId" validate:"required,max=64"`
}

type GetUnreadCountRequest struct{}

type GetPresenceRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,max=100,dive,required,max=64"`
}

func (CreateConversationRequest) Action() Action { return ActionCreateConversation }
func (SendMessageRequest) Action() Action        { return ActionSendMessage }
func (GetConversationsRequest) Action() Action   { return ActionGetConversations }
func (GetMessagesRequest) Action() Action        { return ActionGetMessages }
func (SearchMessagesRequest) Action() Action     { return ActionSearchMessages }
func (MarkReadRequest) Action() Action           { return ActionMarkRead }
func (DeleteMessageRequest) Action() Action      { return ActionDeleteMessage }
func (GetUnreadCountRequest) Action() Action     { return ActionGetUnreadCount }
func (GetPresenceRequest) Action() Action        { return ActionGetPresence }

func newRequest(action Action) (Request, error) {
	switch action {
	case ActionCreateConversation:
		return &CreateConversationRequest{}, nil
	case ActionSendMessage:
		return &SendMessageRequest{}, nil
	case ActionGetConversations:
		return &GetConversationsRequest{}, nil
	case ActionGetMessages:
		return &GetMessagesRequest{}, nil
	case ActionSearchMessages:
		return &SearchMessagesRequest{}, nil
	case ActionMarkRead:
		return &MarkReadRequest{}, nil
	case ActionDeleteMessage:
		return &DeleteMessageRequest{}, nil
	case ActionGetUnreadCount:
		return &GetUnreadCountRequest{}, nil
	case ActionGetPresence:
		return &GetPresenceRequest{}, nil
	}
	return nil, invalid("unknown action %q", action)
}

// DecodeRequest parses a flat body of the form {"action": ..., ...payload}.
func DecodeRequest(body []byte) (Request, error) {
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, invalid("malformed request body")
	}
	if head.Action == "" {
		return nil, invalid("action is required")
	}
	return DecodePayload(Action(head.Action), body)
}

// DecodePayload parses the payload of a known action. An empty payload is
// accepted for actions without required fields.
func DecodePayload(action Action, payload []byte) (Request, error) {
	req, err := newRequest(action)
	if err != nil {
		return nil, err
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && !bytes.Equal(payload, []byte("null")) {
		if err := json.Unmarshal(payload, req); err != nil {
			return nil, invalid("malformed %s payload", action)
		}
	}
	return req, nil
}

// Observer receives the outcome of every dispatched action.
type Observer interface {
	Observe(action, outcome string, elapsed time.Duration)
}

// Dispatcher is the single entry point shared by HTTP, socket and queue
// transports.
type Dispatcher struct {
	svc      *Service
	validate *validator.Validate
	observer Observer
}

func NewDispatcher(svc *Service, observer Observer) *Dispatcher {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Dispatcher{svc: svc, validate: v, observer: observer}
}

func (d *Dispatcher) Service() *Service { return d.svc }

// Dispatch validates req and runs the matching operation for caller.
func (d *Dispatcher) Dispatch(ctx context.Context, caller Identity, req Request) (result any, err error) {
	if req == nil {
		return nil, invalid("action is required")
	}

	start := time.Now()
	action := req.Action()
	defer func() {
		if d.observer != nil {
			d.observer.Observe(string(action), Code(err), time.Since(start))
		}
		if err != nil && StatusCode(err) >= 500 {
			log.Error().Err(err).Str("action", string(action)).Str("user_id", caller.ID).Msg("action failed")
		}
	}()

	if err := caller.validate(); err != nil {
		return nil, err
	}
	if err := d.check(req); err != nil {
		return nil, err
	}

	switch r := req.(type) {
	case *CreateConversationRequest:
		return d.svc.CreateConversation(ctx, caller, *r)
	case *SendMessageRequest:
		return d.svc.SendMessage(ctx, caller, *r)
	case *GetConversationsRequest:
		return d.svc.ListConversations(ctx, caller)
	case *GetMessagesRequest:
		return d.svc.GetMessages(ctx, caller, *r)
	case *SearchMessagesRequest:
		return d.svc.SearchMessages(ctx, caller, *r)
	case *MarkReadRequest:
		return d.svc.MarkRead(ctx, caller, *r)
	case *DeleteMessageRequest:
		if err := d.svc.DeleteMessage(ctx, caller, *r); err != nil {
			return nil, err
		}
		return map[string]string{"messageId": r.MessageID}, nil
	case *GetUnreadCountRequest:
		return d.svc.UnreadCount(ctx, caller)
	case *GetPresenceRequest:
		return d.svc.Presence(ctx, caller, *r)
	}
	return nil, invalid("unsupported request %T", req)
}

func (d *Dispatcher) check(req Request) error {
	err := d.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid("malformed %s payload", req.Action())
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return invalid("%s", strings.Join(fields, ", "))
}
