// Package listener turns queue deliveries into dispatched messaging actions.
package listener

import (
	"context"
	"encoding/json"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/event"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/rs/zerolog/log"
)

const Queue = "messaging"

// Reply is published to the delivery's reply-to queue.
type Reply struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Messaging struct {
	Channel    chan event.Delivery
	dispatcher *messaging.Dispatcher
	emitter    event.Emitter
}

func NewMessaging(dispatcher *messaging.Dispatcher, emitter event.Emitter) *Messaging {
	return &Messaging{
		Channel:    make(chan event.Delivery),
		dispatcher: dispatcher,
		emitter:    emitter,
	}
}

// Run handles deliveries until ctx is done or the channel is closed.
func (m *Messaging) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-m.Channel:
			if !ok {
				return
			}
			m.Handle(ctx, d)
		}
	}
}

// Handle runs a single delivery. The caller identity comes from headers set
// by the publishing service.
func (m *Messaging) Handle(ctx context.Context, d event.Delivery) {
	caller := messaging.Identity{
		ID:    d.Headers[event.UserIDHeader],
		Email: d.Headers[event.UserEmailHeader],
		Role:  model.Role(d.Headers[event.UserRoleHeader]),
	}

	if d.Replayed && !messaging.Action(d.Action).Idempotent() {
		log.Info().
			Str("queue", d.Queue).
			Str("action", d.Action).
			Str("user_id", caller.ID).
			Msg("skipped replay of non-idempotent action")
		return
	}

	reply := Reply{Success: true}
	req, err := messaging.DecodePayload(messaging.Action(d.Action), d.Data)
	if err == nil {
		reply.Data, err = m.dispatcher.Dispatch(ctx, caller, req)
	}
	if err != nil {
		reply = Reply{Error: messaging.PublicMessage(err)}
		log.Warn().
			Str("queue", d.Queue).
			Str("action", d.Action).
			Str("user_id", caller.ID).
			Str("outcome", messaging.Code(err)).
			Msg("queued action failed")
	}

	if !d.Out.Send || d.ReplyTo == "" || m.emitter == nil {
		return
	}
	body, err := json.Marshal(reply)
	if err != nil {
		log.Error().Err(err).Str("action", d.Action).Msg("failed to encode reply")
		return
	}
	if err := m.emitter.Emit(ctx, d.ReplyTo, d.Action, map[string]string{event.UserIDHeader: caller.ID}, body, d.Out.Log); err != nil {
		log.Error().Err(err).Str("action", d.Action).Msg("failed to publish reply")
	}
}
