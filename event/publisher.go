package event

import (
	"context"
	"encoding/json"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
)

// Publisher forwards messaging events to a queue for other services.
type Publisher struct {
	emitter Emitter
	queue   string
}

func NewPublisher(emitter Emitter, queue string) *Publisher {
	return &Publisher{emitter: emitter, queue: queue}
}

func (p *Publisher) Notify(ctx context.Context, ev messaging.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.emitter.Emit(ctx, p.queue, string(ev.Type), map[string]string{
		UserIDHeader: ev.ActorID,
	}, data, true)
}
