// Package event connects the service to RabbitMQ: queue declaration,
// consumers feeding Go channels, publishing with an x-action header and a
// JSON log of everything that went in or out.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	ActionHeader    = "x-action"
	UserIDHeader    = "x-user-id"
	UserEmailHeader = "x-user-email"
	UserRoleHeader  = "x-user-role"

	publishTimeout = 5 * time.Second
)

// Event modes. Anything else runs without replay.
const (
	ModeDisable   = "DISABLE"
	ModeInSendLog = "IN_SEND_LOG"
	ModeInSend    = "IN_SEND"
	ModeIn        = "IN"
	ModeOut       = "OUT"
)

// Delivery is a consumed message handed to a listener.
type Delivery struct {
	Queue   string
	Action  string
	Headers map[string]string
	ReplyTo string
	Data    []byte
	Out     OutOptions

	// Replayed marks deliveries read back from the event log.
	Replayed bool
}

// OutOptions tells a listener whether it may publish replies and whether
// those replies are logged. Replayed deliveries can switch both off.
type OutOptions struct {
	Send bool
	Log  bool
}

// Emitter publishes one message to a queue.
type Emitter interface {
	Emit(ctx context.Context, queue, action string, headers map[string]string, data []byte, logged bool) error
}

type Config struct {
	URL  string
	Mode string
	Log  *Log
}

type Broker struct {
	conn *amqp.Connection

	mu        sync.Mutex
	ch        *amqp.Channel
	queues    map[string]amqp.Queue
	listeners map[string]chan<- Delivery

	mode string
	log  *Log

	done      chan struct{}
	closeOnce sync.Once
}

func Dial(cfg Config) (*Broker, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	log.Info().Msg("connection opened to RabbitMQ server")

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	return &Broker{
		conn:      conn,
		ch:        ch,
		queues:    make(map[string]amqp.Queue),
		listeners: make(map[string]chan<- Delivery),
		mode:      cfg.Mode,
		log:       cfg.Log,
		done:      make(chan struct{}),
	}, nil
}

// URL builds an amqp URL from its parts.
func URL(user, password, host, port string) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", user, password, host, port)
}

func (b *Broker) logging() bool {
	return b.log != nil && b.mode != ModeDisable
}

// Declare makes sure the queues exist.
func (b *Broker) Declare(names ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, name := range names {
		q, err := b.ch.QueueDeclare(
			name,  // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
		b.queues[name] = q
		log.Info().Str("queue", name).Msg("declared RabbitMQ queue")
	}
	return nil
}

// Subscribe forwards every message of queue to out until the broker
// closes. Messages are acked once handed over; a message still waiting
// for a receiver when the broker closes is requeued.
func (b *Broker) Subscribe(queue string, out chan<- Delivery) error {
	b.mu.Lock()
	msgs, err := b.ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err == nil {
		b.listeners[queue] = out
	}
	b.mu.Unlock()
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	log.Info().Str("queue", queue).Msg("subscribed to RabbitMQ queue")

	go func() {
		for msg := range msgs {
			headers := stringHeaders(msg.Headers)
			action := headers[ActionHeader]

			if b.logging() {
				if err := b.log.In(Record{
					Time:    time.Now().UnixMicro(),
					Service: queue,
					Action:  action,
					Headers: headers,
					Data:    string(msg.Body),
				}); err != nil {
					log.Error().Err(err).Msg("failed to write inbound event log")
				}
			}

			d := Delivery{
				Queue:   queue,
				Action:  action,
				Headers: headers,
				ReplyTo: msg.ReplyTo,
				Data:    msg.Body,
				Out:     OutOptions{Send: true, Log: true},
			}
			if !handOff(b.done, out, d) {
				if err := msg.Nack(false, true); err != nil {
					log.Debug().Err(err).Str("queue", queue).Msg("failed to requeue message")
				}
				return
			}
			if err := msg.Ack(false); err != nil {
				log.Warn().Err(err).Str("queue", queue).Msg("failed to ack message")
			}
		}
	}()
	return nil
}

// Emit publishes data to queue through the default exchange.
func (b *Broker) Emit(ctx context.Context, queue, action string, headers map[string]string, data []byte, logged bool) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	table := amqp.Table{ActionHeader: action}
	for k, v := range headers {
		table[k] = v
	}

	b.mu.Lock()
	err := b.ch.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now(),
			Headers:      table,
			Body:         data,
		},
	)
	b.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", action, queue, err)
	}

	if logged && b.logging() {
		if err := b.log.Out(Record{
			Time:    time.Now().UnixMicro(),
			Service: queue,
			Action:  action,
			Headers: headers,
			Data:    string(data),
		}); err != nil {
			log.Error().Err(err).Msg("failed to write outbound event log")
		}
	}
	return nil
}

// Replay re-runs the event log according to the configured mode.
func (b *Broker) Replay(ctx context.Context) error {
	if b.log == nil {
		return nil
	}
	b.mu.Lock()
	listeners := make(map[string]chan<- Delivery, len(b.listeners))
	for k, v := range b.listeners {
		listeners[k] = v
	}
	b.mu.Unlock()

	return Replay(ctx, b.mode, b.log, listeners, b)
}

// Replay feeds logged inbound events back to listeners (IN modes) or
// publishes logged outbound events again (OUT mode).
func Replay(ctx context.Context, mode string, l *Log, listeners map[string]chan<- Delivery, em Emitter) error {
	var out OutOptions
	switch mode {
	case ModeInSendLog:
		out = OutOptions{Send: true, Log: true}
	case ModeInSend:
		out = OutOptions{Send: true}
	case ModeIn:
	case ModeOut:
		return ReadLog(l.OutPath(), func(rec Record) error {
			return em.Emit(ctx, rec.Service, rec.Action, rec.Headers, []byte(rec.Data), false)
		})
	default:
		return nil
	}

	return ReadLog(l.InPath(), func(rec Record) error {
		ch, ok := listeners[rec.Service]
		if !ok {
			log.Warn().Str("queue", rec.Service).Msg("no listener for replayed event")
			return nil
		}
		select {
		case ch <- Delivery{Queue: rec.Service, Action: rec.Action, Headers: rec.Headers, Data: []byte(rec.Data), Out: out, Replayed: true}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// handOff delivers d to out unless done closes first.
func handOff(done <-chan struct{}, out chan<- Delivery, d Delivery) bool {
	select {
	case out <- d:
		return true
	case <-done:
		return false
	}
}

func (b *Broker) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.ch.Close(), b.conn.Close())
}

func stringHeaders(t amqp.Table) map[string]string {
	out := make(map[string]string, len(t))
	for k, v := range t {
		switch s := v.(type) {
		case string:
			out[k] = s
		case []byte:
			out[k] = string(s)
		default:
			out[k] = fmt.Sprint(s)
		}
	}
	return out
}
