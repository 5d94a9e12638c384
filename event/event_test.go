package event

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	queue, action string
	headers       map[string]string
	data          []byte
	logged        bool
}

type fakeEmitter struct {
	mu   sync.Mutex
	sent []emitted
}

func (f *fakeEmitter) Emit(_ context.Context, queue, action string, headers map[string]string, data []byte, logged bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, emitted{queue, action, headers, data, logged})
	return nil
}

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := OpenLog(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLogRoundTrip(t *testing.T) {
	l := openTestLog(t)
	require.NoError(t, l.In(Record{Time: 1, Service: "messaging", Action: "mark_read", Data: `{"conversationId":"c1"}`}))
	require.NoError(t, l.In(Record{Time: 2, Service: "messaging", Action: "get_conversations"}))

	var got []string
	require.NoError(t, ReadLog(l.InPath(), func(r Record) error {
		got = append(got, r.Action)
		return nil
	}))
	assert.Equal(t, []string{"mark_read", "get_conversations"}, got)
}

func TestReplayInboundToListeners(t *testing.T) {
	l := openTestLog(t)
	require.NoError(t, l.In(Record{Service: "messaging", Action: "mark_read", Headers: map[string]string{UserIDHeader: "o1"}, Data: `{}`}))
	require.NoError(t, l.In(Record{Service: "unknown", Action: "noop"}))

	ch := make(chan Delivery, 4)
	err := Replay(context.Background(), ModeInSend, l, map[string]chan<- Delivery{"messaging": ch}, &fakeEmitter{})
	require.NoError(t, err)

	require.Len(t, ch, 1)
	d := <-ch
	assert.Equal(t, "mark_read", d.Action)
	assert.Equal(t, "o1", d.Headers[UserIDHeader])
	assert.Equal(t, OutOptions{Send: true, Log: false}, d.Out)
	assert.True(t, d.Replayed)
}

func TestReplayOutboundReemitsWithoutLogging(t *testing.T) {
	l := openTestLog(t)
	require.NoError(t, l.Out(Record{Service: "messaging_events", Action: "message_sent", Data: `{"type":"message_sent"}`}))

	em := &fakeEmitter{}
	require.NoError(t, Replay(context.Background(), ModeOut, l, nil, em))
	require.Len(t, em.sent, 1)
	assert.Equal(t, "messaging_events", em.sent[0].queue)
	assert.False(t, em.sent[0].logged)
}

func TestReplayIgnoresOtherModes(t *testing.T) {
	l := openTestLog(t)
	require.NoError(t, Replay(context.Background(), "", l, nil, &fakeEmitter{}))
	require.NoError(t, Replay(context.Background(), ModeDisable, l, nil, &fakeEmitter{}))
}

func TestPublisherNotify(t *testing.T) {
	em := &fakeEmitter{}
	p := NewPublisher(em, "messaging_events")

	err := p.Notify(context.Background(), messaging.Event{
		Type:           messaging.EventConversationRead,
		ConversationID: "c1",
		ActorID:        "o1",
		Recipients:     []string{"s1", "o1"},
		At:             time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, em.sent, 1)
	sent := em.sent[0]
	assert.Equal(t, "conversation_read", sent.action)
	assert.Equal(t, "o1", sent.headers[UserIDHeader])
	assert.True(t, sent.logged)

	var ev messaging.Event
	require.NoError(t, json.Unmarshal(sent.data, &ev))
	assert.Equal(t, "c1", ev.ConversationID)
}

func TestStringHeaders(t *testing.T) {
	got := stringHeaders(amqp.Table{
		ActionHeader: "send_message",
		UserIDHeader: []byte("s1"),
		"x-retry":    int32(2),
	})
	assert.Equal(t, map[string]string{ActionHeader: "send_message", UserIDHeader: "s1", "x-retry": "2"}, got)
}

func TestHandOffStopsWhenBrokerCloses(t *testing.T) {
	done := make(chan struct{})
	out := make(chan Delivery, 1)

	assert.True(t, handOff(done, out, Delivery{Action: "mark_read"}))
	assert.Equal(t, "mark_read", (<-out).Action)

	unread := make(chan Delivery)
	result := make(chan bool)
	go func() { result <- handOff(done, unread, Delivery{Action: "send_message"}) }()
	close(done)

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("hand-off still blocked after close")
	}
}
