// Package storetest holds the behaviour every store.Backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty backend for one subtest.
type Factory func(t *testing.T) store.Backend

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// Run executes the conformance suite against backends produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, b store.Backend)
	}{
		{"CreateConversationIsUniquePerPair", testCreateUniquePerPair},
		{"ConcurrentCreateYieldsOneConversation", testConcurrentCreate},
		{"FindParticipantConversation", testFindParticipant},
		{"ListConversationsScopedAndSorted", testListConversations},
		{"AppendMessageUpdatesCounters", testAppendMessage},
		{"AppendMessageUnknownConversation", testAppendUnknown},
		{"ListMessagesNewestFirstWithPaging", testListMessages},
		{"ListMessagesKeywordIsLiteralAndCaseInsensitive", testKeyword},
		{"SoftDeletedMessagesAreHidden", testSoftDelete},
		{"MarkReadIsIdempotent", testMarkRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newBackend(t))
		})
	}
}

// NewConversation builds an unsaved two party conversation.
func NewConversation(id, a, b string) *model.Conversation {
	return &model.Conversation{
		ID: id,
		Participants: []model.Participant{
			{UserID: a, Role: model.RoleStudent, DisplayName: "User " + a},
			{UserID: b, Role: model.RoleOwner, DisplayName: "User " + b},
		},
		UnreadCounts: map[string]int{a: 0, b: 0},
		CreatedAt:    base,
		UpdatedAt:    base,
	}
}

// NewMessage builds an unsaved message seeded with the sender's receipt.
func NewMessage(id, convID, sender, text string, at time.Time) *model.Message {
	return &model.Message{
		ID:             id,
		ConversationID: convID,
		SenderID:       sender,
		SenderRole:     model.RoleStudent,
		Text:           text,
		MessageType:    model.MessageText,
		Attachments:    []model.Attachment{},
		ReadBy:         []model.Receipt{{UserID: sender, ReadAt: at}},
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func mustCreate(t *testing.T, b store.Backend, c *model.Conversation) *model.Conversation {
	t.Helper()
	got, created, err := b.CreateConversation(context.Background(), c)
	require.NoError(t, err)
	require.True(t, created)
	return got
}

func mustAppend(t *testing.T, b store.Backend, m *model.Message) *model.Conversation {
	t.Helper()
	c, err := b.AppendMessage(context.Background(), m)
	require.NoError(t, err)
	return c
}

func testCreateUniquePerPair(t *testing.T, b store.Backend) {
	ctx := context.Background()
	first := mustCreate(t, b, NewConversation("c1", "s1", "o1"))

	again, created, err := b.CreateConversation(ctx, NewConversation("c2", "o1", "s1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	byPair, err := b.FindConversationByPair(ctx, model.PairKey("s1", "o1"))
	require.NoError(t, err)
	assert.Equal(t, "c1", byPair.ID)
	assert.Equal(t, map[string]int{"s1": 0, "o1": 0}, byPair.UnreadCounts)
	assert.Nil(t, byPair.LastMessage)

	_, err = b.FindConversation(ctx, "c2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentCreate(t *testing.T, b store.Backend) {
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, _, err := b.CreateConversation(ctx, NewConversation(fmt.Sprintf("race-%d", i), "s1", "o1"))
			errs[i] = err
			if c != nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	all, err := b.ListConversations(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testFindParticipant(t *testing.T, b store.Backend) {
	ctx := context.Background()
	mustCreate(t, b, NewConversation("c1", "s1", "o1"))

	c, err := b.FindParticipantConversation(ctx, "c1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	require.Len(t, c.Participants, 2)
	assert.Equal(t, "s1", c.Participants[0].UserID)

	_, err = b.FindParticipantConversation(ctx, "c1", "intruder")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = b.FindParticipantConversation(ctx, "missing", "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListConversations(t *testing.T, b store.Backend) {
	ctx := context.Background()
	mustCreate(t, b, NewConversation("c1", "s1", "o1"))
	mustCreate(t, b, NewConversation("c2", "s1", "o2"))
	mustCreate(t, b, NewConversation("c3", "s2", "o2"))

	mustAppend(t, b, NewMessage("m1", "c1", "s1", "older", base.Add(time.Minute)))
	mustAppend(t, b, NewMessage("m2", "c2", "s1", "newer", base.Add(2*time.Minute)))

	mine, err := b.ListConversations(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "c2", mine[0].ID)
	assert.Equal(t, "c1", mine[1].ID)

	all, err := b.ListConversations(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := b.ListConversations(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testAppendMessage(t *testing.T, b store.Backend) {
	ctx := context.Background()
	mustCreate(t, b, NewConversation("c1", "s1", "o1"))

	var c *model.Conversation
	for i := 1; i <= 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		c = mustAppend(t, b, NewMessage(fmt.Sprintf("m%d", i), "c1", "s1", fmt.Sprintf("hello %d", i), at))
	}

	assert.Equal(t, 3, c.UnreadCounts["o1"])
	assert.Equal(t, 0, c.UnreadCounts["s1"])
	require.NotNil(t, c.LastMessage)
	assert.Equal(t, "hello 3", c.LastMessage.Text)
	assert.Equal(t, "s1", c.LastMessage.SenderID)
	assert.True(t, c.UpdatedAt.Equal(base.Add(3*time.Minute)))

	stored, err := b.FindConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.UnreadCounts["o1"])

	m, err := b.FindMessage(ctx, "c1", "m2")
	require.NoError(t, err)
	require.Len(t, m.ReadBy, 1)
	assert.Equal(t, "s1", m.ReadBy[0].UserID)
}

func testAppendUnknown(t *testing.T, b store.Backend) {
	_, err := b.AppendMessage(context.Background(), NewMessage("m1", "missing", "s1", "hi", base))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListMessages(t *testing.T, b store.Backend) {
	ctx := context.Background()
	mustCreate(t, b, NewConversation("c1", "s1", "o1"))
	for i := 1; i <= 10; i++ {
		mustAppend(t, b, NewMessage(fmt.Sprintf("m%02d", i), "c1", "s1", fmt.Sprintf("t%d", i), base.Add(time.Duration(i)*time.Second)))
	}

	page1, err := b.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Offset: 0, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"t10", "t9", "t8", "t7", "t6"}, texts(page1))

	page2, err := b.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Offset: 5, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"t5", "t4", "t3", "t2", "t1"}, texts(page2))

	page3, err := b.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Offset: 10, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, page3)
}

func testKeyword(t *testing.T, b store.Backend) {
	ctx := context.Background()
	mustCreate(t, b, NewConversation("c1", "s1", "o1"))
	mustAppend(t, b, NewMessage("m1", "c1", "s1", "Is the ROOM available?", base.Add(time.Second)))
	mustAppend(t, b, NewMessage("m2", "c1", "s1", "rent is 100% upfront", base.Add(2*time.Second)))
	mustAppend(t, b, NewMessage("m3", "c1", "s1", "nothing here", base.Add(3*time.Second)))

	got, err := b.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Keyword: "room", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Is the ROOM available?"}, texts(got))

	got, err = b.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Keyword: "0%", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"rent is 100% upfront"}, texts(got))

	got, err = b.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Keyword: "%", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = b.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Keyword: ".*", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testSoftDelete(t *testing.T, b store.Backend) {
	ctx := context.Background()
	mustCreate(t, b, NewConversation("c1", "s1", "o1"))
	mustAppend(t, b, NewMessage("m1", "c1", "s1", "secret plan", base.Add(time.Second)))
	mustAppend(t, b, NewMessage("m2", "c1", "s1", "public plan", base.Add(2*time.Second)))

	require.NoError(t, b.SoftDeleteMessage(ctx, "c1", "m1", base.Add(time.Minute)))
	assert.ErrorIs(t, b.SoftDeleteMessage(ctx, "c1", "missing", base), store.ErrNotFound)

	all, err := b.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"public plan"}, texts(all))

	found, err := b.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Keyword: "secret plan", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, found)

	m, err := b.FindMessage(ctx, "c1", "m1")
	require.NoError(t, err)
	assert.True(t, m.IsDeleted)
}

func testMarkRead(t *testing.T, b store.Backend) {
	ctx := context.Background()
	mustCreate(t, b, NewConversation("c1", "s1", "o1"))
	mustAppend(t, b, NewMessage("m1", "c1", "s1", "one", base.Add(time.Second)))
	mustAppend(t, b, NewMessage("m2", "c1", "s1", "two", base.Add(2*time.Second)))
	mustAppend(t, b, NewMessage("m3", "c1", "o1", "reply", base.Add(3*time.Second)))

	readAt := base.Add(time.Hour)
	marked, err := b.MarkRead(ctx, "c1", "o1", readAt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	marked, err = b.MarkRead(ctx, "c1", "o1", readAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(0), marked)

	c, err := b.FindConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, c.UnreadCounts["o1"])
	assert.Equal(t, 1, c.UnreadCounts["s1"])

	m1, err := b.FindMessage(ctx, "c1", "m1")
	require.NoError(t, err)
	require.Len(t, m1.ReadBy, 2)
	assert.Equal(t, "s1", m1.ReadBy[0].UserID)
	assert.Equal(t, "o1", m1.ReadBy[1].UserID)
	assert.True(t, m1.ReadBy[1].ReadAt.Equal(readAt))

	m3, err := b.FindMessage(ctx, "c1", "m3")
	require.NoError(t, err)
	assert.Len(t, m3.ReadBy, 1)

	_, err = b.MarkRead(ctx, "c1", "intruder", readAt)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func texts(msgs []*model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}
