package memstore

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend { return New() })
}

func TestReturnedConversationIsACopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	c, _, err := s.CreateConversation(ctx, storetest.NewConversation("c1", "a", "b"))
	require.NoError(t, err)

	c.UnreadCounts["b"] = 99

	stored, err := s.FindConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UnreadCounts["b"])
}

func TestListMessagesToleratesExtremeWindows(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _, err := s.CreateConversation(ctx, storetest.NewConversation("c1", "a", "b"))
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, storetest.NewMessage("m1", "c1", "a", "hi", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	for _, q := range []store.MessageQuery{
		{ConversationID: "c1", Offset: -100, Limit: 100},
		{ConversationID: "c1", Offset: math.MaxInt - 10, Limit: 100},
		{ConversationID: "c1", Offset: 0, Limit: math.MaxInt},
	} {
		assert.NotPanics(t, func() { _, _ = s.ListMessages(ctx, q) })
	}

	got, err := s.ListMessages(ctx, store.MessageQuery{ConversationID: "c1", Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(
		model.User{ID: "s1", Email: "Student@Example.com", Name: "Sara", Role: model.RoleStudent},
		model.User{ID: "o1", Email: "owner@example.com", Name: "Omar", Role: model.RoleOwner},
	)

	u, err := d.FindByEmail(ctx, " student@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "s1", u.ID)

	users, err := d.FindByIDs(ctx, []string{"s1", "o1", "ghost"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "Omar", users["o1"].Name)

	d.Remove("o1")
	_, err = d.FindByID(ctx, "o1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
