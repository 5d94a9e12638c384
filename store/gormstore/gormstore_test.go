package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/storetest"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func TestBackendConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend { return New(setupTestDB(t)) })
}

func TestAttachmentsRoundTripInOrder(t *testing.T) {
	ctx := context.Background()
	s := New(setupTestDB(t))

	_, _, err := s.CreateConversation(ctx, storetest.NewConversation("c1", "s1", "o1"))
	require.NoError(t, err)

	msg := storetest.NewMessage("m1", "c1", "s1", "floor plan", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	msg.MessageType = model.MessageImage
	msg.Attachments = []model.Attachment{
		{URL: "https://cdn.example.com/a.png", ContentType: "image/png"},
		{URL: "https://cdn.example.com/b.png", ContentType: "image/png"},
	}
	_, err = s.AppendMessage(ctx, msg)
	require.NoError(t, err)

	got, err := s.FindMessage(ctx, "c1", "m1")
	require.NoError(t, err)
	require.Len(t, got.Attachments, 2)
	assert.Equal(t, "https://cdn.example.com/a.png", got.Attachments[0].URL)
	assert.Equal(t, model.MessageImage, got.MessageType)
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(setupTestDB(t))

	require.NoError(t, d.Upsert(ctx, model.User{ID: "s1", Email: "Sara@Example.com", Name: "Sara", Role: model.RoleStudent}))
	require.NoError(t, d.Upsert(ctx, model.User{ID: "o1", Email: "omar@example.com", Name: "Omar", Role: model.RoleOwner}))

	u, err := d.FindByEmail(ctx, "sara@example.com")
	require.NoError(t, err)
	assert.Equal(t, "s1", u.ID)

	users, err := d.FindByIDs(ctx, []string{"s1", "o1", "gone"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, model.RoleOwner, users["o1"].Role)

	_, err = d.FindByID(ctx, "gone")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
