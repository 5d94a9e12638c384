package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seenAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return seenAt }

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedis(client, time.Minute, fixedNow)
}

func exerciseTracker(t *testing.T, tr Tracker) {
	ctx := context.Background()

	online, err := tr.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, online)
	_, ok, err := tr.LastSeen(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Two tabs open, one closed: still online.
	require.NoError(t, tr.Connect(ctx, "u1"))
	require.NoError(t, tr.Connect(ctx, "u1"))
	require.NoError(t, tr.Disconnect(ctx, "u1"))

	online, err = tr.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, tr.Disconnect(ctx, "u1"))
	online, err = tr.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, online)

	seen, ok, err := tr.LastSeen(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, seen.Equal(seenAt))
}

func TestMemoryTracker(t *testing.T) {
	exerciseTracker(t, NewMemory(fixedNow))
}

func TestMemoryDisconnectUnknownUser(t *testing.T) {
	m := NewMemory(fixedNow)
	require.NoError(t, m.Disconnect(context.Background(), "ghost"))
	online, err := m.IsOnline(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestRedisTracker(t *testing.T) {
	_, r := setupRedis(t)
	exerciseTracker(t, r)
}

func TestRedisCounterExpires(t *testing.T) {
	mr, r := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Connect(ctx, "u2"))
	assert.True(t, mr.Exists(connKeyPrefix+"u2"))

	mr.FastForward(30 * time.Second)
	require.NoError(t, r.Touch(ctx, "u2"))
	mr.FastForward(45 * time.Second)

	online, err := r.IsOnline(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, online)

	mr.FastForward(2 * time.Minute)
	online, err = r.IsOnline(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, online)

	_, ok, err := r.LastSeen(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, ok)
}
