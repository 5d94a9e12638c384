package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/storetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// setupTestDB connects to MONGO_TEST_URI and returns a throwaway database.
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("messaging_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestBackendConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend {
		s := New(setupTestDB(t))
		require.NoError(t, s.EnsureIndexes(context.Background()))
		return s
	})
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, New(db).EnsureIndexes(ctx))
	d := NewDirectory(db)

	require.NoError(t, d.Upsert(ctx, model.User{ID: "s1", Email: "Sara@Example.com", Name: "Sara", Role: model.RoleStudent}))

	u, err := d.FindByEmail(ctx, "sara@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Sara", u.Name)

	users, err := d.FindByIDs(ctx, []string{"s1", "gone"})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = d.FindByID(ctx, "gone")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCounterKeysNeverFormFieldPaths(t *testing.T) {
	assert.Equal(t, "unreadCounts.user%2Ename", counterField("user.name"))
	assert.Equal(t, "unreadCounts.%24set", counterField("$set"))
	assert.NotEqual(t, counterKey("a.b"), counterKey("a%2Eb"))

	conv := storetest.NewConversation("c1", "jane.doe", "$owner")
	conv.UnreadCounts["$owner"] = 3

	doc := toConversationDoc(conv, store.PairKeyFor(conv))
	for key := range doc.UnreadCounts {
		assert.NotContains(t, key, ".")
		assert.NotContains(t, key, "$")
	}
	assert.Equal(t, map[string]int{"jane.doe": 0, "$owner": 3}, doc.toModel().UnreadCounts)
}

func TestUnreadCountersWithDottedIDs(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	require.NoError(t, s.EnsureIndexes(ctx))

	_, _, err := s.CreateConversation(ctx, storetest.NewConversation("c1", "jane.doe", "$owner"))
	require.NoError(t, err)

	conv, err := s.AppendMessage(ctx, storetest.NewMessage("m1", "c1", "jane.doe", "hi", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"jane.doe": 0, "$owner": 1}, conv.UnreadCounts)

	_, err = s.MarkRead(ctx, "c1", "$owner", time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	conv, err = s.FindConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, conv.UnreadCounts["$owner"])
}
