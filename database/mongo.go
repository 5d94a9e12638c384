package database

import (
	"context"
	"fmt"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/config"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/mongostore"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConnect connects, pings and ensures the messaging indexes.
func MongoConnect(ctx context.Context) (*mongo.Database, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(config.Default("MONGO_URI", "mongodb://localhost:27017")).
		SetServerSelectionTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info().Msg("connection opened to MongoDB")

	db := client.Database(config.Default("MONGO_DB", "roommatch"))
	if err := mongostore.New(db).EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return db, nil
}
