package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis database indexes by purpose.
const (
	RedisPresenceDB = 0
	RedisSocketDB   = 1
)

// RedisConnect opens one client per database index listed in REDIS_DB.
func RedisConnect(ctx context.Context) (map[int]*redis.Client, error) {
	clients := make(map[int]*redis.Client)

	dbs := config.List("REDIS_DB")
	if len(dbs) == 0 {
		dbs = []string{strconv.Itoa(RedisPresenceDB), strconv.Itoa(RedisSocketDB)}
	}
	for _, db := range dbs {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB: %q is not a number", db)
		}

		client := redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf(
				"%s:%s",
				config.Default("REDIS_HOST", "localhost"),
				config.Default("REDIS_PORT", "6379"),
			),
			Password: config.Config("REDIS_PASSWORD"),
			DB:       n,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			CloseRedis(clients)
			client.Close()
			return nil, fmt.Errorf("ping redis db %d: %w", n, err)
		}
		clients[n] = client
	}

	log.Info().Int("clients", len(clients)).Msg("connections opened to Redis")
	return clients, nil
}

func CloseRedis(clients map[int]*redis.Client) {
	for _, c := range clients {
		c.Close()
	}
}
