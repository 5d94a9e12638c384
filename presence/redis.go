package presence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	connKeyPrefix = "presence:conn:"
	seenKeyPrefix = "presence:seen:"
)

// Redis keeps a connection counter per user. The counter expires after ttl
// so a crashed instance cannot leave users online forever; live sockets
// refresh it on every connect and disconnect.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedis(client *redis.Client, ttl time.Duration, now func() time.Time) *Redis {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &Redis{client: client, ttl: ttl, now: now}
}

func (r *Redis) Connect(ctx context.Context, userID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, connKeyPrefix+userID)
		pipe.Expire(ctx, connKeyPrefix+userID, r.ttl)
		pipe.Set(ctx, seenKeyPrefix+userID, r.now().Unix(), 0)
		return nil
	})
	return err
}

func (r *Redis) Disconnect(ctx context.Context, userID string) error {
	n, err := r.client.Decr(ctx, connKeyPrefix+userID).Result()
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if n <= 0 {
			pipe.Del(ctx, connKeyPrefix+userID)
		} else {
			pipe.Expire(ctx, connKeyPrefix+userID, r.ttl)
		}
		pipe.Set(ctx, seenKeyPrefix+userID, r.now().Unix(), 0)
		return nil
	})
	return err
}

// Touch extends the online window of a connected user.
func (r *Redis) Touch(ctx context.Context, userID string) error {
	return r.client.Expire(ctx, connKeyPrefix+userID, r.ttl).Err()
}

func (r *Redis) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Get(ctx, connKeyPrefix+userID).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	v, err := r.client.Get(ctx, seenKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(sec, 0).UTC(), true, nil
}
