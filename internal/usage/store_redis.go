package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"personlens/internal/platform/redis"
)

// RedisStore keeps usage counters in Redis. Counters carry an expiry so
// finished months age out on their own.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps the shared Redis client as a counter store.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Count(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get usage counter: %w", err)
	}
	return count, nil
}

func (s *RedisStore) Add(ctx context.Context, key string, n int64, expiry time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.IncrBy(ctx, key, n)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment usage counter: %w", err)
	}
	return nil
}
