package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter uses INCR. Each increment refreshes the key TTL so stale daily counters age out.
type RedisCounter struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Counter = (*RedisCounter)(nil)

func NewRedisCounter(client *redis.Client, prefix string, ttl time.Duration) *RedisCounter {
	if prefix == "" {
		prefix = "seq"
	}
	return &RedisCounter{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCounter) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrInvalidCounter
	}
	key := c.prefix + ":" + name
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("next counter %s: %w", name, err)
	}
	return incr.Val(), nil
}
