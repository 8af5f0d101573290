package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache stores vectors as JSON under prefixed keys. The TTL is
// refreshed on every read so hot entries stay alive.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func newRedisCache(o *options) *redisCache {
	return &redisCache{
		client: o.redisClient,
		ttl:    o.ttl,
		prefix: o.keyPrefix,
	}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}

	if c.ttl > 0 {
		c.client.Expire(ctx, c.prefix+key, c.ttl)
	}
	return vec, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, vector []float32) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
