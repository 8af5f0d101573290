package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type options struct {
	redisClient *redis.Client
	ttl         time.Duration
	maxEntries  int
	keyPrefix   string
}

func defaultOptions() *options {
	return &options{
		ttl:        24 * time.Hour,
		maxEntries: 4096,
		keyPrefix:  "emb:",
	}
}

// Option configures a cache created by New.
type Option func(*options)

// WithRedisClient supplies the client used by the Redis backend.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) {
		o.redisClient = client
	}
}

// WithTTL sets entry lifetime for the Redis backend, which also
// refreshes it on every read.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithMaxEntries bounds the memory backend; the oldest entry is
// evicted when full.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithKeyPrefix sets the key namespace used in shared backends.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}
