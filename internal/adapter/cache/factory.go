// Package cache provides embedding cache backends behind a factory.
// The memory backend serves single-node development; Redis serves
// shared deployments where several instances embed the same corpus.
package cache

import (
	"errors"
	"fmt"

	"github.com/curiolabs/curio-graph/internal/port"
)

// CacheType identifies an embedding cache backend.
type CacheType string

const (
	// Memory is an in-process cache with a bounded entry count.
	Memory CacheType = "memory"
	// Redis is a shared cache with TTL-based expiry.
	Redis CacheType = "redis"
)

var (
	ErrUnknownCacheType    = errors.New("unknown cache type")
	ErrRedisClientRequired = errors.New("redis cache requires a client")
)

// New creates an embedding cache of the given type.
func New(cacheType CacheType, opts ...Option) (port.EmbeddingCache, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	switch cacheType {
	case Memory:
		return newMemoryCache(options), nil
	case Redis:
		if options.redisClient == nil {
			return nil, ErrRedisClientRequired
		}
		return newRedisCache(options), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCacheType, cacheType)
	}
}
