package cache

import (
	"context"
	"sync"
)

// memoryCache is a bounded in-process cache with oldest-first
// eviction.
type memoryCache struct {
	mu         sync.Mutex
	entries    map[string][]float32
	order      []string
	maxEntries int
}

func newMemoryCache(o *options) *memoryCache {
	return &memoryCache{
		entries:    make(map[string][]float32),
		maxEntries: o.maxEntries,
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vec, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for c.maxEntries > 0 && len(c.order) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}

	owned := make([]float32, len(vector))
	copy(owned, vector)
	c.entries[key] = owned
	return nil
}

func (c *memoryCache) Close() error {
	return nil
}
