package port

import "context"

// EmbeddingCache stores computed embeddings keyed by model and text so
// repeated identical inputs skip the upstream provider. Lookups are
// best-effort: a cache error is treated as a miss by callers.
type EmbeddingCache interface {
	// Get returns the cached vector for key; ok is false on a miss.
	Get(ctx context.Context, key string) (vector []float32, ok bool, err error)

	// Set stores a vector under key.
	Set(ctx context.Context, key string, vector []float32) error

	// Close releases any resources held by the cache.
	Close() error
}
