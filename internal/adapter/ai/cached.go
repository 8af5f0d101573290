package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/curiolabs/curio-graph/internal/port"
	"github.com/curiolabs/curio-graph/pkg/metrics"
)

// CachedProvider wraps an EmbeddingProvider with an EmbeddingCache so
// repeated identical texts skip the upstream call. Cache failures are
// logged and fall through to the provider; the cache is never allowed
// to fail a request.
type CachedProvider struct {
	inner port.EmbeddingProvider
	cache port.EmbeddingCache
}

// NewCachedProvider wraps inner with cache.
func NewCachedProvider(inner port.EmbeddingProvider, cache port.EmbeddingCache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

// ModelName returns the wrapped provider's model identifier.
func (p *CachedProvider) ModelName() string {
	return p.inner.ModelName()
}

// Embed returns the cached vector for text when present, otherwise
// delegates to the provider and stores the result.
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(p.inner.ModelName(), text)

	if vec, ok, err := p.cache.Get(ctx, key); err == nil && ok {
		metrics.EmbeddingCacheRequests.WithLabelValues("hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheRequests.WithLabelValues("miss").Inc()

	vec, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, vec); err != nil {
		slog.Warn("embedding cache write failed", "error", err)
	}
	return vec, nil
}

// EmbedBatch resolves cached entries first and embeds only the misses,
// preserving input order in the result.
func (p *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		key := cacheKey(p.inner.ModelName(), text)
		if vec, ok, err := p.cache.Get(ctx, key); err == nil && ok {
			metrics.EmbeddingCacheRequests.WithLabelValues("hit").Inc()
			vectors[i] = vec
			continue
		}
		metrics.EmbeddingCacheRequests.WithLabelValues("miss").Inc()
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) > 0 {
		fresh, err := p.inner.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(fresh) != len(missTexts) {
			return nil, fmt.Errorf("embed batch: got %d vectors for %d texts", len(fresh), len(missTexts))
		}
		for n, i := range missIdx {
			vectors[i] = fresh[n]
			if err := p.cache.Set(ctx, cacheKey(p.inner.ModelName(), texts[i]), fresh[n]); err != nil {
				slog.Warn("embedding cache write failed", "error", err)
			}
		}
	}

	return vectors, nil
}

// cacheKey derives a stable key from model and text. Keys are hashed
// so arbitrary-length content never leaks into cache key space.
func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
