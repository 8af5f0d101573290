package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/blas/gonum"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
)

var blasEngine = gonum.Implementation{}

// cosineSimilarity computes the cosine of the angle between two equal
// length vectors. A zero-norm vector has similarity 0 to everything.
func cosineSimilarity(a, b []float32) float64 {
	normA := float64(blasEngine.Snrm2(len(a), a, 1))
	normB := float64(blasEngine.Snrm2(len(b), b, 1))
	if normA == 0 || normB == 0 {
		return 0
	}
	dot := float64(blasEngine.Sdot(len(a), a, 1, b, 1))
	return dot / (normA * normB)
}

// --- Vector index ---

// MemoryVectorIndex is an in-process vector index with exact cosine
// search. First-insertion order is tracked so equal-similarity results
// come back in a stable order, and re-upserting an id keeps its slot.
type MemoryVectorIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string][]float32
	order     []string
}

// NewMemoryVectorIndex creates an empty index with a fixed dimension.
func NewMemoryVectorIndex(dimension int) *MemoryVectorIndex {
	return &MemoryVectorIndex{
		dimension: dimension,
		vectors:   make(map[string][]float32),
	}
}

// Dimension returns the fixed vector dimension of the index.
func (m *MemoryVectorIndex) Dimension() int {
	return m.dimension
}

// Upsert inserts or replaces the vector for id.
func (m *MemoryVectorIndex) Upsert(ctx context.Context, id string, vector []float32) error {
	if len(vector) != m.dimension {
		return &port.DimensionMismatchError{Want: m.dimension, Got: len(vector)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.vectors[id]; !exists {
		m.order = append(m.order, id)
	}
	// Copy so callers can reuse their slice.
	owned := make([]float32, len(vector))
	copy(owned, vector)
	m.vectors[id] = owned
	return nil
}

// NearestNeighbors returns up to k entries with similarity strictly
// above threshold, descending, ties in insertion order.
func (m *MemoryVectorIndex) NearestNeighbors(ctx context.Context, vector []float32, k int, threshold float64) ([]domain.Match, error) {
	if len(vector) != m.dimension {
		return nil, &port.DimensionMismatchError{Want: m.dimension, Got: len(vector)}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]domain.Match, 0, len(m.order))
	for _, id := range m.order {
		sim := cosineSimilarity(vector, m.vectors[id])
		if sim > threshold {
			matches = append(matches, domain.Match{PostID: id, Similarity: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Similarity computes cosine similarity between two stored vectors.
func (m *MemoryVectorIndex) Similarity(ctx context.Context, idA, idB string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.vectors[idA]
	if !ok {
		return 0, fmt.Errorf("vector %s: %w", idA, port.ErrVectorNotFound)
	}
	b, ok := m.vectors[idB]
	if !ok {
		return 0, fmt.Errorf("vector %s: %w", idB, port.ErrVectorNotFound)
	}
	return cosineSimilarity(a, b), nil
}

// Vector returns a copy of the stored vector for id.
func (m *MemoryVectorIndex) Vector(ctx context.Context, id string) ([]float32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vectors[id]
	if !ok {
		return nil, fmt.Errorf("vector %s: %w", id, port.ErrVectorNotFound)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, nil
}

// Remove deletes the vector for id. Absent ids are a no-op.
func (m *MemoryVectorIndex) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.vectors[id]; !ok {
		return nil
	}
	delete(m.vectors, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len reports the number of stored vectors.
func (m *MemoryVectorIndex) Len(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors), nil
}

// --- Post repository ---

// MemoryPostRepository is an in-process post store. Suitable for
// development and tests; the Postgres adapters cover deployment.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]domain.Post
}

// NewMemoryPostRepository creates an empty repository.
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[string]domain.Post),
	}
}

// Save inserts or replaces a post by ID.
func (r *MemoryPostRepository) Save(ctx context.Context, p *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[p.ID] = *p
	return nil
}

// Get returns the post with the given ID.
func (r *MemoryPostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, port.ErrPostNotFound)
	}
	return &p, nil
}

// GetBatch returns the posts for the given IDs, skipping missing ones.
func (r *MemoryPostRepository) GetBatch(ctx context.Context, ids []string) ([]domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// List returns posts newest first. A non-positive limit returns all.
func (r *MemoryPostRepository) List(ctx context.Context, limit int) ([]domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a post.
func (r *MemoryPostRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, port.ErrPostNotFound)
	}
	delete(r.posts, id)
	return nil
}

// Count reports the number of stored posts.
func (r *MemoryPostRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts), nil
}
