package port

import (
	"context"

	"github.com/curiolabs/curio-graph/internal/domain"
)

// VectorIndex stores (post ID, vector) pairs and answers similarity
// queries. All vectors share one fixed dimension; inserts of any other
// length fail with a DimensionMismatchError and leave the index
// untouched. Vectors are immutable once upserted, so concurrent reads
// need no coordination.
type VectorIndex interface {
	// Dimension returns the fixed vector dimension of the index.
	Dimension() int

	// Upsert inserts or replaces the vector for id. Re-upserting an id
	// keeps its original insertion position so tie ordering in search
	// results stays stable.
	Upsert(ctx context.Context, id string, vector []float32) error

	// NearestNeighbors returns up to k entries whose cosine similarity
	// to vector is strictly greater than threshold, ordered descending,
	// ties broken by insertion order.
	NearestNeighbors(ctx context.Context, vector []float32, k int, threshold float64) ([]domain.Match, error)

	// Similarity computes cosine similarity between two stored vectors.
	// Returns ErrVectorNotFound if either id is absent.
	Similarity(ctx context.Context, idA, idB string) (float64, error)

	// Vector returns a copy of the stored vector for id, or
	// ErrVectorNotFound.
	Vector(ctx context.Context, id string) ([]float32, error)

	// Remove deletes the vector for id. Absent ids are not an error.
	Remove(ctx context.Context, id string) error

	// Len reports the number of stored vectors.
	Len(ctx context.Context) (int, error)
}

// PostRepository persists posts.
type PostRepository interface {
	// Save inserts or replaces a post by ID.
	Save(ctx context.Context, p *domain.Post) error

	// Get returns the post with the given ID, or ErrPostNotFound.
	Get(ctx context.Context, id string) (*domain.Post, error)

	// GetBatch returns the posts for the given IDs. Missing IDs are
	// skipped, not an error; order is unspecified.
	GetBatch(ctx context.Context, ids []string) ([]domain.Post, error)

	// List returns posts newest first. A non-positive limit returns
	// the whole corpus.
	List(ctx context.Context, limit int) ([]domain.Post, error)

	// Delete removes a post. Returns ErrPostNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Count reports the number of stored posts.
	Count(ctx context.Context) (int, error)
}
