package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0, 0}, []float32{-1, 0, 0}), 1e-6)
	assert.InDelta(t, 0.7071, cosineSimilarity([]float32{1, 0, 0}, []float32{1, 1, 0}), 1e-3)
}

func TestCosineSimilarity_ZeroNormIsZero(t *testing.T) {
	assert.Zero(t, cosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}))
	assert.Zero(t, cosineSimilarity([]float32{1, 2, 3}, []float32{0, 0, 0}))
}

func TestMemoryVectorIndex_NearestNeighbors(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(3)

	require.NoError(t, idx.Upsert(ctx, "exact", []float32{1, 0, 0}))
	require.NoError(t, idx.Upsert(ctx, "close", []float32{0.9, 0.1, 0}))
	require.NoError(t, idx.Upsert(ctx, "orthogonal", []float32{0, 1, 0}))

	matches, err := idx.NearestNeighbors(ctx, []float32{1, 0, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].PostID)
	assert.Equal(t, "close", matches[1].PostID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}

func TestMemoryVectorIndex_ThresholdIsStrict(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(2)

	require.NoError(t, idx.Upsert(ctx, "orthogonal", []float32{0, 1}))

	// Similarity is exactly 0; threshold 0 must exclude it.
	matches, err := idx.NearestNeighbors(ctx, []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryVectorIndex_KCapsResults(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(2)

	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "b", []float32{1, 0.1}))
	require.NoError(t, idx.Upsert(ctx, "c", []float32{1, 0.2}))

	matches, err := idx.NearestNeighbors(ctx, []float32{1, 0}, 1, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].PostID)

	// Non-positive k means unlimited.
	matches, err = idx.NearestNeighbors(ctx, []float32{1, 0}, 0, 0.5)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestMemoryVectorIndex_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(2)

	require.NoError(t, idx.Upsert(ctx, "m1", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "m2", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "m3", []float32{1, 0}))

	matches, err := idx.NearestNeighbors(ctx, []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "m1", matches[0].PostID)
	assert.Equal(t, "m2", matches[1].PostID)
	assert.Equal(t, "m3", matches[2].PostID)
}

func TestMemoryVectorIndex_ReupsertKeepsSlot(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(2)

	require.NoError(t, idx.Upsert(ctx, "a", []float32{0, 1}))
	require.NoError(t, idx.Upsert(ctx, "b", []float32{1, 0}))
	// Re-upserting a must not move it behind b in tie order.
	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0}))

	matches, err := idx.NearestNeighbors(ctx, []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].PostID)
	assert.Equal(t, "b", matches[1].PostID)

	n, err := idx.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryVectorIndex_LatestVectorWins(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(2)

	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "a", []float32{0, 1}))

	v, err := idx.Vector(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, v)
}

func TestMemoryVectorIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(3)

	err := idx.Upsert(ctx, "bad", []float32{1, 0})
	var dimErr *port.DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Want)
	assert.Equal(t, 2, dimErr.Got)

	// The rejected vector must not be stored.
	n, err := idx.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = idx.NearestNeighbors(ctx, []float32{1, 0}, 10, 0)
	require.ErrorAs(t, err, &dimErr)
}

func TestMemoryVectorIndex_Similarity(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(3)

	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0, 0}))
	require.NoError(t, idx.Upsert(ctx, "b", []float32{1, 1, 0}))

	sim, err := idx.Similarity(ctx, "a", "b")
	require.NoError(t, err)
	assert.InDelta(t, 0.7071, sim, 1e-3)

	// Symmetric.
	rev, err := idx.Similarity(ctx, "b", "a")
	require.NoError(t, err)
	assert.InDelta(t, sim, rev, 1e-9)

	_, err = idx.Similarity(ctx, "a", "missing")
	assert.ErrorIs(t, err, port.ErrVectorNotFound)
}

func TestMemoryVectorIndex_ZeroVectorSimilarityIsZero(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(2)

	require.NoError(t, idx.Upsert(ctx, "zero", []float32{0, 0}))
	require.NoError(t, idx.Upsert(ctx, "unit", []float32{1, 0}))

	sim, err := idx.Similarity(ctx, "zero", "unit")
	require.NoError(t, err)
	assert.Zero(t, sim)
}

func TestMemoryVectorIndex_Remove(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(2)

	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Remove(ctx, "a"))
	require.NoError(t, idx.Remove(ctx, "a")) // absent id is a no-op

	n, err := idx.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	matches, err := idx.NearestNeighbors(ctx, []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryVectorIndex_CopiesVectors(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex(2)

	in := []float32{1, 0}
	require.NoError(t, idx.Upsert(ctx, "a", in))
	in[0] = 0 // caller reuses its slice

	stored, err := idx.Vector(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, stored)

	stored[1] = 99 // returned copy must not alias storage
	again, err := idx.Vector(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, again)
}

func TestMemoryPostRepository_SaveGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()

	p := &domain.Post{ID: "p1", Title: "First", Content: "hello", CreatedAt: time.Now()}
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrPostNotFound)
}

func TestMemoryPostRepository_GetBatchSkipsMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()

	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "p1", Title: "One"}))
	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "p2", Title: "Two"}))

	got, err := repo.GetBatch(ctx, []string{"p1", "nope", "p2"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p2", got[1].ID)
}

func TestMemoryPostRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "old", CreatedAt: base}))
	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "new", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "mid", CreatedAt: base.Add(time.Minute)}))

	posts, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "new", posts[0].ID)
	assert.Equal(t, "mid", posts[1].ID)
	assert.Equal(t, "old", posts[2].ID)

	posts, err = repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].ID)
}

func TestMemoryPostRepository_ListTiesByID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()

	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "b", CreatedAt: at}))
	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "a", CreatedAt: at}))

	posts, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a", posts[0].ID)
	assert.Equal(t, "b", posts[1].ID)
}

func TestMemoryPostRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()

	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "p1"}))
	require.NoError(t, repo.Delete(ctx, "p1"))

	err := repo.Delete(ctx, "p1")
	assert.True(t, errors.Is(err, port.ErrPostNotFound))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
