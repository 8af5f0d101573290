package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio-graph/internal/adapter/store"
	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
)

func newPostFixture(vectors map[string][]float32) (*PostService, *store.MemoryVectorIndex, *store.MemoryPostRepository, *stubEmbedder) {
	embedder := &stubEmbedder{vectors: vectors}
	index := store.NewMemoryVectorIndex(3)
	posts := store.NewMemoryPostRepository()
	return NewPostService(embedder, index, posts), index, posts, embedder
}

func TestCreate_EmbedsAndStores(t *testing.T) {
	ctx := context.Background()
	svc, index, posts, _ := newPostFixture(map[string][]float32{
		"felines and friends": {1, 0, 0},
	})

	post, err := svc.Create(ctx, domain.PostInput{Title: "Cats", Content: "felines and friends", AuthorID: "u1"})
	require.NoError(t, err)

	assert.Len(t, post.ID, 36)
	assert.False(t, post.CreatedAt.IsZero())
	assert.Equal(t, "Cats", post.Title)
	assert.Equal(t, "u1", post.AuthorID)

	stored, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "felines and friends", stored.Content)

	v, err := index.Vector(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, v)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, index, posts, embedder := newPostFixture(nil)

	cases := []struct {
		name  string
		input domain.PostInput
		field string
	}{
		{"missing title", domain.PostInput{Content: "body"}, "title"},
		{"missing content", domain.PostInput{Title: "T"}, "content"},
		{"title too long", domain.PostInput{Title: strings.Repeat("t", 256), Content: "body"}, "title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			var verr *port.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	assert.Zero(t, embedder.calls())
	n, _ := posts.Count(ctx)
	assert.Zero(t, n)
	m, _ := index.Len(ctx)
	assert.Zero(t, m)
}

func TestCreate_EmbedFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	svc, index, posts, embedder := newPostFixture(nil)
	embedder.err = errors.New("provider down")

	_, err := svc.Create(ctx, domain.PostInput{Title: "T", Content: "body"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed post")

	n, _ := posts.Count(ctx)
	assert.Zero(t, n)
	m, _ := index.Len(ctx)
	assert.Zero(t, m)
}

func TestCreate_DimensionMismatchPersistsNothing(t *testing.T) {
	ctx := context.Background()
	svc, index, posts, _ := newPostFixture(map[string][]float32{
		"body": {1, 0}, // wrong length for a dimension-3 index
	})

	_, err := svc.Create(ctx, domain.PostInput{Title: "T", Content: "body"})
	var dimErr *port.DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)

	n, _ := posts.Count(ctx)
	assert.Zero(t, n)
	m, _ := index.Len(ctx)
	assert.Zero(t, m)
}

func TestUpdate_ReembedsContent(t *testing.T) {
	ctx := context.Background()
	svc, index, posts, _ := newPostFixture(map[string][]float32{
		"old body": {1, 0, 0},
		"new body": {0, 1, 0},
	})

	created, err := svc.Create(ctx, domain.PostInput{Title: "Old", Content: "old body"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, domain.PostInput{Title: "New", Content: "new body"})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "New", updated.Title)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	v, err := index.Vector(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, v)

	stored, err := posts.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new body", stored.Content)
}

func TestUpdate_MissingPost(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newPostFixture(nil)

	_, err := svc.Update(ctx, "nope", domain.PostInput{Title: "T", Content: "body"})
	assert.ErrorIs(t, err, port.ErrPostNotFound)
}

func TestUpdate_EmbedFailureKeepsOldState(t *testing.T) {
	ctx := context.Background()
	svc, index, posts, embedder := newPostFixture(map[string][]float32{
		"old body": {1, 0, 0},
	})

	created, err := svc.Create(ctx, domain.PostInput{Title: "Old", Content: "old body"})
	require.NoError(t, err)

	embedder.err = errors.New("provider down")
	_, err = svc.Update(ctx, created.ID, domain.PostInput{Title: "New", Content: "new body"})
	require.Error(t, err)

	stored, err := posts.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", stored.Title)

	v, err := index.Vector(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, v)
}

func TestDelete_RemovesPostAndVector(t *testing.T) {
	ctx := context.Background()
	svc, index, posts, _ := newPostFixture(map[string][]float32{
		"body": {1, 0, 0},
	})

	created, err := svc.Create(ctx, domain.PostInput{Title: "T", Content: "body"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	n, _ := posts.Count(ctx)
	assert.Zero(t, n)
	m, _ := index.Len(ctx)
	assert.Zero(t, m)

	err = svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, port.ErrPostNotFound)
}

func TestStatsAndModel(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newPostFixture(map[string][]float32{
		"body": {1, 0, 0},
	})

	_, err := svc.Create(ctx, domain.PostInput{Title: "T", Content: "body"})
	require.NoError(t, err)

	posts, vectors, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, posts)
	assert.Equal(t, 1, vectors)
	assert.Equal(t, "stub-model", svc.Model())
}

func TestCreateThenSearch_ImmediatelyVisible(t *testing.T) {
	ctx := context.Background()
	svc, index, posts, embedder := newPostFixture(map[string][]float32{
		"all about felines": {1, 0, 0},
		"find me":           {1, 0, 0},
	})
	graphs := NewGraphService(embedder, index, posts, nil, 4)

	created, err := svc.Create(ctx, domain.PostInput{Title: "Cats", Content: "all about felines"})
	require.NoError(t, err)

	g, err := graphs.Search(ctx, domain.DefaultSearchParams("find me"))
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, created.ID, g.Nodes[1].ID)
	require.Len(t, g.Edges, 1)
	assert.InDelta(t, 1.0, g.Edges[0].Similarity, 1e-6)
}

func TestReindex_ReembedsWholeCorpus(t *testing.T) {
	ctx := context.Background()
	svc, index, _, embedder := newPostFixture(map[string][]float32{
		"c1": {1, 0, 0},
		"c2": {0, 1, 0},
		"c3": {0, 0, 1},
	})

	var ids []string
	for _, content := range []string{"c1", "c2", "c3"} {
		p, err := svc.Create(ctx, domain.PostInput{Title: content, Content: content})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	// A new model produces different vectors for the same content.
	embedder.mu.Lock()
	embedder.vectors["c1"] = []float32{0, 0, 1}
	embedder.vectors["c2"] = []float32{1, 0, 0}
	embedder.vectors["c3"] = []float32{0, 1, 0}
	embedder.mu.Unlock()

	var progress [][2]int
	done, err := svc.Reindex(ctx, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, 3, done)
	assert.Equal(t, [][2]int{{3, 3}}, progress)

	byID := map[string][]float32{}
	for _, id := range ids {
		v, err := index.Vector(ctx, id)
		require.NoError(t, err)
		byID[id] = v
	}
	// Every post carries its freshly embedded vector.
	for i, content := range []string{"c1", "c2", "c3"} {
		embedder.mu.Lock()
		want := embedder.vectors[content]
		embedder.mu.Unlock()
		assert.Equal(t, want, byID[ids[i]], "post %s", content)
	}

	n, err := index.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReindex_EmbedFailureStops(t *testing.T) {
	ctx := context.Background()
	svc, _, _, embedder := newPostFixture(map[string][]float32{
		"c1": {1, 0, 0},
	})

	_, err := svc.Create(ctx, domain.PostInput{Title: "T", Content: "c1"})
	require.NoError(t, err)

	embedder.err = errors.New("provider down")
	done, err := svc.Reindex(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed batch")
	assert.Zero(t, done)
}

func TestReindex_EmptyCorpus(t *testing.T) {
	ctx := context.Background()
	svc, _, _, embedder := newPostFixture(nil)

	done, err := svc.Reindex(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, done)
	assert.Zero(t, embedder.batchCalls)
}
