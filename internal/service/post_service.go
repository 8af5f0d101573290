package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
	"github.com/curiolabs/curio-graph/pkg/metrics"
)

// reindexBatchSize bounds the per-call batch sent to the embedding
// provider during a reindex.
const reindexBatchSize = 32

// PostService owns the post lifecycle. A post is acknowledged only
// once both its row and its vector are stored: create and update embed
// synchronously, and a failed embedding fails the write with nothing
// persisted.
type PostService struct {
	embedder port.EmbeddingProvider
	index    port.VectorIndex
	posts    port.PostRepository
}

// NewPostService wires the post service.
func NewPostService(embedder port.EmbeddingProvider, index port.VectorIndex, posts port.PostRepository) *PostService {
	return &PostService{embedder: embedder, index: index, posts: posts}
}

// Create validates, embeds, and persists a new post.
func (s *PostService) Create(ctx context.Context, input domain.PostInput) (*domain.Post, error) {
	if err := checkStruct(&input); err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Content:   input.Content,
		AuthorID:  input.AuthorID,
		CreatedAt: time.Now().UTC(),
	}

	// 1. Embed before any write; a provider failure persists nothing
	vector, err := s.embedder.Embed(ctx, post.Content)
	if err != nil {
		return nil, fmt.Errorf("embed post: %w", err)
	}

	// 2. Vector first, row second
	if err := s.index.Upsert(ctx, post.ID, vector); err != nil {
		return nil, fmt.Errorf("index post: %w", err)
	}
	if err := s.posts.Save(ctx, post); err != nil {
		if rerr := s.index.Remove(ctx, post.ID); rerr != nil {
			slog.Error("rollback vector failed", "post_id", post.ID, "error", rerr)
		}
		return nil, fmt.Errorf("save post: %w", err)
	}

	s.trackIndexSize(ctx)
	slog.Info("post created", "post_id", post.ID, "title", post.Title)
	return post, nil
}

// Update replaces a post's fields and re-embeds its content under the
// same acknowledgment contract as Create.
func (s *PostService) Update(ctx context.Context, id string, input domain.PostInput) (*domain.Post, error) {
	if err := checkStruct(&input); err != nil {
		return nil, err
	}

	existing, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Title = input.Title
	updated.Content = input.Content
	updated.AuthorID = input.AuthorID

	vector, err := s.embedder.Embed(ctx, updated.Content)
	if err != nil {
		return nil, fmt.Errorf("embed post: %w", err)
	}

	// Keep the previous vector around so a failed row write can be
	// rolled back to a consistent pair.
	prev, prevErr := s.index.Vector(ctx, id)
	if prevErr != nil {
		slog.Warn("previous vector unavailable", "post_id", id, "error", prevErr)
	}

	if err := s.index.Upsert(ctx, id, vector); err != nil {
		return nil, fmt.Errorf("index post: %w", err)
	}
	if err := s.posts.Save(ctx, &updated); err != nil {
		if prevErr == nil {
			if rerr := s.index.Upsert(ctx, id, prev); rerr != nil {
				slog.Error("rollback vector failed", "post_id", id, "error", rerr)
			}
		}
		return nil, fmt.Errorf("save post: %w", err)
	}

	slog.Info("post updated", "post_id", id)
	return &updated, nil
}

// Delete removes a post and its vector.
func (s *PostService) Delete(ctx context.Context, id string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.index.Remove(ctx, id); err != nil {
		slog.Error("remove vector failed", "post_id", id, "error", err)
	}

	s.trackIndexSize(ctx)
	slog.Info("post deleted", "post_id", id)
	return nil
}

// Get returns a single post.
func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	return s.posts.Get(ctx, id)
}

// List returns posts newest first.
func (s *PostService) List(ctx context.Context, limit int) ([]domain.Post, error) {
	return s.posts.List(ctx, limit)
}

// Count reports the number of stored posts.
func (s *PostService) Count(ctx context.Context) (int, error) {
	return s.posts.Count(ctx)
}

// Stats reports corpus size: stored posts and indexed vectors.
func (s *PostService) Stats(ctx context.Context) (posts, vectors int, err error) {
	posts, err = s.posts.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	vectors, err = s.index.Len(ctx)
	if err != nil {
		return 0, 0, err
	}
	return posts, vectors, nil
}

// Model returns the embedding model identifier in use.
func (s *PostService) Model() string {
	return s.embedder.ModelName()
}

// Reindex re-embeds the whole corpus into the index in batches,
// reporting progress through onProgress. It returns the number of
// posts indexed before any failure.
func (s *PostService) Reindex(ctx context.Context, onProgress func(done, total int)) (int, error) {
	posts, err := s.posts.List(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("list posts: %w", err)
	}
	total := len(posts)
	slog.Info("reindex started", "posts", total, "model", s.embedder.ModelName())

	done := 0
	for start := 0; start < total; start += reindexBatchSize {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		end := start + reindexBatchSize
		if end > total {
			end = total
		}
		batch := posts[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Content
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return done, fmt.Errorf("embed batch at %d: %w", start, err)
		}

		for i, p := range batch {
			if err := s.index.Upsert(ctx, p.ID, vectors[i]); err != nil {
				return done, fmt.Errorf("index post %s: %w", p.ID, err)
			}
			done++
		}
		if onProgress != nil {
			onProgress(done, total)
		}
	}

	s.trackIndexSize(ctx)
	slog.Info("reindex finished", "posts", done)
	return done, nil
}

func (s *PostService) trackIndexSize(ctx context.Context) {
	if n, err := s.index.Len(ctx); err == nil {
		metrics.IndexedVectors.Set(float64(n))
	}
}
