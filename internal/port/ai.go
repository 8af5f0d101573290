package port

import (
	"context"

	"github.com/curiolabs/curio-graph/internal/domain"
)

// EmbeddingProvider abstracts the embedding backend.
// Implementations can target OpenAI, Ollama, or any compatible API.
type EmbeddingProvider interface {
	// ModelName returns the identifier of the embedding model in use.
	ModelName() string

	// Embed generates a vector embedding for the given text. Empty or
	// whitespace-only text is rejected with a ValidationError before
	// any upstream call.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Annotator supplies human-readable text describing how two posts
// relate. Failures are non-fatal to graph assembly: callers keep the
// edge and omit the text.
type Annotator interface {
	// Annotate returns a short relationship label for an edge between
	// two posts with the given similarity.
	Annotate(ctx context.Context, a, b domain.Post, similarity float64) (string, error)

	// Compare returns a detailed comparison of two posts.
	Compare(ctx context.Context, a, b domain.Post) (string, error)
}
