package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio-graph/internal/adapter/store"
	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/service"
)

// stubEmbedder serves canned vectors keyed by input text.
type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) ModelName() string { return "stub-model" }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no stub vector for %q", text)
	}
	return v, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// testEnv wires the full route table over memory adapters.
type testEnv struct {
	app      *fiber.App
	embedder *stubEmbedder
	index    *store.MemoryVectorIndex
	posts    *store.MemoryPostRepository
	tracker  *JobTracker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	index := store.NewMemoryVectorIndex(3)
	posts := store.NewMemoryPostRepository()

	postSvc := service.NewPostService(embedder, index, posts)
	graphSvc := service.NewGraphService(embedder, index, posts, nil, 4)

	app := fiber.New()
	api := app.Group("/api/v1")

	tracker := NewJobTracker()
	NewSearchHandler(graphSvc).Register(api)
	NewPostHandler(postSvc).Register(api)
	NewGraphHandler(graphSvc).Register(api)
	NewRelationshipHandler(graphSvc).Register(api)
	NewReindexHandler(postSvc, tracker).Register(api)
	NewJobsHandler(tracker).Register(api)

	return &testEnv{app: app, embedder: embedder, index: index, posts: posts, tracker: tracker}
}

// seedPets stores three posts: cats and dogs are close to each other
// and to the "pets" query vector, quantum is orthogonal to both.
func (e *testEnv) seedPets(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	e.embedder.vectors["pets"] = []float32{0.95, 0.25, 0}

	seed := []struct {
		id, title, content string
		vector             []float32
	}{
		{"cats", "All about cats", "Cats are small domestic felines.", []float32{1, 0.2, 0}},
		{"dogs", "All about dogs", "Dogs are loyal domestic companions.", []float32{0.9, 0.3, 0}},
		{"quantum", "Quantum computing", "Qubits exploit superposition.", []float32{0, 0, 1}},
	}
	for i, s := range seed {
		p := &domain.Post{
			ID:        s.id,
			Title:     s.title,
			Content:   s.content,
			CreatedAt: time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, e.posts.Save(ctx, p))
		require.NoError(t, e.index.Upsert(ctx, s.id, s.vector))
	}
}

func (e *testEnv) request(t *testing.T, method, target, body string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
