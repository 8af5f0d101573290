package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
	"github.com/curiolabs/curio-graph/pkg/metrics"
)

// GraphService builds similarity graphs in two stages: a bounded
// coarse retrieval against the vector index, then exact pairwise
// refinement within the candidate set only. The pairwise stage is
// quadratic in the candidate count, never in corpus size.
type GraphService struct {
	embedder  port.EmbeddingProvider
	index     port.VectorIndex
	posts     port.PostRepository
	annotator port.Annotator
	layout    *LayoutEngine
	workers   int
}

// NewGraphService wires the graph service. A nil annotator disables
// relationship text entirely; edges still carry similarities.
func NewGraphService(embedder port.EmbeddingProvider, index port.VectorIndex, posts port.PostRepository, annotator port.Annotator, workers int) *GraphService {
	if workers <= 0 {
		workers = 8
	}
	return &GraphService{
		embedder:  embedder,
		index:     index,
		posts:     posts,
		annotator: annotator,
		layout:    NewLayoutEngine(),
		workers:   workers,
	}
}

// Search runs one query-anchored graph search.
func (s *GraphService) Search(ctx context.Context, params domain.SearchParams) (*domain.Graph, error) {
	if err := checkStruct(&params); err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	// An empty query is a valid no-op: nothing to embed, nothing to
	// match.
	if strings.TrimSpace(params.Query) == "" {
		metrics.SearchesTotal.WithLabelValues("empty").Inc()
		return domain.EmptyGraph(), nil
	}

	slog.Info("graph search", "query", params.Query, "limit", params.Limit,
		"match_threshold", params.MatchThreshold, "edge_threshold", params.EdgeThreshold)

	// 1. Embed the query
	queryVector, err := s.embedder.Embed(ctx, params.Query)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Coarse retrieval against the whole index
	matches, err := s.index.NearestNeighbors(ctx, queryVector, params.Limit, params.MatchThreshold)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}
	metrics.SearchCandidates.Observe(float64(len(matches)))
	if len(matches) == 0 {
		metrics.SearchesTotal.WithLabelValues("empty").Inc()
		return domain.EmptyGraph(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. Load the matched posts. An index entry with no stored post is
	// dropped from the graph, not an error.
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.PostID
	}
	loaded, err := s.posts.GetBatch(ctx, ids)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load posts: %w", err)
	}
	byID := make(map[string]domain.Post, len(loaded))
	for _, p := range loaded {
		byID[p.ID] = p
	}

	graph := domain.EmptyGraph()
	graph.Nodes = append(graph.Nodes, domain.GraphNode{
		Post: domain.Post{
			ID:      domain.QueryNodeID,
			Title:   "Query: " + params.Query,
			Content: params.Query,
		},
		IsQuery: true,
	})

	// Node order follows match order, similarity descending.
	var kept []domain.Match
	for _, m := range matches {
		p, ok := byID[m.PostID]
		if !ok {
			slog.Warn("match without stored post, dropping", "post_id", m.PostID)
			continue
		}
		graph.Nodes = append(graph.Nodes, domain.GraphNode{Post: p})
		kept = append(kept, m)
	}

	// 4. Query edges carry the coarse-stage similarity. They are part
	// of every result; the edge threshold applies only to post pairs.
	for _, m := range kept {
		graph.Edges = append(graph.Edges, domain.GraphEdge{
			ID:           domain.QueryEdgeID(m.PostID),
			Source:       domain.QueryNodeID,
			Target:       m.PostID,
			Similarity:   m.Similarity,
			Relationship: fmt.Sprintf("Query: '%s' matched this post", params.Query),
		})
	}

	// 5. Pairwise refinement within the candidate set
	pairEdges, err := s.refine(ctx, kept, params.EdgeThreshold)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	graph.Edges = append(graph.Edges, pairEdges...)

	// 6. Geometry, then annotation. A failed annotator leaves a fully
	// positioned graph.
	s.layout.Assign(graph.Nodes, params.LayoutSeed)
	s.annotate(ctx, graph, byID)

	metrics.SearchesTotal.WithLabelValues("ok").Inc()
	metrics.GraphEdges.Observe(float64(len(graph.Edges)))
	slog.Info("graph search done", "nodes", len(graph.Nodes), "edges", len(graph.Edges))
	return graph, nil
}

// Browse builds a graph over the most recent posts with no query
// anchor: every stored pair strictly above the threshold becomes an
// edge. Posts without a vector stay in the node set but get no edges.
func (s *GraphService) Browse(ctx context.Context, limit int, edgeThreshold float64, seed uint64) (*domain.Graph, error) {
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	if limit > domain.MaxLimit {
		return nil, &port.ValidationError{Field: "limit", Reason: fmt.Sprintf("must satisfy lte=%d", domain.MaxLimit)}
	}
	if edgeThreshold < 0 || edgeThreshold > 1 {
		return nil, &port.ValidationError{Field: "edge_threshold", Reason: "must satisfy gte=0,lte=1"}
	}

	slog.Info("graph browse", "limit", limit, "edge_threshold", edgeThreshold)

	posts, err := s.posts.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if len(posts) == 0 {
		return domain.EmptyGraph(), nil
	}

	graph := domain.EmptyGraph()
	byID := make(map[string]domain.Post, len(posts))
	matches := make([]domain.Match, len(posts))
	for i, p := range posts {
		byID[p.ID] = p
		graph.Nodes = append(graph.Nodes, domain.GraphNode{Post: p})
		matches[i] = domain.Match{PostID: p.ID}
	}

	edges, err := s.refine(ctx, matches, edgeThreshold)
	if err != nil {
		return nil, err
	}
	graph.Edges = append(graph.Edges, edges...)

	s.layout.Assign(graph.Nodes, seed)
	s.annotate(ctx, graph, byID)

	metrics.GraphEdges.Observe(float64(len(graph.Edges)))
	return graph, nil
}

// Relationship compares two posts in depth: stored-vector similarity
// plus analysis text. The analysis degrades to a fixed notice when the
// annotator is missing or fails; the similarity is always computed.
func (s *GraphService) Relationship(ctx context.Context, idA, idB string) (*domain.RelationshipDetail, error) {
	a, err := s.posts.Get(ctx, idA)
	if err != nil {
		return nil, err
	}
	b, err := s.posts.Get(ctx, idB)
	if err != nil {
		return nil, err
	}

	sim, err := s.index.Similarity(ctx, idA, idB)
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	analysis := "AI analysis unavailable."
	if s.annotator != nil {
		text, err := s.annotator.Compare(ctx, *a, *b)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("relationship analysis failed", "post_a", idA, "post_b", idB, "error", err)
		} else {
			analysis = text
		}
	}

	return &domain.RelationshipDetail{
		PostA:      a.Preview("Post 1"),
		PostB:      b.Preview("Post 2"),
		Similarity: sim,
		Analysis:   analysis,
	}, nil
}

// refine computes exact similarities for every unordered candidate
// pair and keeps those strictly above threshold. Pairs run on a
// bounded worker pool; output order is deterministic regardless of
// completion order. A pair whose vector went missing mid-request is
// skipped, not fatal.
func (s *GraphService) refine(ctx context.Context, matches []domain.Match, threshold float64) ([]domain.GraphEdge, error) {
	if len(matches) < 2 {
		return nil, nil
	}

	type pair struct{ i, j int }
	pairs := make([]pair, 0, len(matches)*(len(matches)-1)/2)
	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	sims := make([]float64, len(pairs))
	errs := make([]error, len(pairs))

	workers := s.workers
	if workers > len(pairs) {
		workers = len(pairs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				p := pairs[idx]
				sims[idx], errs[idx] = s.index.Similarity(ctx, matches[p.i].PostID, matches[p.j].PostID)
			}
		}()
	}

feed:
	for idx := range pairs {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var edges []domain.GraphEdge
	for idx, p := range pairs {
		if err := errs[idx]; err != nil {
			if errors.Is(err, port.ErrVectorNotFound) {
				slog.Warn("candidate vector missing, skipping pair",
					"post_a", matches[p.i].PostID, "post_b", matches[p.j].PostID)
				continue
			}
			return nil, fmt.Errorf("pairwise similarity: %w", err)
		}
		if sims[idx] > threshold {
			edges = append(edges, domain.GraphEdge{
				ID:         domain.EdgeID(matches[p.i].PostID, matches[p.j].PostID),
				Source:     matches[p.i].PostID,
				Target:     matches[p.j].PostID,
				Similarity: sims[idx],
			})
		}
	}
	return edges, nil
}

// annotate fills relationship text on post-post edges. A failed edge
// keeps its similarity and loses only the text.
func (s *GraphService) annotate(ctx context.Context, graph *domain.Graph, byID map[string]domain.Post) {
	if s.annotator == nil {
		return
	}

	for i := range graph.Edges {
		if ctx.Err() != nil {
			return
		}
		e := &graph.Edges[i]
		if e.Source == domain.QueryNodeID || e.Relationship != "" {
			continue
		}
		a, okA := byID[e.Source]
		b, okB := byID[e.Target]
		if !okA || !okB {
			continue
		}

		text, err := s.annotator.Annotate(ctx, a, b, e.Similarity)
		if err != nil {
			slog.Warn("edge annotation failed", "edge", e.ID, "error", err)
			continue
		}
		e.Relationship = text
	}
}
