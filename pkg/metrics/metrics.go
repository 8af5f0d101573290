package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Global collectors, registered on import via promauto.

var (
	// HTTPRequestsTotal counts requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curiograph_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures server response time per route.
	// Buckets run from sub-millisecond store hits to multi-second
	// embedding and annotation calls.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curiograph_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// SearchesTotal counts graph searches by outcome (ok, empty, error).
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curiograph_searches_total",
			Help: "Total number of graph searches",
		},
		[]string{"outcome"},
	)

	// SearchCandidates observes the coarse-stage candidate count per
	// search; the pairwise stage is quadratic in this number.
	SearchCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "curiograph_search_candidates",
			Help:    "Candidate posts returned by the coarse retrieval stage",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 35, 50, 100, 200},
		},
	)

	// GraphEdges observes the edge count of returned graphs.
	GraphEdges = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "curiograph_graph_edges",
			Help:    "Edges per returned graph",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// EmbeddingCalls counts provider calls by provider and status.
	EmbeddingCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curiograph_embedding_calls_total",
			Help: "Total number of embedding provider calls",
		},
		[]string{"provider", "status"},
	)

	// EmbeddingDuration measures embedding call latency per provider.
	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curiograph_embedding_duration_seconds",
			Help:    "Duration of embedding provider calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	// EmbeddingCacheRequests counts cache lookups by result (hit, miss).
	EmbeddingCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curiograph_embedding_cache_requests_total",
			Help: "Embedding cache lookups by result",
		},
		[]string{"result"},
	)

	// IndexedVectors tracks the number of vectors in the index.
	IndexedVectors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "curiograph_indexed_vectors",
			Help: "Total number of indexed vectors",
		},
	)
)
