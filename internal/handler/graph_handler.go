package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/service"
)

// GraphHandler exposes the no-query browse graph.
type GraphHandler struct {
	graphs *service.GraphService
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(graphs *service.GraphService) *GraphHandler {
	return &GraphHandler{graphs: graphs}
}

// Register sets up graph routes.
func (h *GraphHandler) Register(api fiber.Router) {
	api.Get("/graph", h.Browse)
}

// Browse returns a graph over the most recent posts with all-pairs
// edges and no query node.
func (h *GraphHandler) Browse(c fiber.Ctx) error {
	limit := queryInt(c, "limit", domain.DefaultLimit)
	threshold := queryFloat(c, "edge_threshold", domain.DefaultBrowseEdgeThreshold)
	seed := queryUint64(c, "layout_seed", 0)

	graph, err := h.graphs.Browse(c.Context(), limit, threshold, seed)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(graph)
}

// queryInt reads an integer query param with a default value.
func queryInt(c fiber.Ctx, key string, defaultVal int) int {
	v := c.Query(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryFloat reads a float query param with a default value.
func queryFloat(c fiber.Ctx, key string, defaultVal float64) float64 {
	v := c.Query(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

// queryUint64 reads an unsigned integer query param with a default
// value.
func queryUint64(c fiber.Ctx, key string, defaultVal uint64) uint64 {
	v := c.Query(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}
