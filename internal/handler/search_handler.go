package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/service"
)

// SearchHandler exposes query-anchored graph search.
type SearchHandler struct {
	graphs *service.GraphService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(graphs *service.GraphService) *SearchHandler {
	return &SearchHandler{graphs: graphs}
}

// Register sets up search routes.
func (h *SearchHandler) Register(api fiber.Router) {
	api.Post("/search", h.Search)
}

// Search builds a similarity graph for a free-text query.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var body struct {
		Query          string   `json:"query"`
		Limit          *int     `json:"limit"`
		MatchThreshold *float64 `json:"match_threshold"`
		EdgeThreshold  *float64 `json:"edge_threshold"`
		LayoutSeed     uint64   `json:"layout_seed"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body", "code": "validation"})
	}

	// Pointer fields distinguish absent from explicit zero; a zero
	// threshold is a valid value, not a request for the default.
	params := domain.DefaultSearchParams(body.Query)
	if body.Limit != nil {
		params.Limit = *body.Limit
	}
	if body.MatchThreshold != nil {
		params.MatchThreshold = *body.MatchThreshold
	}
	if body.EdgeThreshold != nil {
		params.EdgeThreshold = *body.EdgeThreshold
	}
	params.LayoutSeed = body.LayoutSeed

	graph, err := h.graphs.Search(c.Context(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(graph)
}
