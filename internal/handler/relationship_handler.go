package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/curiolabs/curio-graph/internal/service"
)

// RelationshipHandler exposes deep pairwise comparison of two posts.
type RelationshipHandler struct {
	graphs *service.GraphService
}

// NewRelationshipHandler creates a new relationship handler.
func NewRelationshipHandler(graphs *service.GraphService) *RelationshipHandler {
	return &RelationshipHandler{graphs: graphs}
}

// Register sets up relationship routes.
func (h *RelationshipHandler) Register(api fiber.Router) {
	api.Post("/relationship", h.Details)
}

// Details returns both post previews, their stored-vector similarity,
// and the analysis text.
func (h *RelationshipHandler) Details(c fiber.Ctx) error {
	var body struct {
		PostIDA string `json:"post_id_a"`
		PostIDB string `json:"post_id_b"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body", "code": "validation"})
	}
	if body.PostIDA == "" || body.PostIDB == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "post_id_a and post_id_b are required",
			"code":  "validation",
		})
	}

	detail, err := h.graphs.Relationship(c.Context(), body.PostIDA, body.PostIDB)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}
