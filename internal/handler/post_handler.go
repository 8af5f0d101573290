package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/service"
)

// PostHandler handles post CRUD.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// Register sets up post routes.
func (h *PostHandler) Register(api fiber.Router) {
	posts := api.Group("/posts")
	posts.Get("/", h.List)
	posts.Post("/", h.Create)
	posts.Get("/:id", h.Get)
	posts.Put("/:id", h.Update)
	posts.Delete("/:id", h.Delete)
}

// Create embeds and stores a new post. The 201 goes out only after
// both the vector and the row are persisted.
func (h *PostHandler) Create(c fiber.Ctx) error {
	var input domain.PostInput
	if err := c.Bind().JSON(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body", "code": "validation"})
	}

	post, err := h.posts.Create(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// List returns posts newest first. Without a limit the whole corpus
// comes back.
func (h *PostHandler) List(c fiber.Ctx) error {
	limit := queryInt(c, "limit", 0)

	posts, err := h.posts.List(c.Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return c.JSON(fiber.Map{"posts": posts, "count": len(posts)})
}

// Get returns a single post.
func (h *PostHandler) Get(c fiber.Ctx) error {
	post, err := h.posts.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// Update replaces a post's fields and re-embeds its content.
func (h *PostHandler) Update(c fiber.Ctx) error {
	var input domain.PostInput
	if err := c.Bind().JSON(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body", "code": "validation"})
	}

	post, err := h.posts.Update(c.Context(), c.Params("id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// Delete removes a post and its vector.
func (h *PostHandler) Delete(c fiber.Ctx) error {
	if err := h.posts.Delete(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
