package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/curiolabs/curio-graph/internal/service"
)

// ReindexHandler starts corpus reindex jobs. Reindexing re-embeds
// every post with the current provider, which is how an operator
// migrates to a new embedding model or dimension.
type ReindexHandler struct {
	posts   *service.PostService
	tracker *JobTracker
}

// NewReindexHandler creates a new reindex handler.
func NewReindexHandler(posts *service.PostService, tracker *JobTracker) *ReindexHandler {
	return &ReindexHandler{posts: posts, tracker: tracker}
}

// Register sets up reindex routes.
func (h *ReindexHandler) Register(api fiber.Router) {
	api.Post("/reindex", h.Start)
}

// Start kicks off an asynchronous reindex. Progress is tracked per
// job; poll /jobs/:id or subscribe to /jobs/:id/stream.
func (h *ReindexHandler) Start(c fiber.Ctx) error {
	total, err := h.posts.Count(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	jobID := uuid.NewString()
	h.tracker.CreateJob(jobID, total)

	go func() {
		// The job outlives the request; it carries its own timeout.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		done, err := h.posts.Reindex(ctx, func(done, total int) {
			h.tracker.UpdateJob(jobID, done, total, "running", "")
		})
		if err != nil {
			slog.Error("reindex failed", "job_id", jobID, "error", err)
			h.tracker.UpdateJob(jobID, done, total, "error", err.Error())
			return
		}
		h.tracker.UpdateJob(jobID, done, done, "complete", "")
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "reindex started",
		"job_id":  jobID,
		"posts":   total,
	})
}
