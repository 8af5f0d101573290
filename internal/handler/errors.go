package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/curiolabs/curio-graph/internal/port"
)

// respondError maps a service error onto its HTTP shape. Payloads
// carry a machine-readable code next to the message; provider failures
// are flagged retryable so clients can back off and try again.
func respondError(c fiber.Ctx, err error) error {
	var (
		validationErr *port.ValidationError
		dimensionErr  *port.DimensionMismatchError
		providerErr   *port.EmbeddingProviderError
		annotationErr *port.AnnotationServiceError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Error(),
			"code":  "validation",
		})
	case errors.As(err, &dimensionErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": dimensionErr.Error(),
			"code":  "dimension_mismatch",
		})
	case errors.As(err, &providerErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     providerErr.Error(),
			"code":      "embedding_provider",
			"retryable": true,
		})
	case errors.As(err, &annotationErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": annotationErr.Error(),
			"code":  "annotation",
		})
	case errors.Is(err, port.ErrPostNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "post not found",
			"code":  "not_found",
		})
	case errors.Is(err, port.ErrVectorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "embedding not found",
			"code":  "not_found",
		})
	case errors.Is(err, port.ErrJobNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "job not found",
			"code":  "not_found",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "internal",
		})
	}
}
