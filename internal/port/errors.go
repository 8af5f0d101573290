package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrVectorNotFound = errors.New("vector not found")
	ErrJobNotFound    = errors.New("job not found")
)

// ValidationError rejects a malformed request before any provider or
// store work happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// EmbeddingProviderError wraps an upstream embedding failure. It is
// fatal to the current request but safe to retry.
type EmbeddingProviderError struct {
	Provider string
	Err      error
}

func (e *EmbeddingProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Err }

// DimensionMismatchError rejects a vector whose length disagrees with
// the index's fixed dimension. Never coerced; the index stays
// untouched. Changing dimensions requires an offline reindex.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: index expects %d, got %d", e.Want, e.Got)
}

// AnnotationServiceError wraps an annotator failure. Non-fatal during
// graph assembly: the edge is kept with its relationship text omitted.
type AnnotationServiceError struct {
	Err error
}

func (e *AnnotationServiceError) Error() string {
	return fmt.Sprintf("annotation service: %v", e.Err)
}

func (e *AnnotationServiceError) Unwrap() error { return e.Err }
