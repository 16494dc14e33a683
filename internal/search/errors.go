// ABOUTME: Error values produced by the similarity search cascade
// ABOUTME: Dimension mismatch is fatal; SearchError means every tier failed
package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harper/content-assistant/internal/models"
)

var (
	// ErrDimensionMismatch stops the cascade: scores across different
	// dimensionalities are meaningless
	ErrDimensionMismatch = models.ErrDimensionMismatch

	// ErrSearchFailed is matched by every SearchError
	ErrSearchFailed = errors.New("all search strategies failed")

	// ErrInvalidLimit is returned for a non-positive result limit
	ErrInvalidLimit = errors.New("search limit must be positive")
)

// SearchError reports that no strategy produced a usable answer
type SearchError struct {
	Failures []StrategyFailure
}

// StrategyFailure is one degraded tier
type StrategyFailure struct {
	Strategy string
	Err      error
}

func (e *SearchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Strategy, f.Err))
	}
	return fmt.Sprintf("%v (%s)", ErrSearchFailed, strings.Join(parts, "; "))
}

// Unwrap exposes ErrSearchFailed and each tier error to errors.Is/As
func (e *SearchError) Unwrap() []error {
	errs := []error{ErrSearchFailed}
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
