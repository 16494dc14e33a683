// ABOUTME: Embedding dimension checks shared by the store and the search engine
// ABOUTME: A mismatch is a deployment error, never something to score around
package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyEmbedding is returned when a vector has no components
	ErrEmptyEmbedding = errors.New("embedding vector cannot be empty")

	// ErrDimensionMismatch is returned when two vectors that must be compared
	// have different lengths
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// ValidateDimension checks that vector has exactly expectedDim components
func ValidateDimension(vector []float64, expectedDim int) error {
	if len(vector) == 0 {
		return ErrEmptyEmbedding
	}
	if len(vector) != expectedDim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, expectedDim, len(vector))
	}
	return nil
}
