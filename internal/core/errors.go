// ABOUTME: Terminal request errors and the messages shown to users for them
// ABOUTME: Search and resolution problems degrade instead and never surface here
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/content-assistant/internal/llm"
)

var (
	// ErrEmptyQuestion is returned for a blank question
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrEmptyAnswer is returned when the model produced no text
	ErrEmptyAnswer = errors.New("model returned an empty answer")
)

// User-facing messages
const (
	MsgCouldNotProcess = "Sorry, I could not process the question."
	MsgTryAgain        = "Sorry, something went wrong while preparing the answer. Please try again."
	MsgGenericFailure  = "Sorry, something went wrong. Please try again later."
)

// EmbeddingError means the question could not be turned into a vector
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("could not process the question: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError means the language model did not produce an answer
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Retryable reports whether asking again later could succeed: rate limits,
// timeouts, server errors and empty replies
func (e *GenerationError) Retryable() bool {
	return errors.Is(e.Err, ErrEmptyAnswer) || llm.IsRetryable(e.Err)
}

// UserMessage maps a pipeline error to the text shown to the user
func UserMessage(err error) string {
	var embErr *EmbeddingError
	if errors.As(err, &embErr) {
		return MsgCouldNotProcess
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		if genErr.Retryable() {
			return MsgTryAgain
		}
		return MsgGenericFailure
	}
	if errors.Is(err, ErrEmptyQuestion) {
		return "Please send a question."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgTryAgain
	}
	return MsgGenericFailure
}
