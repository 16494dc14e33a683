// ABOUTME: Tests for mapping pipeline errors to user-facing messages
// ABOUTME: Retryable generation failures ask the user to try again
package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"embedding", &EmbeddingError{Err: errors.New("x")}, MsgCouldNotProcess},
		{"wrapped embedding", fmt.Errorf("ask: %w", &EmbeddingError{Err: errors.New("x")}), MsgCouldNotProcess},
		{"rate limited generation", &GenerationError{Err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}}, MsgTryAgain},
		{"empty answer", &GenerationError{Err: ErrEmptyAnswer}, MsgTryAgain},
		{"rejected generation", &GenerationError{Err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}}, MsgGenericFailure},
		{"deadline", context.DeadlineExceeded, MsgTryAgain},
		{"unknown", errors.New("disk on fire"), MsgGenericFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
