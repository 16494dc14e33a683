// ABOUTME: Classifies OpenAI errors as retryable or permanent
// ABOUTME: Rate limits, server errors and timeouts are worth another attempt
package llm

import (
	"context"
	"errors"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when the API answers with no usable content
var ErrEmptyResponse = errors.New("empty response from model")

// StatusCode extracts the HTTP status from an OpenAI error, or 0
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// IsTimeout reports whether err is a deadline or network timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsRateLimited reports whether the API rejected the call for rate
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

// IsRetryable reports whether another attempt could succeed
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if IsTimeout(err) || errors.Is(err, ErrEmptyResponse) {
		return true
	}
	code := StatusCode(err)
	switch {
	case code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	case code >= 400:
		return false
	}
	// transport failures without a status
	var netErr net.Error
	return errors.As(err, &netErr)
}
