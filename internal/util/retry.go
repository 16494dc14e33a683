// ABOUTME: Retry helpers for model API calls: jittered exponential backoff
// ABOUTME: Do runs an operation until it succeeds, gives up, or the context ends
package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// maxBackoff caps the delay between attempts
const maxBackoff = 30 * time.Second

// CalculateBackoff returns baseDelay * 2^attempt, capped at 30s, with up to
// 25% jitter either way. Attempts <= 0 (and a zero base) wait nothing.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// shift stays well inside int64
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}
	if half := int64(backoff) / 2; half > 0 {
		backoff += time.Duration(rand.Int64N(half)) - backoff/4
	}
	return backoff
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy controls Do
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// Retryable decides whether an error is worth another attempt.
	// Nil retries every error.
	Retryable func(error) bool
}

// Do calls fn until it returns nil, returns a non-retryable error, or
// MaxRetries retries are spent. attempt is zero-based. The returned error
// wraps the last failure.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) (int, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, CalculateBackoff(p.BaseDelay, attempt)); err != nil {
				return attempts, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
			}
		}
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return attempts, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
		}

		attempts++
		err := fn(ctx, attempt)
		if err == nil {
			return attempts, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		if p.Retryable != nil && !p.Retryable(err) {
			return attempts, lastErr
		}
	}
	return attempts, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
