package embedder

import (
	"context"
	"time"
)

// Default retry pacing for provider API calls. Both hosted providers rate
// limit; doubling delays with a cap keeps retries polite without stalling
// ingestion for long.
const (
	defaultRetryAttempts = 3
	initialRetryDelay    = 100 * time.Millisecond
	maxRetryDelay        = 5 * time.Second
)

// backoffPolicy is a provider's retry configuration: how many attempts to
// make and how the delay between them grows.
type backoffPolicy struct {
	attempts int
	initial  time.Duration
	cap      time.Duration
}

// defaultBackoff is the policy providers are constructed with
func defaultBackoff() backoffPolicy {
	return backoffPolicy{
		attempts: defaultRetryAttempts,
		initial:  initialRetryDelay,
		cap:      maxRetryDelay,
	}
}

// retry runs fn until it succeeds or the policy's attempts are spent, doubling
// the delay after each failure up to the cap. Cancellation is never retried;
// the context error surfaces immediately.
func retry[T any](ctx context.Context, policy backoffPolicy, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	delay := policy.initial
	for attempt := 0; attempt < policy.attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt == policy.attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > policy.cap {
			delay = policy.cap
		}
	}

	return zero, lastErr
}
