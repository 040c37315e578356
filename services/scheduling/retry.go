package scheduling

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds the arbitrator's automatic retries. The delay before
// attempt n is BaseDelay x Multiplier^n, capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultRetryPolicy mirrors the engine defaults: three attempts, one second
// base delay, doubling each time.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the backoff before the given zero-based attempt number.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
		if p.MaxDelay > 0 && d > p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// withRetry runs fn up to policy.MaxAttempts times with exponential backoff,
// honouring context cancellation between attempts.
func withRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w (last error: %v)", ctx.Err(), lastErr)
		case <-time.After(policy.Delay(attempt)):
		}
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", policy.MaxAttempts, lastErr)
}
