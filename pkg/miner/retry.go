package miner

import (
	"context"
	"time"
)

// retryOp runs op up to maxAttempts times, sleeping delay between failed
// attempts. Every protocol in this package goes through this single helper
// so retry behavior stays uniform.
//
// The loop is abortable between attempts: a cancelled context stops further
// attempts and returns the context error. op receives the 1-based attempt
// number; the last attempt's error is returned on exhaustion.
func retryOp(ctx context.Context, maxAttempts int, delay time.Duration, op func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
