package data

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy bounds the attempts made against an external API. The wait
// before attempt n+1 is n * Backoff.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryPolicy matches the market-data defaults: 3 attempts, 2s step.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, Backoff: 2 * time.Second}

func (p RetryPolicy) attempts() int {
	if p.MaxRetries < 1 {
		return 1
	}
	return p.MaxRetries
}

// do runs fn until it succeeds, returns a permanent error, the attempts are
// used up or ctx is done.
func (p RetryPolicy) do(ctx context.Context, logger *slog.Logger, op string, fn func(context.Context) error) error {
	var lastErr error
	n := p.attempts()
	used := 0
	for attempt := 1; attempt <= n; attempt++ {
		used = attempt
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || attempt == n {
			break
		}
		wait := time.Duration(attempt) * p.Backoff
		logger.Warn("request failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s failed after %d attempt(s): %w", op, used, lastErr)
}
