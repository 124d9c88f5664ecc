// Package retry provides a bounded retry loop for transient upstream failures.
package retry

import (
	"context"
	"log/slog"
	"time"

	"market_dashboard/internal/domain/marketdata"
)

// Policy describes how many times an operation is attempted and how long to wait
// between attempts. The wait grows linearly: Backoff, 2*Backoff, ...
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// NoRetry runs an operation exactly once.
var NoRetry = Policy{MaxAttempts: 1}

// Do runs fn until it succeeds, returns a non-retryable error, or MaxAttempts is reached.
// Only errors matching marketdata.IsRetryable are retried.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		out T
		err error
	)
	for i := 1; i <= attempts; i++ {
		out, err = fn(ctx)
		if err == nil || !marketdata.IsRetryable(err) || i == attempts {
			return out, err
		}

		wait := p.Backoff * time.Duration(i)
		slog.Warn("upstream call failed, retrying", "op", op, "attempt", i, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return out, err
		case <-timer.C:
		}
	}
	return out, err
}
