// Package retryutil retries transient Bot API failures around startup tasks.
// The reply path never retries: a failed send is degraded immediately, not
// replayed.
package retryutil

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second
)

// Do runs fn until it succeeds, the attempts run out, or the context ends.
// The last error wins.
func Do(ctx context.Context, logger *slog.Logger, name string, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if delay <= 0 {
		delay = defaultDelay
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if logger != nil {
			logger.Warn(name+"_retry", "attempt", i+1, "attempts", attempts, "error", err.Error())
		}
		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
