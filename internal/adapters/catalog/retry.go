package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// permanent marks an error that must not be retried.
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Do executes fn with exponential back-off. It stops early on ctx
// cancellation and on errors wrapped as permanent.
func (r RetryConfig) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := r.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		var p permanent
		if errors.As(lastErr, &p) {
			return p.err
		}
		if attempt == attempts {
			break
		}
		logger.Get().Warn(ctx, "catalog request failed, retrying",
			logger.String("op", op), logger.Int("attempt", attempt), logger.Int("max_attempts", attempts),
			logger.String("delay", delay.String()), logger.Error(lastErr))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}
