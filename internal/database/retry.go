package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// RetryPolicy bounds how long startup waits for Postgres to accept
// connections.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryPolicy waits up to roughly half a minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     5,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
	}
}

// backoff returns the wait before retry number attempt, counting from zero.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := float64(p.InitialBackoff) * math.Pow(p.BackoffFactor, float64(attempt))
	if d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}

// retry runs fn until it succeeds, the policy is exhausted or ctx ends.
func retry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == policy.MaxRetries {
			break
		}

		wait := policy.backoff(attempt)
		logger.Warn("Database not ready, retrying", "attempt", attempt+1, "backoff", wait, "error", lastErr)
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("max retries exceeded (%d): %w", policy.MaxRetries, lastErr)
}

// ConnectWithRetry calls Connect until Postgres answers.
func ConnectWithRetry(ctx context.Context, cfg Config, policy RetryPolicy, logger *slog.Logger) (*sql.DB, error) {
	var db *sql.DB
	err := retry(ctx, policy, logger, func() error {
		var err error
		db, err = Connect(ctx, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
