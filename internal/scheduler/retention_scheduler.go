package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// DefaultCheckInterval is how often the retention scheduler prunes.
const DefaultCheckInterval = time.Hour

// Pruner deletes persisted audit rows older than a cutoff age.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// RetentionScheduler periodically prunes the persisted audit mirror.
type RetentionScheduler struct {
	pruner        Pruner
	retention     time.Duration
	logger        *slog.Logger
	stopChan      chan struct{}
	checkInterval time.Duration
}

// NewRetentionScheduler creates a scheduler that keeps retention worth of
// audit rows. A non-positive interval selects DefaultCheckInterval.
func NewRetentionScheduler(pruner Pruner, retention, interval time.Duration, logger *slog.Logger) *RetentionScheduler {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &RetentionScheduler{
		pruner:        pruner,
		retention:     retention,
		logger:        logger,
		stopChan:      make(chan struct{}),
		checkInterval: interval,
	}
}

// Start begins the scheduler loop. It returns when Stop is called or ctx is
// done.
func (s *RetentionScheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting audit retention scheduler",
		"check_interval", s.checkInterval,
		"retention", s.retention)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	// Run once immediately on start
	s.prune(ctx)

	for {
		select {
		case <-ticker.C:
			s.prune(ctx)
		case <-s.stopChan:
			s.logger.Info("Audit retention scheduler stopped")
			return nil
		case <-ctx.Done():
			s.logger.Info("Audit retention scheduler stopping due to context cancellation")
			return nil
		}
	}
}

// Stop stops the scheduler
func (s *RetentionScheduler) Stop() {
	close(s.stopChan)
}

func (s *RetentionScheduler) prune(ctx context.Context) {
	deleted, err := s.pruner.DeleteOlderThan(ctx, s.retention)
	if err != nil {
		s.logger.Error("Failed to prune audit log", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("Pruned audit log", "deleted", deleted, "retention", s.retention)
		return
	}
	s.logger.Debug("No audit rows past retention")
}
