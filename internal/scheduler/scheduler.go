package scheduler

import (
	"context"
	"log/slog"
	"time"

	"classroom_fetcher/internal/domain"
)

const defaultRunTimeout = 5 * time.Minute

// Syncer runs one auto-download pass.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler runs syncer every interval. Each run is bounded by timeout,
// or five minutes when timeout is zero.
func NewScheduler(syncer Syncer, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start runs a pass immediately, then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.syncer.Sync(runCtx)
	if err != nil {
		s.logger.Error("auto download failed", "error", err)
		return
	}
	if stats == nil {
		return
	}

	s.logger.Info("auto download finished",
		"window", stats.Window.String(),
		"fetched", stats.Fetched,
		"submitted", stats.Submitted,
		"skipped", stats.Skipped,
		"duration", stats.Duration,
	)
}
