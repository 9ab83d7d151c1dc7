package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"classroom_fetcher/internal/config"
	"classroom_fetcher/internal/domain"
	"classroom_fetcher/internal/metrics"
	"classroom_fetcher/internal/window"
)

// AutoDownloadService periodically submits slide jobs for the caller's
// sessions in the current window that were not submitted before.
type AutoDownloadService struct {
	source      Source
	queue       TaskQueue
	recorder    *Recorder
	notifier    Notifier
	logger      *slog.Logger
	granularity domain.Granularity
	render      domain.RenderOptions
	now         window.Clock

	mu   sync.Mutex
	seen map[int64]struct{}
}

func NewAutoDownloadService(
	source Source,
	queue TaskQueue,
	recorder *Recorder,
	notifier Notifier,
	logger *slog.Logger,
	auto config.AutoConfig,
	download config.DownloadConfig,
	now window.Clock,
) *AutoDownloadService {
	if now == nil {
		now = time.Now
	}
	g, err := domain.ParseGranularity(auto.Granularity)
	if err != nil {
		g = domain.GranularityWeek
	}

	return &AutoDownloadService{
		source:      source,
		queue:       queue,
		recorder:    recorder,
		notifier:    notifier,
		logger:      logger.With("component", "auto_download"),
		granularity: g,
		render:      renderOptions(download.ToPDF, download.EnableImageDedup, download.DedupThreshold),
		now:         now,
		seen:        make(map[int64]struct{}),
	}
}

func (s *AutoDownloadService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	win := window.ForNow(s.granularity, s.now)
	s.logger.Info("starting auto download", "window", win.String())

	sessions, err := s.source.FetchRangeSessions(ctx, win.StartDate(), win.EndDate())
	if err != nil {
		metrics.AutoSyncTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("fetch range sessions: %w", err)
	}

	withSlides := sessionsWithSlides(sessions)
	stats := &domain.SyncStats{
		Window:   win,
		Fetched:  len(sessions),
		NoSlides: len(sessions) - len(withSlides),
	}

	toSubmit, err := s.filterForSubmit(ctx, withSlides)
	if err != nil {
		metrics.AutoSyncTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return stats, fmt.Errorf("filter for submit: %w", err)
	}
	stats.Skipped = len(withSlides) - len(toSubmit)

	if len(toSubmit) > 0 {
		jobs := BuildSlideJobs(toSubmit, s.render, s.now())
		if err := s.queue.Enqueue(ctx, jobs); err != nil {
			stats.Errors = len(jobs)
			metrics.AutoSyncTotal.WithLabelValues(metrics.OutcomeError).Inc()
			return stats, fmt.Errorf("enqueue slide jobs: %w", err)
		}
		metrics.JobsSubmittedTotal.WithLabelValues(string(domain.JobSlides)).Add(float64(len(jobs)))
		stats.Submitted = len(jobs)
		s.markSeen(toSubmit)

		if _, err := s.recorder.Record(ctx, domain.JobSlides, "", jobs, nil); err != nil {
			s.logger.Warn("record slide batch failed", "error", err)
		}

		if s.notifier != nil {
			s.notifier.Notify(ctx, domain.Notice{
				Level:       domain.NoticeSuccess,
				Title:       "自动下载",
				Description: fmt.Sprintf("已添加 %d 个课件下载任务", len(jobs)),
			})
		}
	}

	stats.Duration = time.Since(startTime)
	metrics.AutoSyncTotal.WithLabelValues(metrics.OutcomeOK).Inc()

	s.logger.Info("auto download completed",
		"fetched", stats.Fetched,
		"no_slides", stats.NoSlides,
		"skipped", stats.Skipped,
		"submitted", stats.Submitted,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *AutoDownloadService) filterForSubmit(ctx context.Context, sessions []domain.Session) ([]domain.Session, error) {
	if len(sessions) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(sessions))
	for i, sub := range sessions {
		ids[i] = sub.SubID
	}

	existing, err := s.recorder.Submitted(ctx, domain.JobSlides, ids)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var toSubmit []domain.Session
	for _, sub := range sessions {
		if _, ok := existing[sub.SubID]; ok {
			continue
		}
		if _, ok := s.seen[sub.SubID]; ok {
			continue
		}
		toSubmit = append(toSubmit, sub)
	}
	return toSubmit, nil
}

func (s *AutoDownloadService) markSeen(sessions []domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range sessions {
		s.seen[sub.SubID] = struct{}{}
	}
}
