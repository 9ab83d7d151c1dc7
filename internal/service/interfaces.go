package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"classroom_fetcher/internal/domain"
)

// Source is the remote classroom platform.
type Source interface {
	FetchRangeSessions(ctx context.Context, startAt, endAt string) ([]domain.Session, error)
	FetchCourseSessions(ctx context.Context, courseIDs []int64) ([]domain.Session, error)
	SearchCourses(ctx context.Context, courseName, teacherName string) ([]domain.Course, error)
}

// SubtitleDownloader fetches, formats and saves subtitles for a batch of
// sessions in one call. Per-session retries are its own concern.
type SubtitleDownloader interface {
	DownloadSubtitles(ctx context.Context, subs []domain.SubtitleRequest, format domain.SubtitleFormat) (domain.BatchSubtitleResult, error)
}

// TaskQueue takes ownership of submitted download jobs.
type TaskQueue interface {
	Enqueue(ctx context.Context, jobs []domain.Job) error
	Close() error
}

type Notifier interface {
	Notify(ctx context.Context, notice domain.Notice)
}

type BatchStore interface {
	Insert(ctx context.Context, batch *domain.Batch) error
}

type JobStore interface {
	InsertBatch(ctx context.Context, batchID string, jobs []domain.Job) error
	GetSubmittedSubIDs(ctx context.Context, kind domain.JobKind, subIDs []int64) (map[int64]time.Time, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
