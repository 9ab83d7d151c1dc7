// Package notify delivers user-facing notices.
package notify

import (
	"context"
	"log/slog"

	"classroom_fetcher/internal/domain"
)

type Notifier interface {
	Notify(ctx context.Context, notice domain.Notice)
}

// Log writes notices to a structured logger.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger.With("component", "notice")}
}

func (l *Log) Notify(ctx context.Context, notice domain.Notice) {
	l.logger.Log(ctx, levelOf(notice.Level), notice.Title,
		"level", notice.Level,
		"description", notice.Description,
	)
}

func levelOf(level domain.NoticeLevel) slog.Level {
	switch level {
	case domain.NoticeError:
		return slog.LevelError
	case domain.NoticeWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Multi forwards every notice to each notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, notice domain.Notice) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, notice)
		}
	}
}
