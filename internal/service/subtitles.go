package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"classroom_fetcher/internal/domain"
	"classroom_fetcher/internal/metrics"
)

// SubtitleState is the executor's position in one invocation.
type SubtitleState string

const (
	SubtitleIdle       SubtitleState = "idle"
	SubtitleRequesting SubtitleState = "requesting"
	SubtitleCompleted  SubtitleState = "completed"
	SubtitleFailed     SubtitleState = "failed"
)

// SubtitleOutcome describes how one invocation ended. State is the terminal
// state reached before the executor returned to idle.
type SubtitleOutcome struct {
	State     SubtitleState
	Requested int
	Result    domain.BatchSubtitleResult
	Notice    domain.Notice
	Err       error
}

// SubtitleExecutor issues one batch request per invocation and reduces the
// per-session outcome into a report.
type SubtitleExecutor struct {
	downloader SubtitleDownloader
	logger     *slog.Logger

	mu    sync.Mutex
	state SubtitleState
}

func NewSubtitleExecutor(downloader SubtitleDownloader, logger *slog.Logger) *SubtitleExecutor {
	return &SubtitleExecutor{
		downloader: downloader,
		logger:     logger.With("component", "subtitles"),
		state:      SubtitleIdle,
	}
}

func (e *SubtitleExecutor) State() SubtitleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *SubtitleExecutor) Execute(ctx context.Context, sessions []domain.Session, format domain.SubtitleFormat) SubtitleOutcome {
	if len(sessions) == 0 {
		return SubtitleOutcome{
			State:  SubtitleIdle,
			Notice: domain.Notice{Level: domain.NoticeError, Title: "请选择课程"},
			Err:    ErrNothingSelected,
		}
	}

	e.mu.Lock()
	if e.state != SubtitleIdle {
		e.mu.Unlock()
		return SubtitleOutcome{
			State:  SubtitleRequesting,
			Notice: domain.Notice{Level: domain.NoticeWarning, Title: "字幕正在下载"},
			Err:    ErrBusy,
		}
	}
	e.state = SubtitleRequesting
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.state = SubtitleIdle
		e.mu.Unlock()
	}()

	requested := len(sessions)
	e.logger.Info("downloading subtitles", "sessions", requested, "format", format)

	result, err := e.downloader.DownloadSubtitles(ctx, subtitleRequests(sessions), format)
	if err != nil {
		e.logger.Error("subtitle batch failed", "error", err)
		metrics.SubtitleBatchesTotal.WithLabelValues("failed").Inc()
		return SubtitleOutcome{
			State:     SubtitleFailed,
			Requested: requested,
			Notice:    domain.Notice{Level: domain.NoticeError, Title: "下载失败", Description: err.Error()},
			Err:       fmt.Errorf("download subtitles: %w", err),
		}
	}

	result = result.Normalize(requested)
	metrics.SubtitleSessionsTotal.WithLabelValues("success").Add(float64(result.Success))
	metrics.SubtitleSessionsTotal.WithLabelValues("failed").Add(float64(result.Failed))

	outcome := SubtitleOutcome{
		State:     SubtitleCompleted,
		Requested: requested,
		Result:    result,
	}
	if result.Failed == 0 {
		metrics.SubtitleBatchesTotal.WithLabelValues("completed").Inc()
		outcome.Notice = domain.Notice{
			Level:       domain.NoticeSuccess,
			Title:       "字幕下载完成",
			Description: fmt.Sprintf("成功下载 %d 个字幕", result.Success),
		}
	} else {
		metrics.SubtitleBatchesTotal.WithLabelValues("partial").Inc()
		outcome.Notice = domain.Notice{
			Level:       domain.NoticeWarning,
			Title:       "字幕下载完成",
			Description: fmt.Sprintf("成功 %d 个，失败 %d 个", result.Success, result.Failed),
		}
	}

	e.logger.Info("subtitle batch completed",
		"success", result.Success,
		"failed", result.Failed,
	)
	for _, msg := range result.Errors {
		e.logger.Warn("subtitle failed", "error", msg)
	}

	return outcome
}
