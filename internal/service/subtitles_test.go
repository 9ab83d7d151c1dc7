package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"classroom_fetcher/internal/domain"
	"classroom_fetcher/internal/service/mocks"
)

func newTestExecutor(t *testing.T) (*SubtitleExecutor, *mocks.MockSubtitleDownloader) {
	ctrl := gomock.NewController(t)
	downloader := mocks.NewMockSubtitleDownloader(ctrl)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSubtitleExecutor(downloader, logger), downloader
}

func TestSubtitleExecutor_EmptySelectionIssuesNoRequest(t *testing.T) {
	exec, _ := newTestExecutor(t)

	outcome := exec.Execute(context.Background(), nil, domain.FormatSRT)

	assert.ErrorIs(t, outcome.Err, ErrNothingSelected)
	assert.Equal(t, SubtitleIdle, outcome.State)
	assert.Equal(t, SubtitleIdle, exec.State())
}

func TestSubtitleExecutor_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		result    domain.BatchSubtitleResult
		err       error
		wantState SubtitleState
		wantLevel domain.NoticeLevel
		wantDesc  string
	}{
		{
			name:      "all succeeded",
			result:    domain.BatchSubtitleResult{Success: 3},
			wantState: SubtitleCompleted,
			wantLevel: domain.NoticeSuccess,
			wantDesc:  "成功下载 3 个字幕",
		},
		{
			name:      "partial failure",
			result:    domain.BatchSubtitleResult{Success: 2, Failed: 1, Errors: []string{"sub 3: no subtitle"}},
			wantState: SubtitleCompleted,
			wantLevel: domain.NoticeWarning,
			wantDesc:  "成功 2 个，失败 1 个",
		},
		{
			name:      "under-reported result counts missing as failed",
			result:    domain.BatchSubtitleResult{Success: 1},
			wantState: SubtitleCompleted,
			wantLevel: domain.NoticeWarning,
			wantDesc:  "成功 1 个，失败 2 个",
		},
		{
			name:      "transport error",
			err:       errors.New("dial tcp: i/o timeout"),
			wantState: SubtitleFailed,
			wantLevel: domain.NoticeError,
			wantDesc:  "dial tcp: i/o timeout",
		},
	}

	sessions := []domain.Session{session(1, 1), session(2, 0), session(3, 5)}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, downloader := newTestExecutor(t)
			downloader.EXPECT().
				DownloadSubtitles(gomock.Any(), gomock.Len(3), domain.FormatTXT).
				DoAndReturn(func(context.Context, []domain.SubtitleRequest, domain.SubtitleFormat) (domain.BatchSubtitleResult, error) {
					assert.Equal(t, SubtitleRequesting, exec.State())
					return tt.result, tt.err
				})

			outcome := exec.Execute(context.Background(), sessions, domain.FormatTXT)

			assert.Equal(t, tt.wantState, outcome.State)
			assert.Equal(t, tt.wantLevel, outcome.Notice.Level)
			assert.Equal(t, tt.wantDesc, outcome.Notice.Description)
			assert.Equal(t, SubtitleIdle, exec.State())
			if tt.err != nil {
				require.Error(t, outcome.Err)
				assert.ErrorIs(t, outcome.Err, tt.err)
				return
			}
			require.NoError(t, outcome.Err)
			assert.Equal(t, len(sessions), outcome.Result.Success+outcome.Result.Failed)
		})
	}
}
