package subtitle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	"golang.org/x/sync/errgroup"

	"classroom_fetcher/internal/domain"
)

var ErrUnsafePath = errors.New("subtitle path escapes save directory")

// Fetcher returns the raw transcript document of a session.
type Fetcher interface {
	FetchSubtitle(ctx context.Context, subID int64) ([]byte, error)
}

// Downloader fetches, renders and saves subtitles for a batch of sessions.
type Downloader struct {
	fetcher     Fetcher
	savePath    string
	concurrency int
	logger      *slog.Logger
}

func NewDownloader(fetcher Fetcher, savePath string, concurrency int, logger *slog.Logger) *Downloader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Downloader{
		fetcher:     fetcher,
		savePath:    savePath,
		concurrency: concurrency,
		logger:      logger,
	}
}

// DownloadSubtitles processes every request independently; one failing
// session never stops the others. The error is non-nil only when ctx ends.
func (d *Downloader) DownloadSubtitles(ctx context.Context, subs []domain.SubtitleRequest, format domain.SubtitleFormat) (domain.BatchSubtitleResult, error) {
	var (
		mu     sync.Mutex
		result domain.BatchSubtitleResult
	)

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)

	for _, req := range subs {
		req := req
		g.Go(func() error {
			path, err := d.downloadOne(ctx, req, format)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", req.SubName, err))
				d.logger.Warn("subtitle download failed",
					"sub_id", req.SubID,
					"sub_name", req.SubName,
					"error", err,
				)
				return nil
			}
			result.Success++
			d.logger.Debug("subtitle saved", "sub_id", req.SubID, "path", path)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("download subtitles: %w", err)
	}
	return result, nil
}

func (d *Downloader) downloadOne(ctx context.Context, req domain.SubtitleRequest, format domain.SubtitleFormat) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := d.fetcher.FetchSubtitle(ctx, req.SubID)
	if err != nil {
		return "", fmt.Errorf("fetch subtitle: %w", err)
	}

	sub, err := Parse(data)
	if err != nil {
		return "", err
	}

	content, err := sub.Render(format)
	if err != nil {
		return "", err
	}

	path, err := d.filePath(req, format)
	if err != nil {
		return "", err
	}
	if err := writeFile(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// filePath places the file under savePath/<path>/<sub name><ext>. A path
// that leaves savePath is rejected.
func (d *Downloader) filePath(req domain.SubtitleRequest, format domain.SubtitleFormat) (string, error) {
	name := domain.SanitizeName(req.SubName)
	if name == "" || name == "." || name == ".." {
		name = strconv.FormatInt(req.SubID, 10)
	}

	dir := filepath.Clean(filepath.FromSlash(req.Path))
	if filepath.IsAbs(dir) || dir == ".." || strings.HasPrefix(dir, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, req.Path)
	}
	return filepath.Join(d.savePath, dir, name+format.Extension()), nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create subtitle dir: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending subtitle file: %w", err)
	}
	defer func() {
		_ = pendingFile.Cleanup()
	}()

	if _, err := pendingFile.WriteString(content); err != nil {
		return fmt.Errorf("write subtitle data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace subtitle file: %w", err)
	}
	return nil
}
