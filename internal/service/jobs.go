package service

import (
	"time"

	"classroom_fetcher/internal/domain"
)

// BuildSlideJobs creates one slide job per session, each bound to the
// shared render options.
func BuildSlideJobs(sessions []domain.Session, render domain.RenderOptions, now time.Time) []domain.DownloadTask {
	jobs := make([]domain.DownloadTask, 0, len(sessions))
	for _, s := range sessions {
		jobs = append(jobs, domain.NewSlideJob(s, render, now))
	}
	return jobs
}

// BuildSubtitleJobs creates one subtitle job per session, all with format.
func BuildSubtitleJobs(sessions []domain.Session, format domain.SubtitleFormat, now time.Time) []domain.Job {
	jobs := make([]domain.Job, 0, len(sessions))
	for _, s := range sessions {
		jobs = append(jobs, domain.NewSubtitleJob(s, format, now))
	}
	return jobs
}

func subtitleRequests(sessions []domain.Session) []domain.SubtitleRequest {
	reqs := make([]domain.SubtitleRequest, len(sessions))
	for i, s := range sessions {
		reqs[i] = s.SubtitleRequest()
	}
	return reqs
}

func renderOptions(toPDF, dedup bool, threshold uint32) domain.RenderOptions {
	return domain.RenderOptions{ToPDF: toPDF, ImageDedup: dedup, DedupThreshold: threshold}
}
