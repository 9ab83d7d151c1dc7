package domain

import (
	"time"

	"github.com/google/uuid"
)

type JobKind string

const (
	JobSlides   JobKind = "slides"
	JobSubtitle JobKind = "subtitle"
)

// RenderOptions is the PDF-render capability shared by all slide jobs of a batch.
type RenderOptions struct {
	ToPDF          bool   `json:"to_pdf"`
	ImageDedup     bool   `json:"enable_image_dedup"`
	DedupThreshold uint32 `json:"dedup_threshold"`
}

// Job is a download job descriptor handed to the task queue by value.
// Exactly one of Render (slides) or Subtitle (subtitle) is set.
type Job struct {
	ID        string           `json:"id"`
	Kind      JobKind          `json:"kind"`
	Session   Session          `json:"session"`
	Render    *RenderOptions   `json:"render,omitempty"`
	Subtitle  *SubtitleRequest `json:"subtitle,omitempty"`
	Format    SubtitleFormat   `json:"format,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// DownloadTask is a slide job owned by the external queue once submitted.
type DownloadTask = Job

func NewSlideJob(s Session, render RenderOptions, now time.Time) DownloadTask {
	return DownloadTask{
		ID:        newJobID(),
		Kind:      JobSlides,
		Session:   s,
		Render:    &render,
		CreatedAt: now,
	}
}

func NewSubtitleJob(s Session, format SubtitleFormat, now time.Time) Job {
	req := s.SubtitleRequest()
	return Job{
		ID:        newJobID(),
		Kind:      JobSubtitle,
		Session:   s,
		Subtitle:  &req,
		Format:    format,
		CreatedAt: now,
	}
}

func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Batch is a persisted record of one submitted group of jobs.
type Batch struct {
	ID        string    `db:"id"`
	Kind      JobKind   `db:"kind"`
	Format    string    `db:"format"`
	Requested int       `db:"requested"`
	Succeeded int       `db:"succeeded"`
	Failed    int       `db:"failed"`
	CreatedAt time.Time `db:"created_at"`
	Jobs      []Job     `db:"-"`
}
