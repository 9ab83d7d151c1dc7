package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"classroom_fetcher/internal/domain"
)

// Recorder persists submitted batches. A nil Recorder records nothing.
type Recorder struct {
	batches   BatchStore
	jobs      JobStore
	txManager TransactionManager
	logger    *slog.Logger
}

func NewRecorder(batches BatchStore, jobs JobStore, txManager TransactionManager, logger *slog.Logger) *Recorder {
	return &Recorder{
		batches:   batches,
		jobs:      jobs,
		txManager: txManager,
		logger:    logger.With("component", "history"),
	}
}

// Record stores a batch and its jobs in one transaction. result is nil for
// slide batches, whose outcome is owned by the task queue.
func (r *Recorder) Record(ctx context.Context, kind domain.JobKind, format string, jobs []domain.Job, result *domain.BatchSubtitleResult) (*domain.Batch, error) {
	if r == nil {
		return nil, nil
	}

	batch := &domain.Batch{
		ID:        uuid.NewString(),
		Kind:      kind,
		Format:    format,
		Requested: len(jobs),
		CreatedAt: time.Now().UTC(),
		Jobs:      jobs,
	}
	if result != nil {
		batch.Succeeded = result.Success
		batch.Failed = result.Failed
	}

	err := r.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := r.batches.Insert(txCtx, batch); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		if err := r.jobs.InsertBatch(txCtx, batch.ID, jobs); err != nil {
			return fmt.Errorf("insert jobs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("recorded batch", "batch_id", batch.ID, "kind", kind, "jobs", len(jobs))
	return batch, nil
}

// Submitted returns the sub ids among ids that already have a job of kind,
// with the time they were first submitted.
func (r *Recorder) Submitted(ctx context.Context, kind domain.JobKind, ids []int64) (map[int64]time.Time, error) {
	if r == nil || len(ids) == 0 {
		return map[int64]time.Time{}, nil
	}
	return r.jobs.GetSubmittedSubIDs(ctx, kind, ids)
}
