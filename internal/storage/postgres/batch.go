package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"classroom_fetcher/internal/domain"
)

var ErrBatchNotFound = errors.New("batch not found")

type BatchStore struct {
	db *sqlx.DB
}

func NewBatchStore(db *sqlx.DB) *BatchStore {
	return &BatchStore{db: db}
}

func (s *BatchStore) Insert(ctx context.Context, batch *domain.Batch) error {
	query := `
		INSERT INTO batches (id, kind, format, requested, succeeded, failed, created_at)
		VALUES (:id, :kind, :format, :requested, :succeeded, :failed, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, GetExecutor(ctx, s.db), query, batch); err != nil {
		return fmt.Errorf("insert batch %s: %w", batch.ID, err)
	}
	return nil
}

func (s *BatchStore) Get(ctx context.Context, id string) (*domain.Batch, error) {
	var batch domain.Batch
	query := `
		SELECT id, kind, format, requested, succeeded, failed, created_at
		FROM batches
		WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &batch, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch %s: %w", id, err)
	}
	return &batch, nil
}

// ListRecent returns the newest batches first.
func (s *BatchStore) ListRecent(ctx context.Context, limit int) ([]domain.Batch, error) {
	query := `
		SELECT id, kind, format, requested, succeeded, failed, created_at
		FROM batches
		ORDER BY created_at DESC
		LIMIT $1`

	var batches []domain.Batch
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &batches, query, limit); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}
