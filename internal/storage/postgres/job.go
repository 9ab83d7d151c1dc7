package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"classroom_fetcher/internal/domain"
)

const jobColumns = 8

type JobStore struct {
	db *sqlx.DB
}

func NewJobStore(db *sqlx.DB) *JobStore {
	return &JobStore{db: db}
}

// InsertBatch stores all jobs of one batch with a single statement.
func (s *JobStore) InsertBatch(ctx context.Context, batchID string, jobs []domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO jobs (id, batch_id, kind, sub_id, course_id, sub_name, format, created_at) VALUES ")
	args := make([]any, 0, len(jobs)*jobColumns)

	for i, job := range jobs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 1; c <= jobColumns; c++ {
			if c > 1 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(i*jobColumns + c))
		}
		sb.WriteString(")")
		args = append(args,
			job.ID,
			batchID,
			string(job.Kind),
			job.Session.SubID,
			job.Session.CourseID,
			job.Session.SubName,
			string(job.Format),
			job.CreatedAt,
		)
	}
	sb.WriteString(" ON CONFLICT (id) DO NOTHING")

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert jobs for batch %s: %w", batchID, err)
	}
	return nil
}

// GetSubmittedSubIDs returns, for those subIDs that already have a job of
// kind, the time of their first submission.
func (s *JobStore) GetSubmittedSubIDs(ctx context.Context, kind domain.JobKind, subIDs []int64) (map[int64]time.Time, error) {
	result := make(map[int64]time.Time)
	if len(subIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT sub_id, MIN(created_at)
		FROM jobs
		WHERE kind = $1 AND sub_id = ANY($2)
		GROUP BY sub_id`

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, query, string(kind), pq.Array(subIDs))
	if err != nil {
		return nil, fmt.Errorf("query submitted jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan submitted job: %w", err)
		}
		result[id] = at
	}
	return result, rows.Err()
}

// ListByBatch returns the jobs of one batch in submission order.
func (s *JobStore) ListByBatch(ctx context.Context, batchID string) ([]JobRecord, error) {
	query := `
		SELECT id, batch_id, kind, sub_id, course_id, sub_name, format, created_at
		FROM jobs
		WHERE batch_id = $1
		ORDER BY created_at, id`

	var records []JobRecord
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &records, query, batchID); err != nil {
		return nil, fmt.Errorf("list jobs of batch %s: %w", batchID, err)
	}
	return records, nil
}

// JobRecord is the persisted summary of one submitted job.
type JobRecord struct {
	ID        string         `db:"id"`
	BatchID   string         `db:"batch_id"`
	Kind      domain.JobKind `db:"kind"`
	SubID     int64          `db:"sub_id"`
	CourseID  int64          `db:"course_id"`
	SubName   string         `db:"sub_name"`
	Format    string         `db:"format"`
	CreatedAt time.Time      `db:"created_at"`
}
