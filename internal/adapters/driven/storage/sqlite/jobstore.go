package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

const jobColumns = `id, owner_id, session_id, provider_name, persist_mode, selected_urls, items,
	status, total_items, processed_items, stored_items, failed_items, duplicate_items,
	rejected_items, retry_count, average_quality, failures, error_message,
	created_at, updated_at, started_at, finished_at`

// Create stores a new job.
func (s *jobStore) Create(ctx context.Context, job *domain.IngestJob) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}

	selected, err := marshalJSON(job.SelectedURLs, "[]")
	if err != nil {
		return fmt.Errorf("marshalling selected urls: %w", err)
	}
	items, err := marshalJSON(job.Items, "[]")
	if err != nil {
		return fmt.Errorf("marshalling items: %w", err)
	}
	failures, err := marshalJSON(job.Failures, "[]")
	if err != nil {
		return fmt.Errorf("marshalling failures: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, job.ID, job.OwnerID, job.SessionID, job.ProviderName, string(job.PersistMode), selected, items,
		string(job.Status), job.TotalItems, job.ProcessedItems, job.StoredItems, job.FailedItems,
		job.DuplicateItems, job.RejectedItems, job.RetryCount, job.AverageQualityScore, failures,
		job.ErrorMessage, formatTime(job.CreatedAt), formatTime(job.UpdatedAt),
		formatTimePtr(job.StartedAt), formatTimePtr(job.FinishedAt))
	if err != nil {
		return fmt.Errorf("creating job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get retrieves a job by ID.
func (s *jobStore) Get(ctx context.Context, id string) (*domain.IngestJob, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM ingest_jobs WHERE id = ?`, id)
	return scanJob(row)
}

// UpdateProgress persists counters, failures and average quality.
func (s *jobStore) UpdateProgress(ctx context.Context, job *domain.IngestJob) error {
	failures, err := marshalJSON(job.Failures, "[]")
	if err != nil {
		return fmt.Errorf("marshalling failures: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE ingest_jobs SET
			processed_items = ?, stored_items = ?, failed_items = ?, duplicate_items = ?,
			rejected_items = ?, retry_count = ?, average_quality = ?, failures = ?, updated_at = ?
		WHERE id = ?
	`, job.ProcessedItems, job.StoredItems, job.FailedItems, job.DuplicateItems,
		job.RejectedItems, job.RetryCount, job.AverageQualityScore, failures,
		formatTime(job.UpdatedAt), job.ID)
	if err != nil {
		return fmt.Errorf("updating job progress: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Transition moves a job from one status to another with a compare-and-set
// on the current status.
func (s *jobStore) Transition(ctx context.Context, id string, from, to domain.JobStatus, errMsg string, at time.Time) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	stamp := formatTime(at)
	var startedAt, finishedAt any
	if to == domain.JobStatusRunning {
		startedAt = stamp
	}
	if to.IsTerminal() {
		finishedAt = stamp
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE ingest_jobs SET
			status = ?,
			updated_at = ?,
			error_message = CASE WHEN ? <> '' THEN ? ELSE error_message END,
			started_at = COALESCE(?, started_at),
			finished_at = COALESCE(?, finished_at)
		WHERE id = ? AND status = ?
	`, string(to), stamp, errMsg, errMsg, startedAt, finishedAt, id, string(from))
	if err != nil {
		return fmt.Errorf("transitioning job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transitioning job: %w", err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = s.store.db.QueryRowContext(ctx, "SELECT status FROM ingest_jobs WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading job status: %w", err)
	}
	return fmt.Errorf("%w: job is %s, not %s", domain.ErrInvalidTransition, current, from)
}

// ListStale returns unfinished jobs last updated before the cutoff, oldest first.
func (s *jobStore) ListStale(ctx context.Context, before time.Time) ([]domain.IngestJob, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM ingest_jobs
		WHERE status IN (?, ?) AND updated_at < ?
		ORDER BY updated_at, id
	`, string(domain.JobStatusQueued), string(domain.JobStatusRunning), formatTime(before))
	if err != nil {
		return nil, fmt.Errorf("querying stale jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.IngestJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stale jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row scanner) (*domain.IngestJob, error) {
	var job domain.IngestJob
	var persistMode, status, selected, items, failures, createdAt, updatedAt string
	var startedAt, finishedAt sql.NullString

	if err := row.Scan(&job.ID, &job.OwnerID, &job.SessionID, &job.ProviderName, &persistMode,
		&selected, &items, &status, &job.TotalItems, &job.ProcessedItems, &job.StoredItems,
		&job.FailedItems, &job.DuplicateItems, &job.RejectedItems, &job.RetryCount,
		&job.AverageQualityScore, &failures, &job.ErrorMessage, &createdAt, &updatedAt,
		&startedAt, &finishedAt); err != nil {
		return nil, notFound(err, "job")
	}

	job.PersistMode = domain.PersistMode(persistMode)
	job.Status = domain.JobStatus(status)
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	job.StartedAt = parseTimePtr(startedAt)
	job.FinishedAt = parseTimePtr(finishedAt)

	if err := json.Unmarshal([]byte(selected), &job.SelectedURLs); err != nil {
		return nil, fmt.Errorf("unmarshaling selected urls: %w", err)
	}
	if err := json.Unmarshal([]byte(items), &job.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling items: %w", err)
	}
	if err := json.Unmarshal([]byte(failures), &job.Failures); err != nil {
		return nil, fmt.Errorf("unmarshaling failures: %w", err)
	}
	return &job, nil
}
