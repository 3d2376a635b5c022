package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// JobStore persists ingestion jobs.
type JobStore interface {
	// Create stores a new job.
	Create(ctx context.Context, job *domain.IngestJob) error

	// Get retrieves a job by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.IngestJob, error)

	// UpdateProgress persists the counters, failures and average quality of job.
	UpdateProgress(ctx context.Context, job *domain.IngestJob) error

	// Transition moves a job from one status to another, atomically.
	// Returns domain.ErrInvalidTransition if the job is not currently in from.
	Transition(ctx context.Context, id string, from, to domain.JobStatus, errMsg string, at time.Time) error

	// ListStale returns unfinished jobs last updated before the cutoff.
	ListStale(ctx context.Context, before time.Time) ([]domain.IngestJob, error)
}
