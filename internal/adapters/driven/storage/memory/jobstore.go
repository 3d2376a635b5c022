package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.IngestJob
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]domain.IngestJob)}
}

func copyJob(job *domain.IngestJob) domain.IngestJob {
	c := *job
	c.SelectedURLs = append([]string(nil), job.SelectedURLs...)
	c.Items = append([]domain.SearchHit(nil), job.Items...)
	c.Failures = append([]domain.ItemFailure(nil), job.Failures...)
	return c
}

// Create stores a new job.
func (s *JobStore) Create(_ context.Context, job *domain.IngestJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.jobs[job.ID] = copyJob(job)
	return nil
}

// Get retrieves a job by ID.
func (s *JobStore) Get(_ context.Context, id string) (*domain.IngestJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyJob(&job)
	return &c, nil
}

// UpdateProgress persists counters, failures and average quality.
func (s *JobStore) UpdateProgress(_ context.Context, job *domain.IngestJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.jobs[job.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.ProcessedItems = job.ProcessedItems
	stored.StoredItems = job.StoredItems
	stored.FailedItems = job.FailedItems
	stored.DuplicateItems = job.DuplicateItems
	stored.RejectedItems = job.RejectedItems
	stored.RetryCount = job.RetryCount
	stored.AverageQualityScore = job.AverageQualityScore
	stored.Failures = append([]domain.ItemFailure(nil), job.Failures...)
	stored.UpdatedAt = job.UpdatedAt
	s.jobs[job.ID] = stored
	return nil
}

// Transition moves a job between statuses if it is currently in from.
func (s *JobStore) Transition(_ context.Context, id string, from, to domain.JobStatus, errMsg string, at time.Time) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status != from {
		return fmt.Errorf("%w: job is %s, not %s", domain.ErrInvalidTransition, job.Status, from)
	}

	job.Status = to
	job.UpdatedAt = at
	if errMsg != "" {
		job.ErrorMessage = errMsg
	}
	if to == domain.JobStatusRunning {
		job.StartedAt = &at
	}
	if to.IsTerminal() {
		job.FinishedAt = &at
	}
	s.jobs[id] = job
	return nil
}

// ListStale returns unfinished jobs last updated before the cutoff, oldest first.
func (s *JobStore) ListStale(_ context.Context, before time.Time) ([]domain.IngestJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []domain.IngestJob
	for _, job := range s.jobs {
		if !job.Status.IsTerminal() && job.UpdatedAt.Before(before) {
			stale = append(stale, copyJob(&job))
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].UpdatedAt.Before(stale[j].UpdatedAt) })
	return stale, nil
}
