package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-discover/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// AbandonedJobMessage is the error recorded on jobs failed by the reaper.
const AbandonedJobMessage = "abandoned"

// Scheduler runs housekeeping tasks: failing ingestion jobs left
// unfinished by a crash and evicting expired search sessions.
type Scheduler struct {
	config     domain.SchedulerConfig
	store      driven.SchedulerStore
	jobs       driven.JobStore
	sessions   driven.SessionStore
	staleAfter time.Duration

	// tick is how often due tasks are checked.
	tick time.Duration
	now  func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. jobs and sessions may be nil, which
// turns the corresponding task into a no-op.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	jobs driven.JobStore,
	sessions driven.SessionStore,
	staleAfter time.Duration,
) *Scheduler {
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	return &Scheduler{
		config:     config,
		store:      store,
		jobs:       jobs,
		sessions:   sessions,
		staleAfter: staleAfter,
		tick:       time.Minute,
		now:        time.Now,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.L().Info("scheduler disabled")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		}
	}

	if err := s.initialiseTasks(ctx); err != nil {
		logger.L().Error("scheduler: initialise tasks failed", zap.Error(err))
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	var errs []error
	for _, t := range domain.HousekeepingTasks {
		if taskCfg := s.config.GetTaskConfig(t.ID); taskCfg.Enabled {
			if err := s.ensureTask(ctx, t.ID, t.Name, taskCfg); err != nil {
				errs = append(errs, fmt.Errorf("task %s: %w", t.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  s.now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.L().Error("scheduler: list tasks failed", zap.Error(err))
		return
	}

	now := s.now()
	for i := range tasks {
		task := &tasks[i]
		if task.Due(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: s.now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDIngestReaper:
			result.ItemsProcessed, err = s.reapStaleJobs(ctx)
		case domain.TaskIDSessionSweep:
			result.ItemsProcessed, err = s.sweepSessions(ctx)
		default:
			logger.L().Warn("scheduler: unknown task", zap.String("task_id", task.ID))
			return
		}

		result.EndedAt = s.now()
		if err != nil {
			result.Error = err.Error()
			logger.L().Warn("scheduler: task failed", zap.String("task_id", task.ID), zap.Error(err))
		} else {
			result.Success = true
			logger.L().Debug("scheduler: task completed",
				zap.String("task_id", task.ID),
				zap.Int("items", result.ItemsProcessed),
				zap.Duration("took", result.Duration()))
		}
		task.Apply(result)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.L().Error("scheduler: save task failed", zap.String("task_id", task.ID), zap.Error(saveErr))
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.L().Error("scheduler: record result failed", zap.String("task_id", task.ID), zap.Error(recordErr))
		}
		// Keep the last 100 results per task.
		if pruneErr := s.store.PruneHistory(ctx, 100); pruneErr != nil {
			logger.L().Error("scheduler: prune history failed", zap.Error(pruneErr))
		}
	}()
}

// reapStaleJobs fails queued or running jobs whose progress stopped
// before the stale cutoff. Jobs finishing concurrently are left alone.
func (s *Scheduler) reapStaleJobs(ctx context.Context) (int, error) {
	if s.jobs == nil {
		return 0, nil
	}

	now := s.now()
	stale, err := s.jobs.ListStale(ctx, now.Add(-s.staleAfter))
	if err != nil {
		return 0, fmt.Errorf("list stale jobs: %w", err)
	}

	reaped := 0
	for i := range stale {
		job := &stale[i]
		err := s.jobs.Transition(ctx, job.ID, job.Status, domain.JobStatusFailed, AbandonedJobMessage, now)
		switch {
		case err == nil:
			reaped++
			logger.L().Info("reaped abandoned ingest job",
				zap.String("job_id", job.ID), zap.String("was", job.Status.String()))
		case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotFound):
			continue
		default:
			return reaped, fmt.Errorf("fail job %s: %w", job.ID, err)
		}
	}
	return reaped, nil
}

// sweepSessions evicts expired search sessions.
func (s *Scheduler) sweepSessions(ctx context.Context) (int, error) {
	if s.sessions == nil {
		return 0, nil
	}
	return s.sessions.Sweep(ctx, s.now())
}
