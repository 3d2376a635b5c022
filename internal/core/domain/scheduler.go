package domain

import "time"

// Housekeeping task IDs.
const (
	// TaskIDIngestReaper fails ingestion jobs left unfinished by a crash.
	TaskIDIngestReaper = "ingest-reaper"

	// TaskIDSessionSweep evicts expired search sessions.
	TaskIDSessionSweep = "session-sweep"
)

// HousekeepingTask describes a built-in background task.
type HousekeepingTask struct {
	ID   string
	Name string
	// ConfigKey is the TOML table under [scheduler] that tunes the task.
	ConfigKey       string
	DefaultInterval time.Duration
}

// HousekeepingTasks lists every task the scheduler knows how to run.
var HousekeepingTasks = []HousekeepingTask{
	{ID: TaskIDIngestReaper, Name: "Ingest Job Reaper", ConfigKey: "ingest_reaper", DefaultInterval: 5 * time.Minute},
	{ID: TaskIDSessionSweep, Name: "Session Sweep", ConfigKey: "session_sweep", DefaultInterval: 10 * time.Minute},
}

// LookupHousekeepingTask returns the built-in task with the given ID.
func LookupHousekeepingTask(id string) (HousekeepingTask, bool) {
	for _, t := range HousekeepingTasks {
		if t.ID == id {
			return t, true
		}
	}
	return HousekeepingTask{}, false
}

// ScheduledTask is the persisted state of a housekeeping task.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time
	// LastError is empty after a successful run.
	LastError string
}

// Due reports whether the task should run at now. A task that has never
// been scheduled is due immediately.
func (t *ScheduledTask) Due(now time.Time) bool {
	if !t.Enabled {
		return false
	}
	return t.NextRun.IsZero() || !t.NextRun.After(now)
}

// Apply folds a finished run into the task and schedules the next one
// an interval after the run ended.
func (t *ScheduledTask) Apply(r *TaskResult) {
	t.LastRun = r.StartedAt
	t.NextRun = r.EndedAt.Add(t.Interval)
	if r.Success {
		t.LastError = ""
		t.LastSuccess = r.EndedAt
		return
	}
	t.LastError = r.Error
}

// TaskResult is one run of a housekeeping task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed counts jobs reaped or sessions evicted.
	ItemsProcessed int
}

// Duration is how long the run took.
func (r *TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig is the [scheduler] section of the config file.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// TaskConfig tunes one housekeeping task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a task, or the zero value
// (disabled) if it is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig enables every housekeeping task at its default
// interval.
func DefaultSchedulerConfig() SchedulerConfig {
	cfg := SchedulerConfig{
		Enabled:     true,
		TaskConfigs: make(map[string]TaskConfig, len(HousekeepingTasks)),
	}
	for _, t := range HousekeepingTasks {
		cfg.TaskConfigs[t.ID] = TaskConfig{Enabled: true, Interval: t.DefaultInterval}
	}
	return cfg
}
