package domain

import (
	"math"
	"strings"
	"time"
)

// PersistMode is the policy for how much of an external hit is retained.
type PersistMode string

// Available persist modes.
const (
	// PersistModeNone stores nothing.
	PersistModeNone PersistMode = "none"

	// PersistModeSnippetOnly stores the search-hit snippet only.
	PersistModeSnippetOnly PersistMode = "snippet"

	// PersistModeEnriched fetches and extracts the full page.
	PersistModeEnriched PersistMode = "enriched"
)

// ParsePersistMode parses a persist mode, accepting common spellings.
// An empty string parses as PersistModeNone.
func ParsePersistMode(s string) (PersistMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PersistModeNone, true
	case "snippet", "snippetonly", "snippet_only", "snippet-only":
		return PersistModeSnippetOnly, true
	case "enriched":
		return PersistModeEnriched, true
	default:
		return "", false
	}
}

// Persists reports whether the mode stores anything.
func (m PersistMode) Persists() bool {
	return m == PersistModeSnippetOnly || m == PersistModeEnriched
}

// String returns the string representation.
func (m PersistMode) String() string {
	return string(m)
}

// JobStatus is the state of an ingestion job.
type JobStatus string

// Job states. queued -> running -> completed | failed.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return next == JobStatusRunning || next == JobStatusFailed
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// String returns the string representation.
func (s JobStatus) String() string {
	return string(s)
}

// FailureReason classifies why an item was counted as failed.
type FailureReason string

// Failure reasons.
const (
	FailureReasonFetch           FailureReason = "fetch_failure"
	FailureReasonQualityRejected FailureReason = "quality_rejected"
	FailureReasonStore           FailureReason = "store_failure"
	FailureReasonInvalidURL      FailureReason = "invalid_url"
)

// ItemFailure records a failed URL and why.
type ItemFailure struct {
	URL    string
	Reason FailureReason
	Detail string
}

// ItemOutcome is the terminal result of processing one selected URL.
type ItemOutcome string

// Item outcomes.
const (
	ItemOutcomeStored    ItemOutcome = "stored"
	ItemOutcomeDuplicate ItemOutcome = "duplicate"
	ItemOutcomeFailed    ItemOutcome = "failed"
)

// IngestJob is the pollable state of an ingestion run.
//
// Counters are monotonic. At every point
// StoredItems + FailedItems + DuplicateItems == ProcessedItems <= TotalItems,
// and a completed job has ProcessedItems == TotalItems.
type IngestJob struct {
	// ID is the job identifier.
	ID string

	// OwnerID is the owning user.
	OwnerID string

	// SessionID is the search session the items were selected from.
	SessionID string

	// ProviderName is the provider whose virtual source receives the items.
	ProviderName string

	// PersistMode is snippet or enriched.
	PersistMode PersistMode

	// SelectedURLs are the URLs requested (empty selected every external hit).
	SelectedURLs []string

	// Items are the session hits selected for ingestion.
	Items []SearchHit

	// Status is the job state.
	Status JobStatus

	// TotalItems is the number of items to process.
	TotalItems int

	// ProcessedItems is the number of items with a terminal outcome.
	ProcessedItems int

	// StoredItems is the number of newly stored items.
	StoredItems int

	// FailedItems is the number of items that failed, including quality rejections.
	FailedItems int

	// DuplicateItems is the number of items skipped as already stored.
	DuplicateItems int

	// RejectedItems is the subset of FailedItems rejected for low quality.
	RejectedItems int

	// RetryCount is the total number of fetch retries across items.
	RetryCount int

	// AverageQualityScore is the mean quality of scored items, 3 decimals.
	AverageQualityScore float64

	// Failures lists failed URLs with reasons (capped).
	Failures []ItemFailure

	// ErrorMessage is set when the job itself failed.
	ErrorMessage string

	// CreatedAt is when the job was queued.
	CreatedAt time.Time

	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time

	// StartedAt is when a worker picked the job up.
	StartedAt *time.Time

	// FinishedAt is when the job reached a terminal status.
	FinishedAt *time.Time
}

// Progress returns processed/total in [0, 1].
func (j *IngestJob) Progress() float64 {
	if j.TotalItems == 0 {
		if j.Status.IsTerminal() {
			return 1
		}
		return 0
	}
	return float64(j.ProcessedItems) / float64(j.TotalItems)
}

// RoundQuality rounds a quality average to 3 decimals.
func RoundQuality(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// IngestRequest asks for selected session hits to be ingested.
type IngestRequest struct {
	// OwnerID must match the session owner.
	OwnerID string

	// SessionID references a live search session.
	SessionID string

	// SelectedURLs picks hits by URL. Empty selects every external hit.
	SelectedURLs []string

	// PersistMode is snippet or enriched.
	PersistMode PersistMode
}

// IngestReceipt acknowledges a queued job.
type IngestReceipt struct {
	JobID       string
	Status      JobStatus
	QueuedCount int
	PersistMode PersistMode
}
