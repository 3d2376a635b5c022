// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the query input and fused results.
	ViewSearch
	// ViewSources lists the owner's sources.
	ViewSources
	// ViewJob watches an ingestion job.
	ViewJob
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewSources:
		return "sources"
	case ViewJob:
		return "job"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// SearchCompleted carries a search response back to the model.
type SearchCompleted struct {
	Response *domain.SearchResponse
	Err      error
}

// IngestQueued carries the receipt of a queued ingestion job.
type IngestQueued struct {
	Receipt *domain.IngestReceipt
	Err     error
}

// WatchJob asks the app to open the job watcher.
type WatchJob struct {
	JobID string
}

// JobPolled carries the latest state of a watched job.
type JobPolled struct {
	Job *domain.IngestJob
	Err error
}

// SourcesLoaded carries the owner's sources.
type SourcesLoaded struct {
	Sources []domain.Source
	Err     error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
