package search

import "errors"

var (
	// ErrNoQueryService indicates that no query service was provided.
	ErrNoQueryService = errors.New("query service is required")

	// ErrIngestUnavailable is reported when ingestion is not wired.
	ErrIngestUnavailable = errors.New("ingestion is not available")
)
