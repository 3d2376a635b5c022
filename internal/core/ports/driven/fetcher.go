package driven

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// PageFetcher downloads a single web page for enriched ingestion.
type PageFetcher interface {
	// Fetch retrieves url and returns the decoded body.
	// Failures are returned as *FetchError.
	Fetch(ctx context.Context, url string) (*domain.FetchedPage, error)
}

// FetchError describes a failed page fetch.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status, 0 for transport errors.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns domain.ErrFetchFailure joined with the cause.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrFetchFailure}
	}
	return []error{domain.ErrFetchFailure, e.Err}
}

// Permanent reports whether retrying cannot help.
// Client errors are permanent except 408 and 429.
func (e *FetchError) Permanent() bool {
	if e.StatusCode < 400 || e.StatusCode >= 500 {
		return false
	}
	return e.StatusCode != 408 && e.StatusCode != 429
}

// ContentExtractor turns a fetched HTML page into readable content.
type ContentExtractor interface {
	// Extract parses page and returns its title, metadata and text content.
	Extract(ctx context.Context, page *domain.FetchedPage) (*domain.ExtractedContent, error)
}

// Summarizer synthesises a short answer from the top search hits.
// Optional: when nil, responses carry no summary.
type Summarizer interface {
	Summarize(ctx context.Context, query string, hits []domain.FusedHit) (string, error)
}
