package driven

import (
	"context"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// SearchProvider is one external web search backend.
// Implementations normalise their native response into ranked SearchHits.
type SearchProvider interface {
	// Name returns the stable provider name (e.g. "tavily").
	Name() string

	// Available reports whether the provider has the settings it needs.
	Available() bool

	// Search runs a query. Hits are returned in provider rank order with
	// Origin, ProviderName and Rank already set.
	Search(ctx context.Context, query domain.ExternalQuery) ([]domain.SearchHit, error)

	// Capabilities describes the filters, engines and languages the provider honours.
	Capabilities(ctx context.Context) domain.ProviderCapabilities

	// Probe performs a lightweight reachability check.
	Probe(ctx context.Context) error
}
