package driving

import (
	"context"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// QueryService answers combined internal and external searches.
type QueryService interface {
	// Search runs the internal hybrid search and, when requested, external
	// providers concurrently and returns their fused ranking.
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)

	// ProviderOptions describes the configured external providers.
	ProviderOptions(ctx context.Context) (*domain.ProviderOptionsReport, error)

	// ProviderStatus reports provider health. When refresh is true every
	// provider is probed first; otherwise the last observed health is returned.
	ProviderStatus(ctx context.Context, refresh bool) (*domain.ProviderStatusReport, error)
}
