package driving

import (
	"context"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// SourceService exposes the sources an owner's items are attributed to.
type SourceService interface {
	// List returns the owner's native and virtual sources.
	List(ctx context.Context, ownerID string) ([]domain.Source, error)

	// Get retrieves a source by ID.
	Get(ctx context.Context, id string) (*domain.Source, error)
}
