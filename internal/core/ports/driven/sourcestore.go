package driven

import (
	"context"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// SourceStore persists native and virtual sources.
type SourceStore interface {
	// FindOrCreateVirtual returns the virtual source for (OwnerID, ProviderName),
	// inserting src when none exists. Must be idempotent under concurrent
	// callers across processes: exactly one row per pair.
	FindOrCreateVirtual(ctx context.Context, src domain.Source) (*domain.Source, error)

	// Save stores or updates a source.
	Save(ctx context.Context, source domain.Source) error

	// Get retrieves a source by ID.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// ListByOwner returns all sources of an owner.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Source, error)

	// ListCollectable returns native sources due for scheduled collection.
	// Virtual sources are never returned.
	ListCollectable(ctx context.Context) ([]domain.Source, error)

	// AddItemCount adjusts a source's item count by delta.
	AddItemCount(ctx context.Context, id string, delta int) error
}
