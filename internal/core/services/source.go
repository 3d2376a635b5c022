package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// SourceService exposes the sources stored items are attributed to.
type SourceService struct {
	sourceStore driven.SourceStore
}

// NewSourceService creates a new source service.
func NewSourceService(sourceStore driven.SourceStore) *SourceService {
	return &SourceService{sourceStore: sourceStore}
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.sourceStore.Get(ctx, id)
}

// List returns the owner's native and virtual sources.
func (s *SourceService) List(ctx context.Context, ownerID string) ([]domain.Source, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.sourceStore.ListByOwner(ctx, ownerID)
}
