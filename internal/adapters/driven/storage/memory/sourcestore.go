package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore is an in-memory implementation of driven.SourceStore.
type SourceStore struct {
	mu      sync.RWMutex
	sources map[string]domain.Source
	virtual map[string]string // owner\x00provider -> source ID
}

// NewSourceStore creates a new in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		sources: make(map[string]domain.Source),
		virtual: make(map[string]string),
	}
}

// FindOrCreateVirtual returns the existing virtual source for the pair or stores src.
func (s *SourceStore) FindOrCreateVirtual(_ context.Context, src domain.Source) (*domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := src.OwnerID + "\x00" + src.ProviderName
	if id, ok := s.virtual[key]; ok {
		existing := s.sources[id]
		return &existing, nil
	}

	src.Kind = domain.SourceKindVirtual
	s.sources[src.ID] = src
	s.virtual[key] = src.ID
	return &src, nil
}

// Save stores or updates a source.
func (s *SourceStore) Save(_ context.Context, source domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[source.ID] = source
	return nil
}

// Get retrieves a source by ID.
func (s *SourceStore) Get(_ context.Context, id string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// ListByOwner returns all sources of an owner, by name.
func (s *SourceStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sources []domain.Source
	for _, src := range s.sources {
		if src.OwnerID == ownerID {
			sources = append(sources, src)
		}
	}
	sortSources(sources)
	return sources, nil
}

// ListCollectable returns native sources with a refresh interval.
func (s *SourceStore) ListCollectable(_ context.Context) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sources []domain.Source
	for _, src := range s.sources {
		if src.Collectable() {
			sources = append(sources, src)
		}
	}
	sortSources(sources)
	return sources, nil
}

// AddItemCount adjusts a source's item count.
func (s *SourceStore) AddItemCount(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	src.ItemCount += delta
	s.sources[id] = src
	return nil
}

func sortSources(sources []domain.Source) {
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Name == sources[j].Name {
			return sources[i].ID < sources[j].ID
		}
		return sources[i].Name < sources[j].Name
	})
}
