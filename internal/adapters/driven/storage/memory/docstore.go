package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	byURL     map[string]string // owner\x00canonical URL -> document ID
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		byURL:     make(map[string]string),
		chunks:    make(map[string][]domain.Chunk),
	}
}

func urlKey(ownerID, canonicalURL string) string {
	return ownerID + "\x00" + canonicalURL
}

// FindByURL returns the owner's document with the given canonical URL.
func (s *DocumentStore) FindByURL(_ context.Context, ownerID, canonicalURL string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byURL[urlKey(ownerID, canonicalURL)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// ExistingURLs returns the subset of canonicalURLs the owner already stores.
func (s *DocumentStore) ExistingURLs(_ context.Context, ownerID string, canonicalURLs []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing := make(map[string]bool)
	for _, u := range canonicalURLs {
		if _, ok := s.byURL[urlKey(ownerID, u)]; ok {
			existing[u] = true
		}
	}
	return existing, nil
}

// BulkInsert stores documents whose (owner, canonical URL) is new.
func (s *DocumentStore) BulkInsert(_ context.Context, docs []domain.Document) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := make([]domain.Document, 0, len(docs))
	for i := range docs {
		key := urlKey(docs[i].OwnerID, docs[i].CanonicalURL)
		if _, exists := s.byURL[key]; exists {
			continue
		}
		s.byURL[key] = docs[i].ID
		s.documents[docs[i].ID] = docs[i]
		inserted = append(inserted, docs[i])
	}
	return inserted, nil
}

// SaveChunks stores chunks for a document.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := chunks[0].DocumentID
	s.chunks[docID] = chunks
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// ListDocuments returns the owner's documents for a source, oldest first.
func (s *DocumentStore) ListDocuments(_ context.Context, ownerID, sourceID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []domain.Document
	for _, doc := range s.documents {
		if doc.OwnerID == ownerID && doc.SourceID == sourceID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// Count returns the number of stored documents.
func (s *DocumentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}
