package driven

import (
	"context"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// DocumentStore persists stored items and their chunks.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// FindByURL returns the owner's document with the given canonical URL.
	// Returns domain.ErrNotFound if none exists.
	FindByURL(ctx context.Context, ownerID, canonicalURL string) (*domain.Document, error)

	// ExistingURLs returns the subset of canonicalURLs the owner already stores.
	ExistingURLs(ctx context.Context, ownerID string, canonicalURLs []string) (map[string]bool, error)

	// BulkInsert stores documents, skipping any whose (owner, canonical URL)
	// already exists. Returns only the documents actually inserted.
	BulkInsert(ctx context.Context, docs []domain.Document) ([]domain.Document, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns the owner's documents for a source.
	ListDocuments(ctx context.Context, ownerID, sourceID string) ([]domain.Document, error)

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)
}
