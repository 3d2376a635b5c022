package driven

import (
	"context"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// Chunker splits stored document content into indexable chunks.
type Chunker interface {
	// Chunk returns the chunks of doc, in position order.
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
