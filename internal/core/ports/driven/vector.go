package driven

import "context"

// VectorIndex provides semantic similarity search operations.
type VectorIndex interface {
	// Add stores the embedding for an already saved chunk.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, chunkID string) error

	// Search finds the owner's k nearest chunks to the query vector.
	Search(ctx context.Context, ownerID string, query []float32, k int) ([]VectorHit, error)
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
