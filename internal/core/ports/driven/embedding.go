package driven

import "context"

// EmbeddingService turns text into vectors. Queries are embedded at search
// time and stored item chunks at ingestion time, so both must use one model.
// Nil disables vector search and vector indexing.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in order, one vector per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length the model produces.
	Dimensions() int

	ModelName() string

	// Ping makes the cheapest request the provider accepts.
	Ping(ctx context.Context) error

	Close() error
}
