package driving

import (
	"context"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// IngestService admits selected external results into the owner's corpus.
type IngestService interface {
	// QueueIngest creates an ingestion job for hits of a live search session
	// and starts it in the background.
	QueueIngest(ctx context.Context, req domain.IngestRequest) (*domain.IngestReceipt, error)

	// GetIngestJob returns the current state of an owner's job.
	GetIngestJob(ctx context.Context, ownerID, jobID string) (*domain.IngestJob, error)

	// Drain waits until every job started by this process has finished,
	// or ctx is done.
	Drain(ctx context.Context) error
}
