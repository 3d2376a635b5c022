package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// SessionStore is the short-lived cache of search sessions.
type SessionStore interface {
	// Put stores a session until its ExpiresAt.
	Put(ctx context.Context, session *domain.SearchSession) error

	// Get returns a live session. Returns domain.ErrInvalidSession when the
	// session is unknown or expired.
	Get(ctx context.Context, id string) (*domain.SearchSession, error)

	// AcquireIngestRef atomically counts one ingestion request against the
	// session and returns it. Returns domain.ErrInvalidSession when the
	// session is unknown, expired or has already served maxRefs requests.
	AcquireIngestRef(ctx context.Context, id string, maxRefs int) (*domain.SearchSession, error)

	// ReleaseIngestRef gives back a ref whose request produced no job.
	// Unknown sessions are ignored.
	ReleaseIngestRef(ctx context.Context, id string) error

	// Sweep evicts sessions expired at now and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
