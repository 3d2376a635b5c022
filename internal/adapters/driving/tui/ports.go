// Package tui provides the interactive terminal interface for discover.
// It is a driving adapter over the core query, ingest and source services.
package tui

import (
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI calls.
type Ports struct {
	// Query runs hybrid searches. Required.
	Query driving.QueryService

	// Ingest queues and reports ingestion jobs. Optional; without it
	// results cannot be ingested.
	Ingest driving.IngestService

	// Source lists the owner's sources. Optional.
	Source driving.SourceService

	// OwnerID is the user every call acts for.
	OwnerID string
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.OwnerID == "" {
		return ErrMissingOwner
	}
	return nil
}
