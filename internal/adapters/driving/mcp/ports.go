package mcp

import (
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Query answers searches and provider reports. Required.
	Query driving.QueryService

	// Ingest queues and reports ingestion jobs. Optional; the ingestion
	// tools are not registered without it.
	Ingest driving.IngestService

	// Source lists an owner's sources. Optional.
	Source driving.SourceService

	// OwnerID scopes every call. MCP sessions act for a single owner.
	OwnerID string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
