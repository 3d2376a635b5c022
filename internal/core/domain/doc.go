// Package domain defines the core business entities for Sercha Discover.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SearchHit / FusedHit: ranked results from internal and external search
//   - SearchSession: short-lived handle tying a query to its external hits
//   - Source: native feed or per-(owner, provider) virtual provenance record
//   - Document / Chunk: stored items and their searchable units
//   - IngestJob: pollable state of an asynchronous ingestion run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
