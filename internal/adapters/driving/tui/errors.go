package tui

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("tui: query service is required")

// ErrMissingIngestService is returned when job watching has no ingest service.
var ErrMissingIngestService = errors.New("tui: ingest service is required")

// ErrMissingOwner is returned when no owner is configured.
var ErrMissingOwner = errors.New("tui: owner id is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
