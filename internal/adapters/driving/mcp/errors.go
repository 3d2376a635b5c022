// Package mcp provides an MCP (Model Context Protocol) server adapter for discover.
// It lets AI assistants run combined searches and queue ingestion of the
// external results they find useful.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
