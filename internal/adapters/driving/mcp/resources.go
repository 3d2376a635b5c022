package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/dto"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

const uriScheme = "discover://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "The owner's native and virtual sources",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "providers/status",
		Name:        "provider-status",
		Description: "Last observed external provider health",
		MIMEType:    "application/json",
	}, s.handleProviderStatusResource)

	if s.ports.Ingest != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "ingest/jobs/{jobId}",
			Name:        "ingest-job",
			Description: "Progress of an ingestion job",
			MIMEType:    "application/json",
		}, s.handleIngestJobResource)
	}
}

func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Source == nil {
		return jsonResource(req.Params.URI, []dto.Source{})
	}

	sources, err := s.ports.Source.List(ctx, s.ports.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return jsonResource(req.Params.URI, dto.FromSources(sources))
}

func (s *Server) handleProviderStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	report, err := s.ports.Query.ProviderStatus(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("provider status: %w", err)
	}
	return jsonResource(req.Params.URI, dto.FromProviderStatus(report))
}

func (s *Server) handleIngestJobResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	jobID := extractJobID(req.Params.URI)
	if jobID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	job, err := s.ports.Ingest.GetIngestJob(ctx, s.ports.OwnerID, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting ingest job: %w", err)
	}
	return jsonResource(req.Params.URI, dto.FromIngestJob(job))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractJobID extracts the job ID from a URI like discover://ingest/jobs/{jobId}.
func extractJobID(uri string) string {
	const prefix = uriScheme + "ingest/jobs/"

	id, ok := strings.CutPrefix(uri, prefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
