package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/dto"
)

// ProviderOptionsInput is the (empty) input of provider_options.
type ProviderOptionsInput struct{}

// ProviderStatusInput is the input of provider_status.
type ProviderStatusInput struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"probe every provider before reporting"`
}

// IngestJobInput is the input of get_ingest_job.
type IngestJobInput struct {
	JobID string `json:"jobId" jsonschema:"job id returned by queue_ingest or search"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search",
		Description: "Search the personal corpus and external web search providers together. " +
			"Returns one fused ranking and a sessionId that queue_ingest accepts.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "provider_options",
		Description: "List external search providers with the filters, engines, languages and time ranges they support",
	}, s.handleProviderOptions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "provider_status",
		Description: "Report external search provider health",
	}, s.handleProviderStatus)

	if s.ports.Ingest == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "queue_ingest",
		Description: "Store selected external results from a search session in the corpus. " +
			"persistMode snippet keeps the search snippet; enriched fetches the full page.",
	}, s.handleQueueIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_ingest_job",
		Description: "Get the progress of an ingestion job",
	}, s.handleGetIngestJob)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input dto.SearchRequest,
) (*mcp.CallToolResult, dto.SearchResponse, error) {
	req, err := input.ToDomain(s.ports.OwnerID)
	if err != nil {
		return nil, dto.SearchResponse{}, err
	}

	resp, err := s.ports.Query.Search(ctx, req)
	if err != nil {
		return nil, dto.SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	return nil, dto.FromSearchResponse(resp), nil
}

func (s *Server) handleProviderOptions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ProviderOptionsInput,
) (*mcp.CallToolResult, dto.ProviderOptions, error) {
	report, err := s.ports.Query.ProviderOptions(ctx)
	if err != nil {
		return nil, dto.ProviderOptions{}, err
	}
	return nil, dto.FromProviderOptions(report), nil
}

func (s *Server) handleProviderStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProviderStatusInput,
) (*mcp.CallToolResult, dto.ProviderStatus, error) {
	report, err := s.ports.Query.ProviderStatus(ctx, input.Refresh)
	if err != nil {
		return nil, dto.ProviderStatus{}, err
	}
	return nil, dto.FromProviderStatus(report), nil
}

func (s *Server) handleQueueIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input dto.IngestRequest,
) (*mcp.CallToolResult, dto.IngestReceipt, error) {
	req, err := input.ToDomain(s.ports.OwnerID)
	if err != nil {
		return nil, dto.IngestReceipt{}, err
	}

	receipt, err := s.ports.Ingest.QueueIngest(ctx, req)
	if err != nil {
		return nil, dto.IngestReceipt{}, fmt.Errorf("queue ingest: %w", err)
	}
	return nil, dto.FromIngestReceipt(receipt), nil
}

func (s *Server) handleGetIngestJob(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestJobInput,
) (*mcp.CallToolResult, dto.IngestJob, error) {
	job, err := s.ports.Ingest.GetIngestJob(ctx, s.ports.OwnerID, input.JobID)
	if err != nil {
		return nil, dto.IngestJob{}, fmt.Errorf("get ingest job %q: %w", input.JobID, err)
	}
	return nil, dto.FromIngestJob(job), nil
}
