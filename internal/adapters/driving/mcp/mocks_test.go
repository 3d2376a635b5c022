package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	response *domain.SearchResponse
	options  *domain.ProviderOptionsReport
	status   *domain.ProviderStatusReport
	err      error

	lastRequest domain.SearchRequest
	lastRefresh bool
}

func (m *mockQueryService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.lastRequest = req
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.SearchResponse{Query: req.Query}, nil
	}
	return m.response, nil
}

func (m *mockQueryService) ProviderOptions(_ context.Context) (*domain.ProviderOptionsReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.options == nil {
		return &domain.ProviderOptionsReport{}, nil
	}
	return m.options, nil
}

func (m *mockQueryService) ProviderStatus(_ context.Context, refresh bool) (*domain.ProviderStatusReport, error) {
	m.lastRefresh = refresh
	if m.err != nil {
		return nil, m.err
	}
	if m.status == nil {
		return &domain.ProviderStatusReport{}, nil
	}
	return m.status, nil
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	receipt *domain.IngestReceipt
	jobs    map[string]*domain.IngestJob
	err     error

	lastRequest domain.IngestRequest
	lastOwner   string
}

func (m *mockIngestService) QueueIngest(_ context.Context, req domain.IngestRequest) (*domain.IngestReceipt, error) {
	m.lastRequest = req
	if m.err != nil {
		return nil, m.err
	}
	return m.receipt, nil
}

func (m *mockIngestService) GetIngestJob(_ context.Context, ownerID, jobID string) (*domain.IngestJob, error) {
	m.lastOwner = ownerID
	if m.err != nil {
		return nil, m.err
	}
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (m *mockIngestService) Drain(_ context.Context) error {
	return nil
}

// mockSourceService is a mock implementation of driving.SourceService.
type mockSourceService struct {
	sources   []domain.Source
	err       error
	lastOwner string
}

func (m *mockSourceService) List(_ context.Context, ownerID string) ([]domain.Source, error) {
	m.lastOwner = ownerID
	return m.sources, m.err
}

func (m *mockSourceService) Get(_ context.Context, id string) (*domain.Source, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.sources {
		if m.sources[i].ID == id {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}
