package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/dto"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

type mockQueryService struct {
	response *domain.SearchResponse
	err      error

	lastRequest domain.SearchRequest
	lastRefresh bool
}

func (m *mockQueryService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.lastRequest = req
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &domain.SearchResponse{Query: req.Query}, nil
}

func (m *mockQueryService) ProviderOptions(_ context.Context) (*domain.ProviderOptionsReport, error) {
	return &domain.ProviderOptionsReport{
		DefaultProvider: "auto",
		Providers:       []domain.ProviderCapabilities{{Name: "tavily", Available: true}},
	}, nil
}

func (m *mockQueryService) ProviderStatus(_ context.Context, refresh bool) (*domain.ProviderStatusReport, error) {
	m.lastRefresh = refresh
	return &domain.ProviderStatusReport{DefaultProvider: "auto", HealthyProviderCount: 1}, nil
}

type mockIngestService struct {
	err       error
	lastReq   domain.IngestRequest
	lastOwner string
}

func (m *mockIngestService) QueueIngest(_ context.Context, req domain.IngestRequest) (*domain.IngestReceipt, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestReceipt{JobID: "job-1", Status: domain.JobStatusQueued, QueuedCount: 2, PersistMode: req.PersistMode}, nil
}

func (m *mockIngestService) GetIngestJob(_ context.Context, ownerID, jobID string) (*domain.IngestJob, error) {
	m.lastOwner = ownerID
	if jobID != "job-1" {
		return nil, domain.ErrNotFound
	}
	return &domain.IngestJob{ID: "job-1", Status: domain.JobStatusRunning, TotalItems: 2, ProcessedItems: 1}, nil
}

func (m *mockIngestService) Drain(_ context.Context) error { return nil }

type mockSourceService struct {
	lastOwner string
}

func (m *mockSourceService) List(_ context.Context, ownerID string) ([]domain.Source, error) {
	m.lastOwner = ownerID
	return []domain.Source{domain.NewVirtualSource(ownerID, "searxng")}, nil
}

func (m *mockSourceService) Get(_ context.Context, _ string) (*domain.Source, error) {
	return nil, domain.ErrNotFound
}

type fixture struct {
	query   *mockQueryService
	ingest  *mockIngestService
	sources *mockSourceService
	server  *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		query:   &mockQueryService{},
		ingest:  &mockIngestService{},
		sources: &mockSourceService{},
	}
	server, err := NewServer(Ports{Query: f.query, Ingest: f.ingest, Source: f.sources}, Config{DefaultOwnerID: "local"})
	require.NoError(t, err)
	f.server = server
	return f
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewServer_RequiresQuery(t *testing.T) {
	_, err := NewServer(Ports{}, Config{})
	assert.ErrorIs(t, err, ErrMissingQueryService)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.query.response = &domain.SearchResponse{
		Query:        "vector db",
		SessionID:    "session-1",
		ProviderUsed: "searxng",
		Results: []domain.FusedHit{{
			SearchHit: domain.SearchHit{Title: "A", URL: "https://a.example", Origin: domain.OriginExternal},
			Origins:   []domain.Origin{domain.OriginExternal},
		}},
	}

	rec := f.do(http.MethodPost, "/v1/search",
		`{"query":"vector db","provider":"searxng","timeRange":"month","includeExternal":true}`,
		map[string]string{OwnerHeader: "alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[dto.SearchResponse](t, rec)
	assert.Equal(t, "session-1", resp.SessionID)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "alice", f.query.lastRequest.OwnerID)
	assert.Equal(t, "month", f.query.lastRequest.TimeRange)
}

func TestSearch_DefaultOwner(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/v1/search", `{"query":"q"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "local", f.query.lastRequest.OwnerID)
	assert.True(t, f.query.lastRequest.IncludeExternal)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantTag  string
	}{
		{"empty body", "", nil, http.StatusBadRequest, "invalid_input"},
		{"malformed json", `{"query":`, nil, http.StatusBadRequest, "invalid_input"},
		{"unknown field", `{"query":"q","bogus":1}`, nil, http.StatusBadRequest, "invalid_input"},
		{"missing query", `{"query":""}`, nil, http.StatusBadRequest, "invalid_input"},
		{"all providers down", `{"query":"q"}`, domain.ErrAllProvidersDown, http.StatusServiceUnavailable, "all_providers_down"},
		{"internal failure", `{"query":"q"}`, errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.query.err = tt.err

			var rec *httptest.ResponseRecorder
			if tt.body == "" {
				req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(""))
				req.Header.Set("Content-Type", "application/json")
				rec = httptest.NewRecorder()
				f.server.ServeHTTP(rec, req)
			} else {
				rec = f.do(http.MethodPost, "/v1/search", tt.body, nil)
			}

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decode[errorBody](t, rec)
			assert.Equal(t, tt.wantTag, body.Code)
		})
	}
}

func TestSearch_RejectsNonJSON(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader("query=q"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestProviders(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/v1/providers/options", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	options := decode[dto.ProviderOptions](t, rec)
	assert.Equal(t, "auto", options.DefaultProvider)
	require.Len(t, options.Providers, 1)

	rec = f.do(http.MethodGet, "/v1/providers/status?refresh=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[dto.ProviderStatus](t, rec)
	assert.Equal(t, 1, status.HealthyProviderCount)
	assert.True(t, f.query.lastRefresh)

	rec = f.do(http.MethodGet, "/v1/providers/status?refresh=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueIngest(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/v1/ingest",
		`{"sessionId":"session-1","selectedUrls":["https://a.example"],"persistMode":"enriched"}`,
		map[string]string{OwnerHeader: "alice"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "/v1/ingest/jobs/job-1", rec.Header().Get("Location"))

	receipt := decode[dto.IngestReceipt](t, rec)
	assert.Equal(t, "job-1", receipt.JobID)
	assert.Equal(t, "queued", receipt.Status)
	assert.Equal(t, "enriched", receipt.PersistMode)
	assert.Equal(t, "alice", f.ingest.lastReq.OwnerID)
	assert.Equal(t, []string{"https://a.example"}, f.ingest.lastReq.SelectedURLs)
}

func TestQueueIngest_InvalidSession(t *testing.T) {
	f := newFixture(t)
	f.ingest.err = domain.ErrInvalidSession

	rec := f.do(http.MethodPost, "/v1/ingest", `{"sessionId":"expired","persistMode":"snippet"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "invalid_session", decode[errorBody](t, rec).Code)
}

func TestGetIngestJob(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/v1/ingest/jobs/job-1", "", map[string]string{OwnerHeader: "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	job := decode[dto.IngestJob](t, rec)
	assert.Equal(t, "running", job.Status)
	assert.Equal(t, 1, job.ProcessedItems)
	assert.Equal(t, "bob", f.ingest.lastOwner)

	rec = f.do(http.MethodGet, "/v1/ingest/jobs/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSources(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/v1/sources", "", map[string]string{OwnerHeader: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	sources := decode[[]dto.Source](t, rec)
	require.Len(t, sources, 1)
	assert.Equal(t, "virtual://searxng", sources[0].URL)
	assert.Equal(t, "alice", f.sources.lastOwner)
}

func TestIngestRoutesAbsentWithoutService(t *testing.T) {
	server, err := NewServer(Ports{Query: &mockQueryService{}}, Config{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/ingest/jobs/job-1", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ready := errors.New("database locked")
	server, err := NewServer(Ports{Query: &mockQueryService{}}, Config{
		Ready: func(context.Context) error { return ready },
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = nil
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
