package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

func TestSearchRequest_ToDomain(t *testing.T) {
	req, err := SearchRequest{
		Query:       "  rank fusion ",
		PersistMode: "snippet",
		Provider:    "Tavily",
		TimeRange:   "week",
		Engines:     []string{"duckduckgo"},
	}.ToDomain("owner-1")
	require.NoError(t, err)

	assert.Equal(t, "owner-1", req.OwnerID)
	assert.Equal(t, "rank fusion", req.Query)
	assert.True(t, req.IncludeExternal)
	assert.Equal(t, domain.PersistModeSnippetOnly, req.PersistMode)
	assert.Equal(t, "tavily", req.Provider)
	assert.Equal(t, "week", req.TimeRange)
	assert.Equal(t, []string{"duckduckgo"}, req.Engines)

	internalOnly := false
	req, err = SearchRequest{Query: "q", IncludeExternal: &internalOnly}.ToDomain("owner-1")
	require.NoError(t, err)
	assert.False(t, req.IncludeExternal)
	assert.Equal(t, domain.PersistModeNone, req.PersistMode)
}

func TestSearchRequest_ToDomain_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"empty query", SearchRequest{Query: "   "}},
		{"persist mode", SearchRequest{Query: "q", PersistMode: "everything"}},
		{"time range", SearchRequest{Query: "q", TimeRange: "decade"}},
		{"negative limit", SearchRequest{Query: "q", Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToDomain("owner-1")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestIngestRequest_ToDomain(t *testing.T) {
	req, err := IngestRequest{SessionID: "s-1", PersistMode: "enriched", SelectedURLs: []string{"https://a.example"}}.ToDomain("owner-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PersistModeEnriched, req.PersistMode)
	assert.Equal(t, "s-1", req.SessionID)

	_, err = IngestRequest{SessionID: "s-1", PersistMode: "none"}.ToDomain("owner-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = IngestRequest{PersistMode: "snippet"}.ToDomain("owner-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFromSearchResponse_JSON(t *testing.T) {
	fetched := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	resp := FromSearchResponse(&domain.SearchResponse{
		Query: "q",
		Results: []domain.FusedHit{{
			SearchHit: domain.SearchHit{
				Title: "A", URL: "https://a.example", Origin: domain.OriginInternal, FetchedAt: fetched,
			},
			Score:   2.0 / 61,
			Origins: []domain.Origin{domain.OriginInternal, domain.OriginExternal},
		}},
		InternalCount: 1,
		ExternalCount: 2,
		SessionID:     "s-1",
		ProviderUsed:  "tavily",
		FallbackUsed:  true,
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "s-1", decoded["sessionId"])
	assert.Equal(t, "tavily", decoded["providerUsed"])
	assert.Equal(t, true, decoded["fallbackUsed"])
	assert.NotContains(t, decoded, "ingestJobId")

	results := decoded["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, []any{"internal", "external"}, first["origins"])
}

func TestFromProviderStatus(t *testing.T) {
	checked := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	status := FromProviderStatus(&domain.ProviderStatusReport{
		DefaultProvider:      "auto",
		FallbackProvider:     "tavily",
		HealthyProviderCount: 1,
		Providers: []domain.ProviderStatus{
			{Name: "tavily", Available: true, Health: domain.ProviderHealthHealthy, LatencyMs: 120, Message: "ok", CheckedAt: checked},
			{Name: "google", Health: domain.ProviderHealthUnconfigured, Message: "missing api key"},
		},
	})

	require.Len(t, status.Providers, 2)
	assert.True(t, status.Providers[0].Healthy)
	require.NotNil(t, status.Providers[0].CheckedAt)
	assert.False(t, status.Providers[1].Healthy)
	assert.Nil(t, status.Providers[1].CheckedAt)
	assert.Equal(t, "unconfigured", status.Providers[1].Health)
}

func TestFromIngestJob(t *testing.T) {
	job := FromIngestJob(&domain.IngestJob{
		ID:          "job-1",
		PersistMode: domain.PersistModeSnippetOnly,
		Status:      domain.JobStatusCompleted,
		TotalItems:  2, ProcessedItems: 2, StoredItems: 1, DuplicateItems: 1,
		Failures: []domain.ItemFailure{{URL: "https://x.example", Reason: domain.FailureReasonFetch}},
	})

	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, "snippet", job.PersistMode)
	assert.Equal(t, "completed", job.Status)
	assert.Equal(t, []string{}, job.SelectedURLs)
	require.Len(t, job.Failures, 1)
	assert.Equal(t, "fetch_failure", job.Failures[0].Reason)
}
