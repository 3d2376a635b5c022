// Package dto defines the JSON shapes shared by the HTTP API, the MCP
// server and the CLI's --json output, and their conversion from domain types.
package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// SearchRequest is the body of a search call.
type SearchRequest struct {
	Query string `json:"query" jsonschema:"the search query"`

	// IncludeExternal defaults to true when omitted.
	IncludeExternal    *bool    `json:"includeExternal,omitempty" jsonschema:"also query external providers (default true)"`
	PersistMode        string   `json:"persistMode,omitempty" jsonschema:"none, snippet or enriched: queue ingestion of every external hit"`
	PersistExternal    bool     `json:"persistExternal,omitempty" jsonschema:"promote persistMode none to snippet"`
	Provider           string   `json:"provider,omitempty" jsonschema:"auto or a provider name to pin"`
	MaxExternalResults int      `json:"maxExternalResults,omitempty" jsonschema:"external results to request"`
	Limit              int      `json:"limit,omitempty" jsonschema:"maximum fused results"`
	TimeRange          string   `json:"timeRange,omitempty" jsonschema:"day, week, month or year"`
	Language           string   `json:"language,omitempty" jsonschema:"result language such as en"`
	Engines            []string `json:"engines,omitempty" jsonschema:"meta-search engines to restrict to"`
}

// ToDomain validates r and converts it for ownerID.
func (r SearchRequest) ToDomain(ownerID string) (domain.SearchRequest, error) {
	query := strings.TrimSpace(r.Query)
	if query == "" {
		return domain.SearchRequest{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	mode, ok := domain.ParsePersistMode(r.PersistMode)
	if !ok {
		return domain.SearchRequest{}, fmt.Errorf("%w: unknown persistMode %q", domain.ErrInvalidInput, r.PersistMode)
	}
	if r.TimeRange != "" && !validTimeRange(r.TimeRange) {
		return domain.SearchRequest{}, fmt.Errorf("%w: unknown timeRange %q", domain.ErrInvalidInput, r.TimeRange)
	}
	if r.Limit < 0 || r.MaxExternalResults < 0 {
		return domain.SearchRequest{}, fmt.Errorf("%w: limits must not be negative", domain.ErrInvalidInput)
	}

	includeExternal := true
	if r.IncludeExternal != nil {
		includeExternal = *r.IncludeExternal
	}
	return domain.SearchRequest{
		OwnerID:            ownerID,
		Query:              query,
		IncludeExternal:    includeExternal,
		PersistMode:        mode,
		PersistExternal:    r.PersistExternal,
		Provider:           strings.ToLower(strings.TrimSpace(r.Provider)),
		MaxExternalResults: r.MaxExternalResults,
		Limit:              r.Limit,
		TimeRange:          r.TimeRange,
		Language:           r.Language,
		Engines:            r.Engines,
	}, nil
}

func validTimeRange(v string) bool {
	for _, tr := range domain.StandardTimeRanges() {
		if tr == v {
			return true
		}
	}
	return false
}

// SearchHit is one fused result.
type SearchHit struct {
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Snippet      string     `json:"snippet,omitempty"`
	Origin       string     `json:"origin"`
	Origins      []string   `json:"origins"`
	ProviderName string     `json:"providerName,omitempty"`
	Engine       string     `json:"engine,omitempty"`
	Rank         int        `json:"rank"`
	Score        float64    `json:"score"`
	SourceID     string     `json:"sourceId,omitempty"`
	DocumentID   string     `json:"documentId,omitempty"`
	SourceName   string     `json:"sourceName,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	FetchedAt    time.Time  `json:"fetchedAt"`
}

// SearchResponse is the result of a search call.
type SearchResponse struct {
	Query         string      `json:"query"`
	Summary       string      `json:"summary,omitempty"`
	Results       []SearchHit `json:"results"`
	InternalCount int         `json:"internalCount"`
	ExternalCount int         `json:"externalCount"`
	SessionID     string      `json:"sessionId,omitempty"`
	ProviderUsed  string      `json:"providerUsed,omitempty"`
	FallbackUsed  bool        `json:"fallbackUsed"`
	IngestJobID   string      `json:"ingestJobId,omitempty"`
}

// FromSearchResponse converts a domain response.
func FromSearchResponse(r *domain.SearchResponse) SearchResponse {
	out := SearchResponse{
		Query:         r.Query,
		Summary:       r.Summary,
		Results:       make([]SearchHit, len(r.Results)),
		InternalCount: r.InternalCount,
		ExternalCount: r.ExternalCount,
		SessionID:     r.SessionID,
		ProviderUsed:  r.ProviderUsed,
		FallbackUsed:  r.FallbackUsed,
		IngestJobID:   r.IngestJobID,
	}
	for i := range r.Results {
		h := &r.Results[i]
		origins := make([]string, len(h.Origins))
		for j, o := range h.Origins {
			origins[j] = o.String()
		}
		out.Results[i] = SearchHit{
			Title:        h.Title,
			URL:          h.URL,
			Snippet:      h.Snippet,
			Origin:       h.Origin.String(),
			Origins:      origins,
			ProviderName: h.ProviderName,
			Engine:       h.Engine,
			Rank:         i + 1,
			Score:        h.Score,
			SourceID:     h.SourceID,
			DocumentID:   h.DocumentID,
			SourceName:   h.SourceName,
			PublishedAt:  h.PublishedAt,
			FetchedAt:    h.FetchedAt,
		}
	}
	return out
}

// SupportedFilters lists the filters a provider honours.
type SupportedFilters struct {
	Engines   bool `json:"engines"`
	TimeRange bool `json:"timeRange"`
	Language  bool `json:"language"`
}

// ProviderOption describes one provider.
type ProviderOption struct {
	Name             string           `json:"name"`
	Available        bool             `json:"available"`
	SupportedFilters SupportedFilters `json:"supportedFilters"`
	Engines          []string         `json:"engines"`
	Languages        []string         `json:"languages"`
	TimeRanges       []string         `json:"timeRanges"`
}

// ProviderOptions answers getProviderOptions.
type ProviderOptions struct {
	DefaultProvider  string           `json:"defaultProvider"`
	FallbackProvider string           `json:"fallbackProvider"`
	Providers        []ProviderOption `json:"providers"`
}

// FromProviderOptions converts a domain report.
func FromProviderOptions(r *domain.ProviderOptionsReport) ProviderOptions {
	out := ProviderOptions{
		DefaultProvider:  r.DefaultProvider,
		FallbackProvider: r.FallbackProvider,
		Providers:        make([]ProviderOption, len(r.Providers)),
	}
	for i, p := range r.Providers {
		out.Providers[i] = ProviderOption{
			Name:      p.Name,
			Available: p.Available,
			SupportedFilters: SupportedFilters{
				Engines:   p.Supports.Engines,
				TimeRange: p.Supports.TimeRange,
				Language:  p.Supports.Language,
			},
			Engines:    nonNil(p.Engines),
			Languages:  nonNil(p.Languages),
			TimeRanges: nonNil(p.TimeRanges),
		}
	}
	return out
}

// ProviderHealth is the health of one provider.
type ProviderHealth struct {
	Name         string     `json:"name"`
	Available    bool       `json:"available"`
	Healthy      bool       `json:"healthy"`
	Health       string     `json:"health"`
	LatencyMs    int64      `json:"latencyMs"`
	Message      string     `json:"message"`
	BreakerState string     `json:"breakerState,omitempty"`
	CheckedAt    *time.Time `json:"checkedAt,omitempty"`
}

// ProviderStatus answers getProviderStatus.
type ProviderStatus struct {
	DefaultProvider      string           `json:"defaultProvider"`
	FallbackProvider     string           `json:"fallbackProvider"`
	HealthyProviderCount int              `json:"healthyProviderCount"`
	Providers            []ProviderHealth `json:"providers"`
}

// FromProviderStatus converts a domain report.
func FromProviderStatus(r *domain.ProviderStatusReport) ProviderStatus {
	out := ProviderStatus{
		DefaultProvider:      r.DefaultProvider,
		FallbackProvider:     r.FallbackProvider,
		HealthyProviderCount: r.HealthyProviderCount,
		Providers:            make([]ProviderHealth, len(r.Providers)),
	}
	for i, p := range r.Providers {
		h := ProviderHealth{
			Name:         p.Name,
			Available:    p.Available,
			Healthy:      p.Healthy(),
			Health:       p.Health.String(),
			LatencyMs:    p.LatencyMs,
			Message:      p.Message,
			BreakerState: p.BreakerState,
		}
		if !p.CheckedAt.IsZero() {
			checked := p.CheckedAt
			h.CheckedAt = &checked
		}
		out.Providers[i] = h
	}
	return out
}

// IngestRequest is the body of queueIngest.
type IngestRequest struct {
	SessionID    string   `json:"sessionId" jsonschema:"session id returned by search"`
	SelectedURLs []string `json:"selectedUrls,omitempty" jsonschema:"urls to ingest; empty selects every external hit"`
	PersistMode  string   `json:"persistMode" jsonschema:"snippet or enriched"`
}

// ToDomain validates r and converts it for ownerID.
func (r IngestRequest) ToDomain(ownerID string) (domain.IngestRequest, error) {
	if strings.TrimSpace(r.SessionID) == "" {
		return domain.IngestRequest{}, fmt.Errorf("%w: sessionId is required", domain.ErrInvalidInput)
	}
	mode, ok := domain.ParsePersistMode(r.PersistMode)
	if !ok || !mode.Persists() {
		return domain.IngestRequest{}, fmt.Errorf("%w: persistMode must be snippet or enriched", domain.ErrInvalidInput)
	}
	return domain.IngestRequest{
		OwnerID:      ownerID,
		SessionID:    strings.TrimSpace(r.SessionID),
		SelectedURLs: r.SelectedURLs,
		PersistMode:  mode,
	}, nil
}

// IngestReceipt acknowledges a queued job.
type IngestReceipt struct {
	JobID       string `json:"jobId"`
	Status      string `json:"status"`
	QueuedCount int    `json:"queuedCount"`
	PersistMode string `json:"persistMode"`
}

// FromIngestReceipt converts a domain receipt.
func FromIngestReceipt(r *domain.IngestReceipt) IngestReceipt {
	return IngestReceipt{
		JobID:       r.JobID,
		Status:      r.Status.String(),
		QueuedCount: r.QueuedCount,
		PersistMode: r.PersistMode.String(),
	}
}

// ItemFailure is one failed URL of a job.
type ItemFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// IngestJob is the pollable job state.
type IngestJob struct {
	JobID               string        `json:"jobId"`
	SessionID           string        `json:"sessionId"`
	ProviderName        string        `json:"providerName"`
	PersistMode         string        `json:"persistMode"`
	SelectedURLs        []string      `json:"selectedUrls"`
	Status              string        `json:"status"`
	TotalItems          int           `json:"totalItems"`
	ProcessedItems      int           `json:"processedItems"`
	StoredItems         int           `json:"storedItems"`
	FailedItems         int           `json:"failedItems"`
	DuplicateItems      int           `json:"duplicateItems"`
	RejectedItems       int           `json:"rejectedItems"`
	RetryCount          int           `json:"retryCount"`
	AverageQualityScore float64       `json:"averageQualityScore"`
	Failures            []ItemFailure `json:"failures"`
	ErrorMessage        string        `json:"errorMessage,omitempty"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
	StartedAt           *time.Time    `json:"startedAt,omitempty"`
	FinishedAt          *time.Time    `json:"finishedAt,omitempty"`
}

// FromIngestJob converts a domain job. Owner and items are not exposed.
func FromIngestJob(j *domain.IngestJob) IngestJob {
	failures := make([]ItemFailure, len(j.Failures))
	for i, f := range j.Failures {
		failures[i] = ItemFailure{URL: f.URL, Reason: string(f.Reason), Detail: f.Detail}
	}
	return IngestJob{
		JobID:               j.ID,
		SessionID:           j.SessionID,
		ProviderName:        j.ProviderName,
		PersistMode:         j.PersistMode.String(),
		SelectedURLs:        nonNil(j.SelectedURLs),
		Status:              j.Status.String(),
		TotalItems:          j.TotalItems,
		ProcessedItems:      j.ProcessedItems,
		StoredItems:         j.StoredItems,
		FailedItems:         j.FailedItems,
		DuplicateItems:      j.DuplicateItems,
		RejectedItems:       j.RejectedItems,
		RetryCount:          j.RetryCount,
		AverageQualityScore: j.AverageQualityScore,
		Failures:            failures,
		ErrorMessage:        j.ErrorMessage,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
		StartedAt:           j.StartedAt,
		FinishedAt:          j.FinishedAt,
	}
}

// Source is an owner's native or virtual source.
type Source struct {
	ID                     string    `json:"id"`
	Kind                   string    `json:"kind"`
	Name                   string    `json:"name"`
	URL                    string    `json:"url"`
	ProviderName           string    `json:"providerName,omitempty"`
	RefreshIntervalSeconds int64     `json:"refreshIntervalSeconds"`
	ItemCount              int       `json:"itemCount"`
	CreatedAt              time.Time `json:"createdAt"`
}

// FromSources converts domain sources.
func FromSources(sources []domain.Source) []Source {
	out := make([]Source, len(sources))
	for i := range sources {
		s := &sources[i]
		out[i] = Source{
			ID:                     s.ID,
			Kind:                   string(s.Kind),
			Name:                   s.Name,
			URL:                    s.URL,
			ProviderName:           s.ProviderName,
			RefreshIntervalSeconds: int64(s.RefreshInterval / time.Second),
			ItemCount:              s.ItemCount,
			CreatedAt:              s.CreatedAt,
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
