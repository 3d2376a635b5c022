// Package tavily implements the Tavily web search provider.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/providers"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.SearchProvider = (*Provider)(nil)

// DefaultBaseURL is the Tavily API endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// Config configures the Tavily provider.
type Config struct {
	APIKey  string
	BaseURL string

	// SearchDepth is "basic" or "advanced".
	SearchDepth string

	HTTPClient *http.Client
}

// Provider searches the web through the Tavily API.
type Provider struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// New creates a Tavily provider. It is unavailable without an API key.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SearchDepth == "" {
		cfg.SearchDepth = "basic"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: providers.DefaultTimeout}
	}
	return &Provider{cfg: cfg, client: client, now: time.Now}
}

// Name returns "tavily".
func (p *Provider) Name() string { return domain.ProviderTavily }

// Available reports whether an API key is configured.
func (p *Provider) Available() bool { return p.cfg.APIKey != "" }

type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeRawContent bool   `json:"include_raw_content"`
	TimeRange         string `json:"time_range,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		RawContent    string  `json:"raw_content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

// Search runs a Tavily query.
func (p *Provider) Search(ctx context.Context, q domain.ExternalQuery) ([]domain.SearchHit, error) {
	if !p.Available() {
		return nil, fmt.Errorf("%w: tavily api key not configured", domain.ErrProviderUnavailable)
	}
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	req := searchRequest{
		APIKey:      p.cfg.APIKey,
		Query:       q.Query,
		MaxResults:  maxResults,
		SearchDepth: p.cfg.SearchDepth,
	}
	if _, ok := providers.TimeRangeStart(q.TimeRange, p.now()); ok {
		req.TimeRange = q.TimeRange
	}

	var resp searchResponse
	if err := p.post(ctx, req, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, domain.SearchHit{
			Title:       strings.TrimSpace(r.Title),
			URL:         r.URL,
			Snippet:     providers.CleanSnippet(r.Content),
			Content:     r.RawContent,
			Engine:      domain.ProviderTavily,
			RawScore:    r.Score,
			PublishedAt: providers.ParseTime(r.PublishedDate),
		})
	}
	return providers.Ranked(domain.ProviderTavily, hits, maxResults, p.now()), nil
}

func (p *Provider) post(ctx context.Context, body searchRequest, out *searchResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	if err := providers.CheckResponse(domain.ProviderTavily, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tavily: decode response: %w", err)
	}
	return nil
}

// Capabilities reports the time range filter; Tavily has no engine or language selection.
func (p *Provider) Capabilities(_ context.Context) domain.ProviderCapabilities {
	return domain.ProviderCapabilities{
		Name:       domain.ProviderTavily,
		Available:  p.Available(),
		Supports:   domain.ProviderFilters{TimeRange: true},
		TimeRanges: domain.StandardTimeRanges(),
	}
}

// Probe runs a one-result query, the cheapest authenticated call Tavily offers.
func (p *Provider) Probe(ctx context.Context) error {
	_, err := p.Search(ctx, domain.ExternalQuery{Query: "health check", MaxResults: 1})
	return err
}
