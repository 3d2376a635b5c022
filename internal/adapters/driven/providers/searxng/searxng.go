// Package searxng implements the SearXNG metasearch provider.
package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/providers"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.SearchProvider = (*Provider)(nil)

// capabilitiesTTL is how long a /config answer is reused.
const capabilitiesTTL = 10 * time.Minute

// Config configures the SearXNG provider.
type Config struct {
	// BaseURL is the instance root, e.g. http://localhost:8080.
	BaseURL string

	// APIKey is sent as X-API-Key when set.
	APIKey string

	HTTPClient *http.Client
}

// Provider searches a SearXNG instance through its JSON API.
type Provider struct {
	cfg    Config
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	caps      *instanceConfig
	capsAt    time.Time
	capsError error
}

// New creates a SearXNG provider. It is unavailable without a base URL.
func New(cfg Config) *Provider {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: providers.DefaultTimeout}
	}
	return &Provider{cfg: cfg, client: client, now: time.Now}
}

// Name returns "searxng".
func (p *Provider) Name() string { return domain.ProviderSearXNG }

// Available reports whether a base URL is configured.
func (p *Provider) Available() bool { return p.cfg.BaseURL != "" }

type searchResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Engine        string  `json:"engine"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"publishedDate"`
	} `json:"results"`
}

// Search runs a query against /search?format=json.
func (p *Provider) Search(ctx context.Context, q domain.ExternalQuery) ([]domain.SearchHit, error) {
	if !p.Available() {
		return nil, fmt.Errorf("%w: searxng base url not configured", domain.ErrProviderUnavailable)
	}

	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("format", "json")
	params.Set("pageno", "1")
	params.Set("safesearch", strconv.Itoa(clampSafeSearch(q.SafeSearch)))
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	if _, ok := providers.TimeRangeStart(q.TimeRange, p.now()); ok {
		params.Set("time_range", q.TimeRange)
	}
	if len(q.Engines) > 0 {
		params.Set("engines", strings.Join(q.Engines, ","))
	}

	var resp searchResponse
	if err := p.get(ctx, "/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, domain.SearchHit{
			Title:       strings.TrimSpace(r.Title),
			URL:         r.URL,
			Snippet:     providers.CleanSnippet(r.Content),
			Engine:      r.Engine,
			RawScore:    r.Score,
			PublishedAt: providers.ParseTime(r.PublishedDate),
		})
	}
	return providers.Ranked(domain.ProviderSearXNG, hits, q.MaxResults, p.now()), nil
}

func clampSafeSearch(level int) int {
	if level < 0 {
		return 0
	}
	if level > 2 {
		return 2
	}
	return level
}

func (p *Provider) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", p.cfg.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("searxng: %w", err)
	}
	defer resp.Body.Close()

	if err := providers.CheckResponse(domain.ProviderSearXNG, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("searxng: decode response: %w", err)
	}
	return nil
}

type instanceConfig struct {
	Engines []struct {
		Name    string `json:"name"`
		Enabled bool   `json:"enabled"`
	} `json:"engines"`
	Locales map[string]string `json:"locales"`
}

// fetchConfig reads /config, reusing a recent answer unless refresh is set.
func (p *Provider) fetchConfig(ctx context.Context, refresh bool) (*instanceConfig, error) {
	p.mu.Lock()
	if !refresh && !p.capsAt.IsZero() && p.now().Sub(p.capsAt) < capabilitiesTTL {
		caps, err := p.caps, p.capsError
		p.mu.Unlock()
		return caps, err
	}
	p.mu.Unlock()

	var cfg instanceConfig
	err := p.get(ctx, "/config", &cfg)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.capsAt = p.now()
	p.capsError = err
	if err != nil {
		p.caps = nil
		return nil, err
	}
	p.caps = &cfg
	return &cfg, nil
}

// Capabilities lists the instance's enabled engines and locales.
func (p *Provider) Capabilities(ctx context.Context) domain.ProviderCapabilities {
	caps := domain.ProviderCapabilities{
		Name:       domain.ProviderSearXNG,
		Available:  p.Available(),
		Supports:   domain.ProviderFilters{Engines: true, TimeRange: true, Language: true},
		TimeRanges: domain.StandardTimeRanges(),
	}
	if !p.Available() {
		return caps
	}

	cfg, err := p.fetchConfig(ctx, false)
	if err != nil {
		return caps
	}
	for _, e := range cfg.Engines {
		if !e.Enabled || e.Name == "" {
			continue
		}
		caps.Engines = append(caps.Engines, e.Name)
	}
	sort.Strings(caps.Engines)
	for code := range cfg.Locales {
		caps.Languages = append(caps.Languages, code)
	}
	sort.Strings(caps.Languages)
	return caps
}

// Probe refreshes /config, which also confirms the JSON API is reachable.
func (p *Provider) Probe(ctx context.Context) error {
	if !p.Available() {
		return fmt.Errorf("%w: searxng base url not configured", domain.ErrProviderUnavailable)
	}
	_, err := p.fetchConfig(ctx, true)
	return err
}
