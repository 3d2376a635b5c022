// Package google implements the Google Programmable Search provider.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/providers"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.SearchProvider = (*Provider)(nil)

// maxNum is the largest page the Custom Search JSON API serves.
const maxNum = 10

// Config configures the Google provider.
type Config struct {
	APIKey string

	// EngineID is the Programmable Search Engine id (cx).
	EngineID string

	// Endpoint overrides the API base URL.
	Endpoint string
}

// Provider searches through the Custom Search JSON API.
type Provider struct {
	cfg Config
	now func() time.Time
}

// New creates a Google provider. It needs both an API key and an engine id.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg, now: time.Now}
}

// Name returns "google".
func (p *Provider) Name() string { return domain.ProviderGoogle }

// Available reports whether the key and engine id are set.
func (p *Provider) Available() bool {
	return p.cfg.APIKey != "" && p.cfg.EngineID != ""
}

func (p *Provider) service(ctx context.Context) (*customsearch.Service, error) {
	opts := []option.ClientOption{option.WithAPIKey(p.cfg.APIKey)}
	if p.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: create service: %w", err)
	}
	return svc, nil
}

// Search runs a query. Results are capped at ten, the API page size.
func (p *Provider) Search(ctx context.Context, q domain.ExternalQuery) ([]domain.SearchHit, error) {
	if !p.Available() {
		return nil, fmt.Errorf("%w: google api key or engine id not configured", domain.ErrProviderUnavailable)
	}
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}

	num := q.MaxResults
	if num <= 0 || num > maxNum {
		num = maxNum
	}
	call := svc.Cse.List().Q(q.Query).Cx(p.cfg.EngineID).Num(int64(num))
	if restrict := dateRestrict(q.TimeRange); restrict != "" {
		call = call.DateRestrict(restrict)
	}
	if q.Language != "" {
		call = call.Lr("lang_" + strings.ToLower(q.Language))
	}
	if q.SafeSearch > 0 {
		call = call.Safe("active")
	}

	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}

	hits := make([]domain.SearchHit, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil {
			continue
		}
		hits = append(hits, domain.SearchHit{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Snippet: providers.CleanSnippet(item.Snippet),
		})
	}
	return providers.Ranked(domain.ProviderGoogle, hits, num, p.now()), nil
}

func dateRestrict(timeRange string) string {
	switch timeRange {
	case "day":
		return "d1"
	case "week":
		return "w1"
	case "month":
		return "m1"
	case "year":
		return "y1"
	default:
		return ""
	}
}

// wrapError turns googleapi errors into *providers.StatusError.
func wrapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &providers.StatusError{Provider: domain.ProviderGoogle, StatusCode: gerr.Code, Body: gerr.Message}
	}
	return fmt.Errorf("google: %w", err)
}

// Capabilities reports the time range and language filters.
func (p *Provider) Capabilities(_ context.Context) domain.ProviderCapabilities {
	return domain.ProviderCapabilities{
		Name:       domain.ProviderGoogle,
		Available:  p.Available(),
		Supports:   domain.ProviderFilters{TimeRange: true, Language: true},
		TimeRanges: domain.StandardTimeRanges(),
	}
}

// Probe issues a single-result query.
func (p *Provider) Probe(ctx context.Context) error {
	_, err := p.Search(ctx, domain.ExternalQuery{Query: "test", MaxResults: 1})
	return err
}
