// Package github implements a search provider over GitHub repository search.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/providers"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.SearchProvider = (*Provider)(nil)

// maxPerPage is the largest page the search API serves.
const maxPerPage = 100

// Config configures the GitHub provider.
type Config struct {
	// Token is a personal access token.
	Token string

	// BaseURL overrides the API root (GitHub Enterprise or tests).
	BaseURL string

	// RequestsPerSecond is the proactive throttle rate.
	RequestsPerSecond float64
}

// Provider searches public repositories.
type Provider struct {
	cfg     Config
	limiter *RateLimiter
	now     func() time.Time

	client *gh.Client
}

// New creates a GitHub provider. It is unavailable without a token.
func New(cfg Config) (*Provider, error) {
	p := &Provider{
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RequestsPerSecond),
		now:     time.Now,
	}
	if cfg.Token == "" {
		return p, nil
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = providers.DefaultTimeout
	p.client = gh.NewClient(tc)

	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		p.client.BaseURL = base
	}
	return p, nil
}

// Name returns "github".
func (p *Provider) Name() string { return domain.ProviderGitHub }

// Available reports whether a token is configured.
func (p *Provider) Available() bool { return p.client != nil }

// Search finds repositories matching the query, best match first.
func (p *Provider) Search(ctx context.Context, q domain.ExternalQuery) ([]domain.SearchHit, error) {
	if !p.Available() {
		return nil, fmt.Errorf("%w: github token not configured", domain.ErrProviderUnavailable)
	}

	perPage := q.MaxResults
	if perPage <= 0 || perPage > maxPerPage {
		perPage = 10
	}
	query := q.Query
	if start, ok := providers.TimeRangeStart(q.TimeRange, p.now()); ok {
		query += " pushed:>=" + start.UTC().Format("2006-01-02")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, resp, err := p.client.Search.Repositories(ctx, query, &gh.SearchOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	})
	if resp != nil {
		p.limiter.Update(resp.Rate)
	}
	if err != nil {
		return nil, wrapError(resp, err)
	}

	hits := make([]domain.SearchHit, 0, len(res.Repositories))
	for _, repo := range res.Repositories {
		hit := domain.SearchHit{
			Title:   repo.GetFullName(),
			URL:     repo.GetHTMLURL(),
			Snippet: snippet(repo),
		}
		if pushed := repo.GetPushedAt(); !pushed.IsZero() {
			t := pushed.UTC()
			hit.PublishedAt = &t
		}
		hits = append(hits, hit)
	}
	return providers.Ranked(domain.ProviderGitHub, hits, perPage, p.now()), nil
}

func snippet(repo *gh.Repository) string {
	parts := make([]string, 0, 3)
	if d := strings.TrimSpace(repo.GetDescription()); d != "" {
		parts = append(parts, d)
	}
	if lang := repo.GetLanguage(); lang != "" {
		parts = append(parts, lang)
	}
	parts = append(parts, strconv.Itoa(repo.GetStargazersCount())+" stars")
	return providers.CleanSnippet(strings.Join(parts, " · "))
}

func wrapError(resp *gh.Response, err error) error {
	var rlErr *gh.RateLimitError
	if errors.As(err, &rlErr) {
		return &providers.StatusError{Provider: domain.ProviderGitHub, StatusCode: http.StatusTooManyRequests, Body: rlErr.Message}
	}
	if resp != nil && resp.StatusCode >= http.StatusBadRequest {
		msg := err.Error()
		var errResp *gh.ErrorResponse
		if errors.As(err, &errResp) {
			msg = errResp.Message
		}
		return &providers.StatusError{Provider: domain.ProviderGitHub, StatusCode: resp.StatusCode, Body: msg}
	}
	return fmt.Errorf("github: %w", err)
}

// Capabilities reports time range filtering via the pushed qualifier.
func (p *Provider) Capabilities(_ context.Context) domain.ProviderCapabilities {
	return domain.ProviderCapabilities{
		Name:       domain.ProviderGitHub,
		Available:  p.Available(),
		Supports:   domain.ProviderFilters{TimeRange: true},
		TimeRanges: domain.StandardTimeRanges(),
	}
}

// Probe checks the token by reading the rate limit, which costs no quota.
func (p *Provider) Probe(ctx context.Context) error {
	if !p.Available() {
		return fmt.Errorf("%w: github token not configured", domain.ErrProviderUnavailable)
	}
	limits, resp, err := p.client.RateLimit.Get(ctx)
	if err != nil {
		return wrapError(resp, err)
	}
	if limits != nil && limits.Search != nil {
		p.limiter.Update(*limits.Search)
	}
	return nil
}
