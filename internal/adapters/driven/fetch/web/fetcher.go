// Package web fetches single web pages for enriched ingestion.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.PageFetcher = (*Fetcher)(nil)

const maxRedirects = 5

// Config configures the fetcher.
type Config struct {
	// Timeout bounds the whole request. Default 20s.
	Timeout time.Duration

	// MaxBytes caps the body. Default 5 MiB.
	MaxBytes int64

	UserAgent string

	// Transport overrides the HTTP transport.
	Transport http.RoundTripper
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "sercha-discover/1.0"
	}
}

// Fetcher downloads HTML and text pages and decodes them to UTF-8.
type Fetcher struct {
	client *http.Client
	cfg    Config
	now    func() time.Time
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		cfg: cfg,
		now: time.Now,
	}
}

// Fetch retrieves url. Non-2xx answers and non-textual bodies are
// returned as *driven.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.FetchedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &driven.FetchError{URL: url, StatusCode: http.StatusBadRequest, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &driven.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &driven.FetchError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !textual(contentType) {
		return nil, &driven.FetchError{
			URL:        url,
			StatusCode: http.StatusUnsupportedMediaType,
			Err:        fmt.Errorf("unsupported content type %q", contentType),
		}
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, f.cfg.MaxBytes), contentType)
	if err != nil {
		return nil, &driven.FetchError{URL: url, Err: fmt.Errorf("decode charset: %w", err)}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &driven.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	mediaType, _, _ := mime.ParseMediaType(contentType) //nolint:errcheck // empty on malformed headers
	return &domain.FetchedPage{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: mediaType,
		Body:        body,
		FetchedAt:   f.now(),
	}, nil
}

// textual accepts HTML, XHTML and plain text. A missing header is sniffed later.
func textual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/xhtml+xml"
}
