// Package providers holds helpers shared by the external search provider
// adapters in its subpackages.
package providers

import (
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// MaxSnippetRunes bounds a normalised snippet.
const MaxSnippetRunes = 500

// DefaultTimeout is the HTTP client timeout; the router applies its own
// per-call deadline on top.
const DefaultTimeout = 20 * time.Second

var strict = bluemonday.StrictPolicy()

// CleanSnippet strips markup from provider text, unescapes entities,
// collapses whitespace and truncates to MaxSnippetRunes.
func CleanSnippet(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	return Truncate(s, MaxSnippetRunes)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

// StatusError is a non-2xx answer from a provider API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// CheckResponse returns a *StatusError for non-2xx responses.
func CheckResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256)) //nolint:errcheck // best-effort error detail
	return &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// Ranked drops hits without a URL, caps the list at limit (when positive)
// and stamps provider, origin and 1-based rank.
func Ranked(provider string, hits []domain.SearchHit, limit int, now time.Time) []domain.SearchHit {
	out := make([]domain.SearchHit, 0, len(hits))
	for _, h := range hits {
		if strings.TrimSpace(h.URL) == "" {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		h.Origin = domain.OriginExternal
		h.ProviderName = provider
		h.Rank = len(out) + 1
		h.FetchedAt = now
		out = append(out, h)
	}
	return out
}

// ParseTime parses the timestamp layouts providers commonly return.
// Returns nil when s is empty or unparseable.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02", time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// TimeRangeStart returns the start of a day|week|month|year window ending at now.
func TimeRangeStart(timeRange string, now time.Time) (time.Time, bool) {
	switch timeRange {
	case "day":
		return now.AddDate(0, 0, -1), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, -1, 0), true
	case "year":
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}
