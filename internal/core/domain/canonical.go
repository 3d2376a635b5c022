package domain

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
)

// CanonicalURL reduces a URL to the form used as the per-owner dedup key and
// the fusion identity: lowercase scheme and host, no fragment, no default
// port, no utm_* tracking parameters, query parameters sorted by key then
// value, and no trailing slash except for the root path.
//
// CanonicalURL is idempotent: CanonicalURL(CanonicalURL(u)) == CanonicalURL(u).
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidInput)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: url %q is not absolute", ErrInvalidInput, raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !isDefaultPort(scheme, port) {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	if path == "" {
		path = "/"
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(path)

	if query := canonicalQuery(u.Query()); query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}

	return b.String(), nil
}

// CanonicalKey returns the canonical form of raw, or the trimmed input when
// it cannot be parsed. Used where a best-effort identity is enough.
func CanonicalKey(raw string) string {
	c, err := CanonicalURL(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return c
}

// HostOf returns the lowercase host (without port) of a URL, or "".
func HostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func canonicalQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.HasPrefix(strings.ToLower(k), "utm_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := append([]string(nil), values[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}
