// Package webpage extracts readable content and metadata from HTML pages.
package webpage

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.ContentExtractor = (*Extractor)(nil)

// boilerplate is removed before the main content is converted.
const boilerplate = "script, style, noscript, iframe, svg, form, nav, header, footer, aside, " +
	"[role=navigation], [role=banner], [role=contentinfo], [aria-hidden=true]"

var multiNewlines = regexp.MustCompile(`\n{3,}`)

// Extractor converts HTML pages into markdown content plus metadata.
type Extractor struct {
	conv *converter.Converter
}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Extract parses page. Plain-text pages are returned as their own content.
func (e *Extractor) Extract(_ context.Context, page *domain.FetchedPage) (*domain.ExtractedContent, error) {
	if page == nil || len(bytes.TrimSpace(page.Body)) == 0 {
		return nil, fmt.Errorf("%w: empty page", domain.ErrInvalidInput)
	}
	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = page.URL
	}

	if page.ContentType == "text/plain" {
		return &domain.ExtractedContent{Content: normalise(string(page.Body))}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	baseURL, _ := url.Parse(pageURL) //nolint:errcheck // nil base leaves links as found

	out := &domain.ExtractedContent{
		Title:        title(doc),
		Description:  firstMeta(doc, "og:description", "description", "twitter:description"),
		Author:       firstMeta(doc, "author", "article:author", "twitter:creator"),
		ImageURL:     resolve(baseURL, firstMeta(doc, "og:image", "twitter:image")),
		CanonicalURL: resolve(baseURL, attr(doc, `link[rel="canonical"]`, "href")),
		PublishedAt:  publishedAt(doc),
	}
	out.Content = e.content(doc, baseURL, pageURL)
	return out, nil
}

func (e *Extractor) content(doc *goquery.Document, baseURL *url.URL, pageURL string) string {
	doc.Find(boilerplate).Remove()
	absolutise(doc, baseURL, "a[href]", "href")
	absolutise(doc, baseURL, "img[src]", "src")

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main, [role=main]").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	fragment, err := goquery.OuterHtml(root)
	if err == nil && strings.TrimSpace(fragment) != "" {
		md, convErr := e.conv.ConvertString(fragment, converter.WithDomain(pageURL))
		if convErr == nil && strings.TrimSpace(md) != "" {
			return normalise(md)
		}
	}
	return normalise(root.Text())
}

func absolutise(doc *goquery.Document, baseURL *url.URL, selector, name string) {
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr(name)
		if abs := resolve(baseURL, strings.TrimSpace(v)); abs != "" {
			s.SetAttr(name, abs)
		}
	})
}

func title(doc *goquery.Document) string {
	if t := firstMeta(doc, "og:title", "twitter:title"); t != "" {
		return t
	}
	if t := clean(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return clean(doc.Find("h1").First().Text())
}

// firstMeta returns the first non-empty meta content among names,
// matching both name= and property= attributes.
func firstMeta(doc *goquery.Document, names ...string) string {
	for _, name := range names {
		for _, key := range []string{"property", "name", "itemprop"} {
			if v := attr(doc, fmt.Sprintf(`meta[%s=%q]`, key, name), "content"); v != "" {
				return v
			}
		}
	}
	return ""
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return clean(v)
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

func publishedAt(doc *goquery.Document) *time.Time {
	candidates := []string{
		firstMeta(doc, "article:published_time", "datePublished", "date", "dc.date", "pubdate"),
		attr(doc, "time[datetime]", "datetime"),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}

func clean(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// normalise strips trailing spaces and collapses runs of blank lines.
// Leading indentation is kept for code blocks and nested lists.
func normalise(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(multiNewlines.ReplaceAllString(s, "\n\n"))
}
