package domain

import "time"

// Document is a stored item in an owner's corpus.
// Canonical URL is unique per owner.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// OwnerID is the owning user.
	OwnerID string

	// SourceID links to the provenance Source (native or virtual).
	SourceID string

	// URL is the location as first seen.
	URL string

	// CanonicalURL is the per-owner dedup key.
	CanonicalURL string

	// Title is the human-readable title.
	Title string

	// Description is a short summary or snippet.
	Description string

	// Content is the full text (markdown for enriched items).
	Content string

	// Author is the byline when known.
	Author string

	// ImageURL is the lead image when known.
	ImageURL string

	// PublishedAt is the publication time when known.
	PublishedAt *time.Time

	// QualityScore is the computed content quality in [0, 1].
	QualityScore float64

	// Metadata contains arbitrary key-value pairs (provider, engine, raw score).
	Metadata map[string]any

	// CreatedAt is when the document was stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk represents a searchable unit within a document.
// Documents are split into chunks for granular search results.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// OwnerID scopes the chunk to its owner's corpus.
	OwnerID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation for semantic search.
	Embedding []float32
}

// FetchedPage is the raw response of a page fetch.
type FetchedPage struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after redirects.
	FinalURL string

	// StatusCode is the HTTP status.
	StatusCode int

	// ContentType is the response media type.
	ContentType string

	// Body is the response body decoded to UTF-8.
	Body []byte

	// FetchedAt is when the response was received.
	FetchedAt time.Time
}

// ExtractedContent is the structured content pulled out of a page.
type ExtractedContent struct {
	Title        string
	Description  string
	Content      string
	Author       string
	ImageURL     string
	CanonicalURL string
	PublishedAt  *time.Time
}
