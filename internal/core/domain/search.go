package domain

import "time"

// Origin identifies which side of a query produced a hit.
type Origin string

// Available origins.
const (
	// OriginInternal marks hits from the owner's own indexed corpus.
	OriginInternal Origin = "internal"

	// OriginExternal marks hits returned by an external search provider.
	OriginExternal Origin = "external"
)

// IsValid returns true if the origin is recognised.
func (o Origin) IsValid() bool {
	return o == OriginInternal || o == OriginExternal
}

// String returns the string representation.
func (o Origin) String() string {
	return string(o)
}

// SearchHit is one entry of an origin-specific ranked list.
type SearchHit struct {
	// Title is the human-readable title.
	Title string

	// URL is the hit location as reported by its origin.
	URL string

	// Snippet is a short plain-text excerpt.
	Snippet string

	// Content is the full text when the origin returned it (some providers do).
	Content string

	// Origin tells whether the hit came from the corpus or a provider.
	Origin Origin

	// ProviderName is the external provider that produced the hit.
	// Empty for internal hits.
	ProviderName string

	// Engine is the upstream engine behind a meta-search provider, if known.
	Engine string

	// Rank is the 1-based position within its own list.
	Rank int

	// RawScore is the origin's native relevance score.
	// It is opaque and never compared across origins.
	RawScore float64

	// SourceID is the provenance source. Set only for internal hits.
	SourceID string

	// DocumentID is the stored item ID. Set only for internal hits.
	DocumentID string

	// SourceName is a display name for the hit's source (site or feed).
	SourceName string

	// PublishedAt is the publication time when known.
	PublishedAt *time.Time

	// FetchedAt is when the hit was obtained.
	FetchedAt time.Time
}

// FusedHit is a hit after rank fusion across lists.
type FusedHit struct {
	SearchHit

	// CanonicalURL is the identity used to merge hits across lists.
	CanonicalURL string

	// Score is the accumulated reciprocal rank fusion score.
	Score float64

	// Origins lists every origin that contributed, internal first.
	Origins []Origin
}

// HasOrigin reports whether the given origin contributed to the hit.
func (h *FusedHit) HasOrigin(o Origin) bool {
	for _, existing := range h.Origins {
		if existing == o {
			return true
		}
	}
	return false
}

// SearchRequest is the input of a combined internal + external query.
type SearchRequest struct {
	// OwnerID scopes the internal corpus and any created session.
	OwnerID string

	// Query is the user's search text.
	Query string

	// IncludeExternal enables the external provider branch.
	IncludeExternal bool

	// PersistMode optionally queues ingestion of all external hits.
	PersistMode PersistMode

	// PersistExternal promotes PersistModeNone to PersistModeSnippetOnly.
	PersistExternal bool

	// Provider is "auto" or a provider name to pin.
	Provider string

	// MaxExternalResults bounds the provider request (0 = configured default).
	MaxExternalResults int

	// Limit bounds the fused output (0 = configured default).
	Limit int

	// TimeRange filters external results (day, week, month, year).
	TimeRange string

	// Language filters external results.
	Language string

	// Engines restricts meta-search providers to specific engines.
	Engines []string
}

// SearchResponse is the unified result of a query.
type SearchResponse struct {
	// Query echoes the request query.
	Query string

	// Summary is an optional synthesis of the top hits.
	Summary string

	// Results is the fused ranking.
	Results []FusedHit

	// InternalCount is the size of the internal list before fusion.
	InternalCount int

	// ExternalCount is the size of the external list before fusion.
	ExternalCount int

	// SessionID references the stored session, empty when no external hits.
	SessionID string

	// ProviderUsed is the provider that served the external list.
	ProviderUsed string

	// FallbackUsed is true when the first-choice provider was skipped or
	// the external branch failed and the call degraded.
	FallbackUsed bool

	// IngestJobID is set when PersistMode queued an ingestion job.
	IngestJobID string
}

// ExternalQuery is the provider-agnostic request sent to a search provider.
type ExternalQuery struct {
	// Query is the search text.
	Query string

	// MaxResults bounds the number of hits.
	MaxResults int

	// TimeRange filters by recency (day, week, month, year).
	TimeRange string

	// Language filters by result language.
	Language string

	// SafeSearch level (0 off, 1 moderate, 2 strict).
	SafeSearch int

	// Engines restricts meta-search engines.
	Engines []string
}

// ExternalSearchResult is the outcome of provider-routed external search.
type ExternalSearchResult struct {
	// ProviderRequested is the caller's preference ("auto" or a name).
	ProviderRequested string

	// ProviderUsed is the provider whose hits were returned.
	ProviderUsed string

	// FallbackUsed is true when the first candidate was skipped.
	FallbackUsed bool

	// Hits are the normalised, ranked external hits.
	Hits []SearchHit

	// Attempts records every provider tried, in order.
	Attempts []ProviderAttempt
}

// ProviderAttempt records one provider call made while routing.
type ProviderAttempt struct {
	// Provider is the provider name.
	Provider string

	// Latency is the call duration.
	Latency time.Duration

	// Results is the number of hits returned.
	Results int

	// Err is the failure message, empty on success.
	Err string
}
