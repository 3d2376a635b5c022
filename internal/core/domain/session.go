package domain

import "time"

// SearchSession ties a query to its external hits long enough for a
// follow-up ingestion request. It is never durably persisted.
type SearchSession struct {
	// ID is the session identifier handed to the caller.
	ID string

	// OwnerID is the owner who ran the query.
	OwnerID string

	// Query is the original query text.
	Query string

	// ProviderUsed is the provider that served the external hits.
	ProviderUsed string

	// FallbackUsed mirrors the search response flag.
	FallbackUsed bool

	// Results is the fused ranking returned to the caller.
	Results []FusedHit

	// ExternalHits are the raw external hits selectable for ingestion.
	ExternalHits []SearchHit

	// IngestRefs counts ingestion requests made against this session.
	IngestRefs int

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// ExpiresAt is when the session stops being usable.
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *SearchSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SelectHits returns the external hits matching urls by canonical URL.
// An empty urls selects every external hit. Order follows the session.
func (s *SearchSession) SelectHits(urls []string) []SearchHit {
	if len(urls) == 0 {
		return append([]SearchHit(nil), s.ExternalHits...)
	}

	wanted := make(map[string]bool, len(urls))
	for _, u := range urls {
		if key := CanonicalKey(u); key != "" {
			wanted[key] = true
		}
	}

	selected := make([]SearchHit, 0, len(wanted))
	seen := make(map[string]bool, len(wanted))
	for i := range s.ExternalHits {
		key := CanonicalKey(s.ExternalHits[i].URL)
		if wanted[key] && !seen[key] {
			seen[key] = true
			selected = append(selected, s.ExternalHits[i])
		}
	}
	return selected
}
