package services

import (
	"sort"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// DefaultRRFK is the reciprocal rank fusion damping constant.
const DefaultRRFK = 60

// RankFusion merges origin-specific ranked lists with reciprocal rank fusion.
// Only rank positions are used; raw scores are never compared across lists.
type RankFusion struct {
	k int
}

// NewRankFusion creates a fusion engine. k <= 0 selects DefaultRRFK.
func NewRankFusion(k int) *RankFusion {
	if k <= 0 {
		k = DefaultRRFK
	}
	return &RankFusion{k: k}
}

// K returns the damping constant in use.
func (f *RankFusion) K() int {
	return f.k
}

// fusionEntry accumulates one canonical URL across lists.
type fusionEntry struct {
	hit       domain.FusedHit
	bestRank  int
	seq       int
	hasFields bool
}

// Fuse combines lists into one ordering. Each hit contributes 1/(k+rank)
// where rank is its 1-based position in its own list; hits sharing a
// canonical URL sum their contributions. Order is descending score, then
// internal before external, then the earliest rank seen, then first
// appearance. limit <= 0 returns everything.
func (f *RankFusion) Fuse(limit int, lists ...[]domain.SearchHit) []domain.FusedHit {
	entries := make(map[string]*fusionEntry)
	order := make([]*fusionEntry, 0)

	for _, list := range lists {
		seenInList := make(map[string]bool, len(list))
		for i := range list {
			hit := list[i]
			key := domain.CanonicalKey(hit.URL)
			if key == "" || seenInList[key] {
				continue
			}
			seenInList[key] = true

			rank := hit.Rank
			if rank <= 0 {
				rank = i + 1
			}
			contribution := 1.0 / float64(f.k+rank)

			e, ok := entries[key]
			if !ok {
				e = &fusionEntry{
					hit: domain.FusedHit{
						SearchHit:    hit,
						CanonicalURL: key,
					},
					bestRank: rank,
					seq:      len(order),
				}
				entries[key] = e
				order = append(order, e)
			} else {
				mergeHit(&e.hit.SearchHit, hit)
				if rank < e.bestRank {
					e.bestRank = rank
				}
			}

			e.hit.Score += contribution
			if !e.hit.HasOrigin(hit.Origin) {
				e.hit.Origins = append(e.hit.Origins, hit.Origin)
			}
		}
	}

	for _, e := range order {
		sortOrigins(e.hit.Origins)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.hit.Score != b.hit.Score {
			return a.hit.Score > b.hit.Score
		}
		ai, bi := a.hit.HasOrigin(domain.OriginInternal), b.hit.HasOrigin(domain.OriginInternal)
		if ai != bi {
			return ai
		}
		if a.bestRank != b.bestRank {
			return a.bestRank < b.bestRank
		}
		return a.seq < b.seq
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	fused := make([]domain.FusedHit, len(order))
	for i, e := range order {
		fused[i] = e.hit
	}
	return fused
}

// mergeHit fills gaps in base from another hit for the same URL.
// Internal hits win as the base so provenance fields are kept.
func mergeHit(base *domain.SearchHit, other domain.SearchHit) {
	if base.Origin != domain.OriginInternal && other.Origin == domain.OriginInternal {
		snippet := base.Snippet
		*base = other
		if base.Snippet == "" {
			base.Snippet = snippet
		}
		return
	}
	if base.Title == "" {
		base.Title = other.Title
	}
	if base.Snippet == "" {
		base.Snippet = other.Snippet
	}
	if base.ProviderName == "" {
		base.ProviderName = other.ProviderName
	}
	if base.PublishedAt == nil {
		base.PublishedAt = other.PublishedAt
	}
}

func sortOrigins(origins []domain.Origin) {
	sort.SliceStable(origins, func(i, j int) bool {
		return origins[i] == domain.OriginInternal && origins[j] != domain.OriginInternal
	})
}
