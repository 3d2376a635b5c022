package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure SearchIndex implements the interface.
var _ driven.SearchEngine = (*SearchIndex)(nil)

// SearchIndex is an in-memory term-frequency search index.
type SearchIndex struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
}

// NewSearchIndex creates a new in-memory search index.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{chunks: make(map[string]domain.Chunk)}
}

// Index adds or updates a chunk.
func (s *SearchIndex) Index(_ context.Context, chunk domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[chunk.ID] = chunk
	return nil
}

// Delete removes a chunk.
func (s *SearchIndex) Delete(_ context.Context, chunkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, chunkID)
	return nil
}

// Search scores the owner's chunks by query term occurrences.
func (s *SearchIndex) Search(_ context.Context, ownerID, query string, limit int) ([]driven.SearchHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []driven.SearchHit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]driven.SearchHit, 0)
	for id, chunk := range s.chunks {
		if chunk.OwnerID != ownerID {
			continue
		}
		content := strings.ToLower(chunk.Content)
		score := 0
		for _, term := range terms {
			score += strings.Count(content, term)
		}
		if score > 0 {
			hits = append(hits, driven.SearchHit{ChunkID: id, Score: float64(score)})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ChunkID < hits[j].ChunkID
		}
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
