package sqlite

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex with an exact scan over the
// owner's chunk embeddings.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add stores the embedding of an already saved chunk.
func (v *vectorIndex) Add(ctx context.Context, chunkID string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty embedding", domain.ErrInvalidInput)
	}
	res, err := v.store.db.ExecContext(ctx,
		"UPDATE chunks SET embedding = ? WHERE id = ?", float32SliceToBytes(embedding), chunkID)
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete clears a chunk's embedding.
func (v *vectorIndex) Delete(ctx context.Context, chunkID string) error {
	if _, err := v.store.db.ExecContext(ctx, "UPDATE chunks SET embedding = NULL WHERE id = ?", chunkID); err != nil {
		return fmt.Errorf("clearing embedding: %w", err)
	}
	return nil
}

// Search returns the k chunks most similar to query. Embeddings of a
// different dimension are skipped; negative similarities are dropped.
func (v *vectorIndex) Search(ctx context.Context, ownerID string, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) == 0 || k <= 0 {
		return []driven.VectorHit{}, nil
	}
	queryNorm := norm(query)
	if queryNorm == 0 {
		return []driven.VectorHit{}, nil
	}

	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id, embedding FROM chunks WHERE owner_id = ? AND embedding IS NOT NULL", ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.VectorHit, 0)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		vec := bytesToFloat32Slice(blob)
		if len(vec) != len(query) {
			continue
		}
		sim := cosine(query, vec, queryNorm)
		if sim <= 0 {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: id, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity == hits[j].Similarity {
			return hits[i].ChunkID < hits[j].ChunkID
		}
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, aNorm float64) float64 {
	bNorm := norm(b)
	if bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return math.Min(1, dot/(aNorm*bNorm))
}
