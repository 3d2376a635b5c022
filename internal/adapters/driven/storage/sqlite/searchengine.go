package sqlite

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// searchEngine implements driven.SearchEngine over the chunks_fts table.
type searchEngine struct {
	store *Store
}

var _ driven.SearchEngine = (*searchEngine)(nil)

// Index adds or replaces a chunk in the full-text index.
func (s *searchEngine) Index(ctx context.Context, chunk domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks_fts WHERE chunk_id = ?", chunk.ID); err != nil {
		return fmt.Errorf("removing previous entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO chunks_fts (content, chunk_id, owner_id) VALUES (?, ?, ?)",
		chunk.Content, chunk.ID, chunk.OwnerID); err != nil {
		return fmt.Errorf("indexing chunk: %w", err)
	}
	return tx.Commit()
}

// Delete removes a chunk from the index.
func (s *searchEngine) Delete(ctx context.Context, chunkID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks_fts WHERE chunk_id = ?", chunkID); err != nil {
		return fmt.Errorf("deleting chunk from index: %w", err)
	}
	return nil
}

// Search ranks the owner's chunks by BM25. Any query term may match.
func (s *searchEngine) Search(ctx context.Context, ownerID, query string, limit int) ([]driven.SearchHit, error) {
	match := matchExpression(query)
	if match == "" {
		return []driven.SearchHit{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, bm25(chunks_fts) AS score
		FROM chunks_fts
		WHERE chunks_fts MATCH ? AND owner_id = ?
		ORDER BY score, chunk_id
		LIMIT ?
	`, match, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.SearchHit, 0)
	for rows.Next() {
		var hit driven.SearchHit
		var rank float64
		if err := rows.Scan(&hit.ChunkID, &rank); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		// bm25() is lower-is-better and negative.
		hit.Score = -rank
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

// matchExpression turns free text into an FTS5 OR query of quoted terms,
// so operators and punctuation in user input are never interpreted.
func matchExpression(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ToLower(t) + `"`
	}
	return strings.Join(quoted, " OR ")
}
