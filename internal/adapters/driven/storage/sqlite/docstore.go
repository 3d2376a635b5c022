package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// maxInArgs keeps IN lists well below SQLite's variable limit.
const maxInArgs = 500

const documentColumns = `id, owner_id, source_id, url, canonical_url, title, description, content,
	author, image_url, published_at, quality_score, metadata, created_at, updated_at`

// FindByURL returns the owner's document with the given canonical URL.
func (s *documentStore) FindByURL(ctx context.Context, ownerID, canonicalURL string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE owner_id = ? AND canonical_url = ?
	`, ownerID, canonicalURL)
	return scanDocument(row)
}

// ExistingURLs returns the subset of canonicalURLs the owner already stores.
func (s *documentStore) ExistingURLs(ctx context.Context, ownerID string, canonicalURLs []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	for start := 0; start < len(canonicalURLs); start += maxInArgs {
		end := min(start+maxInArgs, len(canonicalURLs))
		batch := canonicalURLs[start:end]

		args := make([]any, 0, len(batch)+1)
		args = append(args, ownerID)
		for _, u := range batch {
			args = append(args, u)
		}

		rows, err := s.store.db.QueryContext(ctx, `
			SELECT canonical_url FROM documents
			WHERE owner_id = ? AND canonical_url IN (`+placeholders(len(batch))+`)
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying existing urls: %w", err)
		}
		for rows.Next() {
			var u string
			if err := rows.Scan(&u); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning url: %w", err)
			}
			existing[u] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterating urls: %w", err)
		}
	}
	return existing, nil
}

// BulkInsert stores documents in one transaction, skipping any whose
// (owner, canonical URL) already exists. Returns the inserted documents.
func (s *documentStore) BulkInsert(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted := make([]domain.Document, 0, len(docs))
	for i := range docs {
		doc := docs[i]
		if doc.ID == "" || doc.OwnerID == "" || doc.CanonicalURL == "" {
			return nil, fmt.Errorf("%w: document requires id, owner and canonical url", domain.ErrInvalidInput)
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = doc.CreatedAt
		}

		metadataJSON, err := marshalJSON(doc.Metadata, "{}")
		if err != nil {
			return nil, fmt.Errorf("marshalling metadata: %w", err)
		}

		res, err := stmt.ExecContext(ctx, doc.ID, doc.OwnerID, doc.SourceID, doc.URL, doc.CanonicalURL,
			doc.Title, doc.Description, doc.Content, doc.Author, doc.ImageURL,
			formatTimePtr(doc.PublishedAt), doc.QualityScore, metadataJSON,
			formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
		if err != nil {
			return nil, fmt.Errorf("inserting document: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			inserted = append(inserted, doc)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// ListDocuments returns the owner's documents for a source, oldest first.
func (s *documentStore) ListDocuments(ctx context.Context, ownerID, sourceID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE owner_id = ? AND source_id = ?
		ORDER BY created_at, id
	`, ownerID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// SaveChunks replaces a document's chunks. Index entries of replaced
// chunks are dropped with them.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	docIDs := make(map[string]bool)
	for i := range chunks {
		docIDs[chunks[i].DocumentID] = true
	}
	for docID := range docIDs {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM chunks_fts WHERE chunk_id IN (SELECT id FROM chunks WHERE document_id = ?)
		`, docID); err != nil {
			return fmt.Errorf("clearing chunk index: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", docID); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, owner_id, content, position, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.OwnerID, c.Content,
			c.Position, float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, owner_id, content, position, embedding
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	var embedding []byte
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.OwnerID, &chunk.Content,
		&chunk.Position, &embedding); err != nil {
		return nil, notFound(err, "chunk")
	}
	chunk.Embedding = bytesToFloat32Slice(embedding)
	return &chunk, nil
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var publishedAt sql.NullString
	var metadataJSON, createdAt, updatedAt string

	if err := row.Scan(&doc.ID, &doc.OwnerID, &doc.SourceID, &doc.URL, &doc.CanonicalURL,
		&doc.Title, &doc.Description, &doc.Content, &doc.Author, &doc.ImageURL,
		&publishedAt, &doc.QualityScore, &metadataJSON, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err, "document")
	}

	doc.PublishedAt = parseTimePtr(publishedAt)
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	return &doc, nil
}
