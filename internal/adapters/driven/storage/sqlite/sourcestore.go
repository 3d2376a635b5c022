package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

const sourceColumns = `id, owner_id, kind, name, url, provider_name,
	refresh_interval_seconds, item_count, created_at, updated_at`

// FindOrCreateVirtual inserts src unless the (owner, provider) pair already
// has a virtual source, then returns the stored row. The partial unique
// index makes this safe across processes.
func (s *sourceStore) FindOrCreateVirtual(ctx context.Context, src domain.Source) (*domain.Source, error) {
	if src.OwnerID == "" || src.ProviderName == "" {
		return nil, domain.ErrInvalidInput
	}
	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if src.CreatedAt.IsZero() {
		src.CreatedAt = now
	}
	src.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sources (`+sourceColumns+`)
		VALUES (?, ?, 'virtual', ?, ?, ?, 0, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, src.ID, src.OwnerID, src.Name, src.URL, src.ProviderName, src.ItemCount,
		formatTime(src.CreatedAt), formatTime(src.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("inserting virtual source: %w", err)
	}

	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+sourceColumns+` FROM sources
		WHERE owner_id = ? AND provider_name = ? AND kind = 'virtual'
	`, src.OwnerID, src.ProviderName)
	return scanSource(row)
}

// Save stores or updates a source.
func (s *sourceStore) Save(ctx context.Context, source domain.Source) error {
	if source.ID == "" || !source.Kind.IsValid() {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sources (`+sourceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			kind = excluded.kind,
			name = excluded.name,
			url = excluded.url,
			provider_name = excluded.provider_name,
			refresh_interval_seconds = excluded.refresh_interval_seconds,
			item_count = excluded.item_count,
			updated_at = excluded.updated_at
	`, source.ID, source.OwnerID, string(source.Kind), source.Name, source.URL, source.ProviderName,
		int64(source.RefreshInterval.Seconds()), source.ItemCount,
		formatTime(source.CreatedAt), formatTime(source.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// Get retrieves a source by ID.
func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)
	return scanSource(row)
}

// ListByOwner returns all sources of an owner, by name.
func (s *sourceStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Source, error) {
	return s.list(ctx, `SELECT `+sourceColumns+` FROM sources WHERE owner_id = ? ORDER BY name, id`, ownerID)
}

// ListCollectable returns native sources with a refresh interval.
func (s *sourceStore) ListCollectable(ctx context.Context) ([]domain.Source, error) {
	return s.list(ctx, `
		SELECT `+sourceColumns+` FROM sources
		WHERE kind = 'native' AND refresh_interval_seconds > 0
		ORDER BY name, id
	`)
}

func (s *sourceStore) list(ctx context.Context, query string, args ...any) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

// AddItemCount adjusts a source's item count by delta.
func (s *sourceStore) AddItemCount(ctx context.Context, id string, delta int) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE sources SET item_count = item_count + ?, updated_at = ? WHERE id = ?
	`, delta, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating item count: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSource(row scanner) (*domain.Source, error) {
	var src domain.Source
	var kind, createdAt, updatedAt string
	var intervalSeconds int64
	if err := row.Scan(&src.ID, &src.OwnerID, &kind, &src.Name, &src.URL, &src.ProviderName,
		&intervalSeconds, &src.ItemCount, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err, "source")
	}
	src.Kind = domain.SourceKind(kind)
	src.RefreshInterval = time.Duration(intervalSeconds) * time.Second
	src.CreatedAt = parseTime(createdAt)
	src.UpdatedAt = parseTime(updatedAt)
	return &src, nil
}
