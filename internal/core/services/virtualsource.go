package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-discover/internal/logger"
)

// IngestReport is the outcome of admitting a batch into a virtual source.
type IngestReport struct {
	// Stored are the documents actually inserted.
	Stored []domain.Document

	// Duplicates are canonical URLs skipped because the owner already has them
	// (or an earlier item in the same batch did).
	Duplicates []string

	// Invalid are items whose URL could not be canonicalised.
	Invalid []domain.ItemFailure
}

// VirtualSourceRegistry gives externally discovered items a per-owner,
// per-provider provenance source and admits them into the corpus.
type VirtualSourceRegistry struct {
	sources  driven.SourceStore
	docs     driven.DocumentStore
	index    driven.SearchEngine
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService
	chunker  driven.Chunker

	// ids caches owner+provider -> source ID. Correctness never depends on it.
	ids sync.Map
	now func() time.Time
}

// NewVirtualSourceRegistry creates a registry. index and chunker may be nil,
// in which case stored items are not made searchable.
func NewVirtualSourceRegistry(
	sources driven.SourceStore,
	docs driven.DocumentStore,
	index driven.SearchEngine,
	chunker driven.Chunker,
) *VirtualSourceRegistry {
	return &VirtualSourceRegistry{
		sources: sources,
		docs:    docs,
		index:   index,
		chunker: chunker,
		now:     time.Now,
	}
}

// SetVectorIndexing enables embedding of stored chunks. Both must be non-nil.
func (r *VirtualSourceRegistry) SetVectorIndexing(vectors driven.VectorIndex, embedder driven.EmbeddingService) {
	r.vectors = vectors
	r.embedder = embedder
}

func cacheKey(ownerID, provider string) string {
	return ownerID + "\x00" + provider
}

// Resolve returns the owner's virtual source for provider, creating it on
// first use. Concurrent callers across processes converge on one record
// through the store's idempotent find-or-create.
func (r *VirtualSourceRegistry) Resolve(ctx context.Context, ownerID, provider string) (*domain.Source, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if ownerID == "" || provider == "" {
		return nil, fmt.Errorf("%w: owner and provider are required", domain.ErrInvalidInput)
	}

	key := cacheKey(ownerID, provider)
	if id, ok := r.ids.Load(key); ok {
		src, err := r.sources.Get(ctx, id.(string))
		if err == nil && src.OwnerID == ownerID && src.IsVirtual() && src.ProviderName == provider {
			return src, nil
		}
		r.ids.Delete(key)
	}

	now := r.now()
	candidate := domain.NewVirtualSource(ownerID, provider)
	candidate.ID = uuid.NewString()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	src, err := r.sources.FindOrCreateVirtual(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("resolve virtual source %s: %w", provider, err)
	}

	r.ids.Store(key, src.ID)
	logger.Debug("Resolved virtual source %s for %s/%s", src.ID, ownerID, provider)
	return src, nil
}

// Ingest canonicalises item URLs, drops items the owner already stores,
// bulk-stores the rest under src and submits them to the search index.
// Indexing is best-effort: a stored item stays stored if indexing fails.
func (r *VirtualSourceRegistry) Ingest(ctx context.Context, src *domain.Source, items []domain.Document) (*IngestReport, error) {
	if src == nil || !src.IsVirtual() {
		return nil, fmt.Errorf("%w: ingest requires a virtual source", domain.ErrInvalidInput)
	}

	report := &IngestReport{}
	now := r.now()

	candidates := make([]domain.Document, 0, len(items))
	keys := make([]string, 0, len(items))
	inBatch := make(map[string]bool, len(items))

	for i := range items {
		doc := items[i]
		canonical, err := domain.CanonicalURL(doc.URL)
		if err != nil {
			report.Invalid = append(report.Invalid, domain.ItemFailure{
				URL:    doc.URL,
				Reason: domain.FailureReasonInvalidURL,
				Detail: err.Error(),
			})
			continue
		}
		if inBatch[canonical] {
			report.Duplicates = append(report.Duplicates, canonical)
			continue
		}
		inBatch[canonical] = true

		doc.ID = uuid.NewString()
		doc.OwnerID = src.OwnerID
		doc.SourceID = src.ID
		doc.CanonicalURL = canonical
		doc.CreatedAt = now
		doc.UpdatedAt = now
		candidates = append(candidates, doc)
		keys = append(keys, canonical)
	}

	if len(candidates) == 0 {
		return report, nil
	}

	existing, err := r.docs.ExistingURLs(ctx, src.OwnerID, keys)
	if err != nil {
		return nil, fmt.Errorf("check existing urls: %w", err)
	}

	survivors := candidates[:0]
	for i := range candidates {
		if existing[candidates[i].CanonicalURL] {
			report.Duplicates = append(report.Duplicates, candidates[i].CanonicalURL)
			continue
		}
		survivors = append(survivors, candidates[i])
	}
	if len(survivors) == 0 {
		return report, nil
	}

	inserted, err := r.docs.BulkInsert(ctx, survivors)
	if err != nil {
		return nil, fmt.Errorf("bulk insert: %w", err)
	}

	// Rows lost to a concurrent insert of the same URL are duplicates.
	insertedURLs := make(map[string]bool, len(inserted))
	for i := range inserted {
		insertedURLs[inserted[i].CanonicalURL] = true
	}
	for i := range survivors {
		if !insertedURLs[survivors[i].CanonicalURL] {
			report.Duplicates = append(report.Duplicates, survivors[i].CanonicalURL)
		}
	}
	report.Stored = inserted

	if len(inserted) > 0 {
		if err := r.sources.AddItemCount(ctx, src.ID, len(inserted)); err != nil {
			logger.L().Warn("update virtual source item count failed",
				zap.String("source_id", src.ID), zap.Error(err))
		}
		r.indexDocuments(ctx, inserted)
	}

	return report, nil
}

// indexDocuments chunks, indexes and optionally embeds stored documents.
func (r *VirtualSourceRegistry) indexDocuments(ctx context.Context, docs []domain.Document) {
	if r.chunker == nil || r.index == nil {
		return
	}

	for i := range docs {
		if err := r.indexDocument(ctx, &docs[i]); err != nil {
			logger.L().Warn("index stored item failed",
				zap.String("document_id", docs[i].ID),
				zap.String("url", docs[i].URL),
				zap.Error(err))
		}
	}
}

func (r *VirtualSourceRegistry) indexDocument(ctx context.Context, doc *domain.Document) error {
	chunks, err := r.chunker.Chunk(ctx, doc)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	if err := r.docs.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	var errs []error
	for i := range chunks {
		if err := r.index.Index(ctx, chunks[i]); err != nil {
			errs = append(errs, fmt.Errorf("index chunk %s: %w", chunks[i].ID, err))
		}
	}

	if r.vectors != nil && r.embedder != nil {
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Content
		}
		embeddings, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			errs = append(errs, fmt.Errorf("embed chunks: %w", err))
		} else {
			for i := range chunks {
				if i >= len(embeddings) {
					break
				}
				if err := r.vectors.Add(ctx, chunks[i].ID, embeddings[i]); err != nil {
					errs = append(errs, fmt.Errorf("add vector %s: %w", chunks[i].ID, err))
				}
			}
		}
	}

	return errors.Join(errs...)
}
