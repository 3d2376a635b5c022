package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-discover/internal/logger"
)

// InternalSearcher returns one ranked list from the owner's own corpus.
type InternalSearcher interface {
	Search(ctx context.Context, ownerID, query string, limit int) ([]domain.SearchHit, error)
}

// Ensure HybridSearcher implements the interface.
var _ InternalSearcher = (*HybridSearcher)(nil)

// scoredChunk holds intermediate search results before hydration.
type scoredChunk struct {
	chunkID string
	score   float64
	source  string // "keyword", "vector", or "merged"
}

// HybridSearcher combines keyword and vector retrieval over stored chunks
// and returns one hit per document.
type HybridSearcher struct {
	docStore         driven.DocumentStore
	searchIndex      driven.SearchEngine
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
	sourceStore      driven.SourceStore
	promptStore      driven.PromptStore
	mode             domain.SearchMode
	rrfK             int
}

// NewHybridSearcher creates a new internal searcher.
// The vectorIndex, embeddingService and llmService parameters are optional (can be nil).
func NewHybridSearcher(
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	llmService driven.LLMService,
) *HybridSearcher {
	return &HybridSearcher{
		docStore:         docStore,
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		llmService:       llmService,
		mode:             domain.SearchModeFull,
		rrfK:             DefaultRRFK,
	}
}

// SetSourceStore sets the source store for SourceName enrichment.
func (s *HybridSearcher) SetSourceStore(store driven.SourceStore) {
	s.sourceStore = store
}

// SetPromptStore sets the prompt store used for query rewriting.
func (s *HybridSearcher) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// SetMode sets the configured search mode. The effective mode degrades
// when the services a mode needs are missing.
func (s *HybridSearcher) SetMode(mode domain.SearchMode) {
	if mode.IsValid() {
		s.mode = mode
	}
}

// Search runs the effective retrieval mode and returns document-level hits
// ranked from 1.
func (s *HybridSearcher) Search(ctx context.Context, ownerID, query string, limit int) ([]domain.SearchHit, error) {
	logger.Section("Internal Search")
	logger.Debug("Owner: %s, query: %q", ownerID, query)

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchHit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	// Several chunks may belong to one document.
	internalLimit := limit * 3

	mode := s.effectiveMode()
	logger.Info("Effective search mode: %s", mode.Description())

	var chunks []scoredChunk
	var err error

	switch mode {
	case domain.SearchModeHybrid:
		chunks, err = s.hybridSearch(ctx, ownerID, query, internalLimit)
	case domain.SearchModeLLMAssisted:
		chunks, err = s.keywordSearch(ctx, ownerID, s.rewriteQuery(ctx, query), internalLimit)
	case domain.SearchModeFull:
		chunks, err = s.hybridSearch(ctx, ownerID, s.rewriteQuery(ctx, query), internalLimit)
	default:
		chunks, err = s.keywordSearch(ctx, ownerID, query, internalLimit)
	}
	if err != nil {
		logger.Warn("Internal search failed: %v", err)
		return nil, fmt.Errorf("internal search: %w", err)
	}

	hits, err := s.hydrate(ctx, ownerID, chunks, query, limit)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	logger.Info("Internal results: %d", len(hits))
	return hits, nil
}

// effectiveMode degrades the configured mode to what the wired services allow.
func (s *HybridSearcher) effectiveMode() domain.SearchMode {
	canDoVector := s.vectorIndex != nil && s.embeddingService != nil
	canDoLLM := s.llmService != nil

	mode := s.mode
	if mode.RequiresEmbedding() && !canDoVector {
		if mode.RequiresLLM() && canDoLLM {
			return domain.SearchModeLLMAssisted
		}
		return domain.SearchModeTextOnly
	}
	if mode.RequiresLLM() && !canDoLLM {
		if mode.RequiresEmbedding() {
			return domain.SearchModeHybrid
		}
		return domain.SearchModeTextOnly
	}
	return mode
}

// keywordSearch performs owner-scoped full-text search.
func (s *HybridSearcher) keywordSearch(ctx context.Context, ownerID, query string, limit int) ([]scoredChunk, error) {
	if s.searchIndex == nil {
		return nil, domain.ErrSearchUnavailable
	}

	hits, err := s.searchIndex.Search(ctx, ownerID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	logger.Debug("Keyword search: %d hits", len(hits))

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = scoredChunk{chunkID: hit.ChunkID, score: hit.Score, source: "keyword"}
	}
	return results, nil
}

// vectorSearch performs owner-scoped semantic similarity search.
func (s *HybridSearcher) vectorSearch(ctx context.Context, ownerID, query string, limit int) ([]scoredChunk, error) {
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}

	hits, err := s.vectorIndex.Search(ctx, ownerID, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = scoredChunk{chunkID: hit.ChunkID, score: hit.Similarity, source: "vector"}
	}
	return results, nil
}

// hybridSearch runs keyword and vector search in parallel and merges them
// with reciprocal rank fusion. One failing side degrades to the other.
func (s *HybridSearcher) hybridSearch(ctx context.Context, ownerID, query string, limit int) ([]scoredChunk, error) {
	var keywordResults, vectorResults []scoredChunk
	var keywordErr, vectorErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		keywordResults, keywordErr = s.keywordSearch(ctx, ownerID, query, limit)
	}()
	go func() {
		defer wg.Done()
		vectorResults, vectorErr = s.vectorSearch(ctx, ownerID, query, limit)
	}()
	wg.Wait()

	switch {
	case keywordErr != nil && vectorErr != nil:
		return nil, fmt.Errorf("hybrid search: keyword=%w, vector=%w", keywordErr, vectorErr)
	case keywordErr != nil:
		logger.Warn("Hybrid search: keyword search failed, using vector results only")
		return vectorResults, nil
	case vectorErr != nil:
		logger.Warn("Hybrid search: vector search failed, using keyword results only")
		return keywordResults, nil
	}

	return fuseChunks(s.rrfK, keywordResults, vectorResults), nil
}

// fuseChunks merges chunk lists by reciprocal rank, keeping first-seen order on ties.
func fuseChunks(k int, lists ...[]scoredChunk) []scoredChunk {
	scores := make(map[string]float64)
	order := make([]string, 0)

	for _, list := range lists {
		for rank, chunk := range list {
			if _, ok := scores[chunk.chunkID]; !ok {
				order = append(order, chunk.chunkID)
			}
			scores[chunk.chunkID] += 1.0 / float64(k+rank+1)
		}
	}

	results := make([]scoredChunk, len(order))
	for i, id := range order {
		results[i] = scoredChunk{chunkID: id, score: scores[id], source: "merged"}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	return results
}

// rewriteQuery expands the query with the LLM, keeping the original on failure.
func (s *HybridSearcher) rewriteQuery(ctx context.Context, query string) string {
	if s.llmService == nil {
		return query
	}

	template := loadPrompt(s.promptStore, driven.PromptQueryRewrite, defaultQueryRewritePrompt)
	result, err := s.llmService.Generate(ctx, fmt.Sprintf(template, query), driven.GenerateOptions{
		MaxTokens:   100,
		Temperature: 0.3,
	})
	if err != nil {
		logger.Warn("LLM query rewrite failed: %v (using original query)", err)
		return query
	}

	expanded := strings.TrimSpace(result)
	if expanded == "" {
		return query
	}
	logger.Info("LLM query rewrite: expanded=%q", expanded)
	return expanded
}

// hydrate converts chunks into document-level hits, best chunk first.
func (s *HybridSearcher) hydrate(
	ctx context.Context, ownerID string, chunks []scoredChunk, query string, limit int,
) ([]domain.SearchHit, error) {
	if s.docStore == nil {
		return nil, errors.New("document store unavailable")
	}

	hits := make([]domain.SearchHit, 0, limit)
	seenDocs := make(map[string]bool)
	sourceNames := make(map[string]string)

	for _, sc := range chunks {
		if len(hits) >= limit {
			break
		}

		chunk, err := s.docStore.GetChunk(ctx, sc.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", sc.chunkID, err)
		}
		if seenDocs[chunk.DocumentID] {
			continue
		}

		doc, err := s.docStore.GetDocument(ctx, chunk.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
		}
		if doc.OwnerID != ownerID {
			continue
		}
		seenDocs[doc.ID] = true

		snippet := highlight(chunk.Content, query)
		if snippet == "" {
			snippet = doc.Description
		}

		hits = append(hits, domain.SearchHit{
			Title:       doc.Title,
			URL:         doc.URL,
			Snippet:     snippet,
			Origin:      domain.OriginInternal,
			Rank:        len(hits) + 1,
			RawScore:    sc.score,
			SourceID:    doc.SourceID,
			DocumentID:  doc.ID,
			SourceName:  s.sourceName(ctx, doc.SourceID, sourceNames),
			PublishedAt: doc.PublishedAt,
			FetchedAt:   doc.UpdatedAt,
		})
	}

	return hits, nil
}

// highlight returns the first sentence containing a query term, else a prefix.
func highlight(content, query string) string {
	terms := strings.Fields(strings.ToLower(query))
	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return truncateRunes(sentence, 200)
			}
		}
	}
	return truncateRunes(strings.TrimSpace(content), 200)
}

// splitSentences splits content into sentences.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// sourceName resolves a display name for a source, cached per call.
func (s *HybridSearcher) sourceName(ctx context.Context, sourceID string, cache map[string]string) string {
	if s.sourceStore == nil || sourceID == "" {
		return ""
	}
	if name, ok := cache[sourceID]; ok {
		return name
	}

	var name string
	if src, err := s.sourceStore.Get(ctx, sourceID); err == nil && src != nil {
		name = src.Name
	}
	cache[sourceID] = name
	return name
}
