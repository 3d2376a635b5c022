package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockSearchEngine implements driven.SearchEngine for testing.
type mockSearchEngine struct {
	mu        sync.Mutex
	hits      []driven.SearchHit
	searchErr error
	lastQuery string
}

func (m *mockSearchEngine) Index(_ context.Context, _ domain.Chunk) error {
	return nil
}

func (m *mockSearchEngine) Delete(_ context.Context, _ string) error {
	return nil
}

func (m *mockSearchEngine) Search(_ context.Context, _, query string, limit int) ([]driven.SearchHit, error) {
	m.mu.Lock()
	m.lastQuery = query
	m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:limit], nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
}

func (m *mockVectorIndex) Add(_ context.Context, _ string, _ []float32) error {
	return nil
}

func (m *mockVectorIndex) Delete(_ context.Context, _ string) error {
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ string, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return len(m.embedding) }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu         sync.Mutex
	result     string
	err        error
	lastPrompt string
	calls      int
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.result, nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

// --- Test helpers ---

func setupTestDocStore(t *testing.T) *memory.DocumentStore {
	t.Helper()
	store := memory.NewDocumentStore()
	ctx := context.Background()
	now := time.Now()

	docs := []struct {
		id       string
		owner    string
		sourceID string
		title    string
		content  string
	}{
		{"doc-1", "u1", "src-1", "Getting Started with Go", "Go is a small language. It compiles fast."},
		{"doc-2", "u1", "src-1", "Configuration Guide", "Configure providers using the settings command."},
		{"doc-3", "u1", "src-2", "API Reference", "The API provides search endpoints and ingestion."},
		{"doc-4", "u2", "src-9", "Private Notes", "Someone else's search notes."},
	}

	for _, d := range docs {
		doc := domain.Document{
			ID:           d.id,
			OwnerID:      d.owner,
			SourceID:     d.sourceID,
			URL:          "https://example.com/" + d.id,
			CanonicalURL: "https://example.com/" + d.id,
			Title:        d.title,
			Description:  "About " + d.title,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, err := store.BulkInsert(ctx, []domain.Document{doc})
		require.NoError(t, err)

		chunk := domain.Chunk{
			ID:         "chunk-" + d.id,
			DocumentID: d.id,
			OwnerID:    d.owner,
			Content:    d.content,
		}
		require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{chunk}))
	}

	return store
}

func createTestHits() []driven.SearchHit {
	return []driven.SearchHit{
		{ChunkID: "chunk-doc-1", Score: 0.9},
		{ChunkID: "chunk-doc-2", Score: 0.8},
		{ChunkID: "chunk-doc-3", Score: 0.7},
	}
}

func hitDocIDs(hits []domain.SearchHit) []string {
	ids := make([]string, len(hits))
	for i := range hits {
		ids[i] = hits[i].DocumentID
	}
	return ids
}

// --- Tests ---

func TestHybridSearcher_EmptyQuery(t *testing.T) {
	searcher := NewHybridSearcher(setupTestDocStore(t), &mockSearchEngine{hits: createTestHits()}, nil, nil, nil)

	for _, q := range []string{"", "   \t\n  "} {
		results, err := searcher.Search(context.Background(), "u1", q, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestHybridSearcher_KeywordOnly(t *testing.T) {
	searcher := NewHybridSearcher(setupTestDocStore(t), &mockSearchEngine{hits: createTestHits()}, nil, nil, nil)

	results, err := searcher.Search(context.Background(), "u1", "compiles", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []string{"doc-1", "doc-2", "doc-3"}, hitDocIDs(results))
	for i, hit := range results {
		assert.Equal(t, i+1, hit.Rank)
		assert.Equal(t, domain.OriginInternal, hit.Origin)
		assert.Empty(t, hit.ProviderName)
	}
	assert.Equal(t, "https://example.com/doc-1", results[0].URL)
	assert.Equal(t, "It compiles fast.", results[0].Snippet)
	assert.Equal(t, "src-1", results[0].SourceID)
	assert.InDelta(t, 0.9, results[0].RawScore, 1e-9)
}

func TestHybridSearcher_RespectsLimit(t *testing.T) {
	searcher := NewHybridSearcher(setupTestDocStore(t), &mockSearchEngine{hits: createTestHits()}, nil, nil, nil)

	results, err := searcher.Search(context.Background(), "u1", "go", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestHybridSearcher_SkipsOtherOwnersAndMissingChunks(t *testing.T) {
	engine := &mockSearchEngine{hits: []driven.SearchHit{
		{ChunkID: "chunk-doc-4", Score: 1},
		{ChunkID: "chunk-missing", Score: 0.95},
		{ChunkID: "chunk-doc-2", Score: 0.9},
	}}
	searcher := NewHybridSearcher(setupTestDocStore(t), engine, nil, nil, nil)

	results, err := searcher.Search(context.Background(), "u1", "search", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-2", results[0].DocumentID)
	assert.Equal(t, 1, results[0].Rank)
}

func TestHybridSearcher_OneHitPerDocument(t *testing.T) {
	store := setupTestDocStore(t)
	require.NoError(t, store.SaveChunks(context.Background(), []domain.Chunk{
		{ID: "chunk-doc-1b", DocumentID: "doc-1", OwnerID: "u1", Content: "More about Go.", Position: 1},
	}))
	engine := &mockSearchEngine{hits: []driven.SearchHit{
		{ChunkID: "chunk-doc-1", Score: 1},
		{ChunkID: "chunk-doc-1b", Score: 0.9},
		{ChunkID: "chunk-doc-3", Score: 0.8},
	}}
	searcher := NewHybridSearcher(store, engine, nil, nil, nil)

	results, err := searcher.Search(context.Background(), "u1", "go", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-3"}, hitDocIDs(results))
}

func TestHybridSearcher_Errors(t *testing.T) {
	store := setupTestDocStore(t)

	searcher := NewHybridSearcher(store, nil, nil, nil, nil)
	_, err := searcher.Search(context.Background(), "u1", "go", 10)
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)

	failing := NewHybridSearcher(store, &mockSearchEngine{searchErr: errors.New("index corrupt")}, nil, nil, nil)
	_, err = failing.Search(context.Background(), "u1", "go", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index corrupt")
}

func TestHybridSearcher_HybridFusesKeywordAndVector(t *testing.T) {
	engine := &mockSearchEngine{hits: createTestHits()}
	vectors := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "chunk-doc-2", Similarity: 0.95},
		{ChunkID: "chunk-doc-3", Similarity: 0.85},
	}}
	searcher := NewHybridSearcher(setupTestDocStore(t), engine, vectors, &mockEmbeddingService{embedding: []float32{1, 0}}, nil)
	searcher.SetMode(domain.SearchModeHybrid)

	results, err := searcher.Search(context.Background(), "u1", "search", 10)
	require.NoError(t, err)
	// doc-2: 1/62 + 1/61, doc-3: 1/63 + 1/62, doc-1: 1/61.
	assert.Equal(t, []string{"doc-2", "doc-3", "doc-1"}, hitDocIDs(results))
}

func TestHybridSearcher_HybridDegradesWhenVectorFails(t *testing.T) {
	engine := &mockSearchEngine{hits: createTestHits()}
	vectors := &mockVectorIndex{searchErr: errors.New("vector store offline")}
	searcher := NewHybridSearcher(setupTestDocStore(t), engine, vectors, &mockEmbeddingService{embedding: []float32{1}}, nil)
	searcher.SetMode(domain.SearchModeHybrid)

	results, err := searcher.Search(context.Background(), "u1", "search", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-2", "doc-3"}, hitDocIDs(results))
}

func TestHybridSearcher_EffectiveMode(t *testing.T) {
	vectors := &mockVectorIndex{}
	embedder := &mockEmbeddingService{embedding: []float32{1}}
	llm := &mockLLMService{}

	tests := []struct {
		name     string
		mode     domain.SearchMode
		vectors  driven.VectorIndex
		embedder driven.EmbeddingService
		llm      driven.LLMService
		want     domain.SearchMode
	}{
		{"full with everything", domain.SearchModeFull, vectors, embedder, llm, domain.SearchModeFull},
		{"full without llm", domain.SearchModeFull, vectors, embedder, nil, domain.SearchModeHybrid},
		{"full without vectors", domain.SearchModeFull, nil, nil, llm, domain.SearchModeLLMAssisted},
		{"full with nothing", domain.SearchModeFull, nil, nil, nil, domain.SearchModeTextOnly},
		{"hybrid without embedder", domain.SearchModeHybrid, vectors, nil, nil, domain.SearchModeTextOnly},
		{"llm assisted without llm", domain.SearchModeLLMAssisted, nil, nil, nil, domain.SearchModeTextOnly},
		{"text only", domain.SearchModeTextOnly, vectors, embedder, llm, domain.SearchModeTextOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := NewHybridSearcher(nil, nil, tt.vectors, tt.embedder, tt.llm)
			searcher.SetMode(tt.mode)
			assert.Equal(t, tt.want, searcher.effectiveMode())
		})
	}
}

func TestHybridSearcher_LLMRewrite(t *testing.T) {
	engine := &mockSearchEngine{hits: createTestHits()}
	llm := &mockLLMService{result: "  golang compiler speed  "}
	searcher := NewHybridSearcher(setupTestDocStore(t), engine, nil, nil, llm)
	searcher.SetMode(domain.SearchModeLLMAssisted)

	_, err := searcher.Search(context.Background(), "u1", "go fast", 10)
	require.NoError(t, err)
	assert.Equal(t, "golang compiler speed", engine.lastQuery)
	assert.Contains(t, llm.lastPrompt, "go fast")
}

func TestHybridSearcher_LLMRewriteFailureKeepsQuery(t *testing.T) {
	engine := &mockSearchEngine{hits: createTestHits()}
	llm := &mockLLMService{err: errors.New("model unloaded")}
	searcher := NewHybridSearcher(setupTestDocStore(t), engine, nil, nil, llm)
	searcher.SetMode(domain.SearchModeLLMAssisted)

	results, err := searcher.Search(context.Background(), "u1", "go fast", 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, "go fast", engine.lastQuery)
}

func TestHybridSearcher_SourceNames(t *testing.T) {
	sources := memory.NewSourceStore()
	require.NoError(t, sources.Save(context.Background(), domain.Source{ID: "src-1", OwnerID: "u1", Name: "Go Docs"}))

	searcher := NewHybridSearcher(setupTestDocStore(t), &mockSearchEngine{hits: createTestHits()}, nil, nil, nil)
	searcher.SetSourceStore(sources)

	results, err := searcher.Search(context.Background(), "u1", "go", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Go Docs", results[0].SourceName)
	assert.Equal(t, "Go Docs", results[1].SourceName)
	assert.Empty(t, results[2].SourceName)
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, "It compiles fast.", highlight("Go is small. It compiles fast.", "COMPILES"))
	assert.Equal(t, "No match here.", highlight("No match here.", "zebra"))
	assert.Empty(t, highlight("", "go"))
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two! Three?\nFour")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, got)
}
