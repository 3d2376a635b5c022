package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

func testDoc(id, owner, url string) domain.Document {
	return domain.Document{ID: id, OwnerID: owner, SourceID: "src-1", URL: url, CanonicalURL: url, Title: "Doc " + id}
}

func TestDocumentStore_BulkInsert_SkipsExisting(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	inserted, err := store.BulkInsert(ctx, []domain.Document{testDoc("d1", "o1", "https://a/")})
	require.NoError(t, err)
	require.Len(t, inserted, 1)

	inserted, err = store.BulkInsert(ctx, []domain.Document{
		testDoc("d2", "o1", "https://a/"),
		testDoc("d3", "o1", "https://b/"),
		testDoc("d4", "o2", "https://a/"),
	})
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Equal(t, "d3", inserted[0].ID)
	assert.Equal(t, "d4", inserted[1].ID)
	assert.Equal(t, 3, store.Count())
}

func TestDocumentStore_FindByURL(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	_, err := store.BulkInsert(ctx, []domain.Document{testDoc("d1", "o1", "https://a/")})
	require.NoError(t, err)

	doc, err := store.FindByURL(ctx, "o1", "https://a/")
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)

	_, err = store.FindByURL(ctx, "o2", "https://a/")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ExistingURLs(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	_, err := store.BulkInsert(ctx, []domain.Document{testDoc("d1", "o1", "https://a/")})
	require.NoError(t, err)

	existing, err := store.ExistingURLs(ctx, "o1", []string{"https://a/", "https://b/"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://a/": true}, existing)
}

func TestDocumentStore_BulkInsert_ConcurrentSameURL(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inserted, err := store.BulkInsert(ctx, []domain.Document{testDoc(string(rune('a'+i)), "o1", "https://same/")})
			assert.NoError(t, err)
			mu.Lock()
			total += len(inserted)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, total)
	assert.Equal(t, 1, store.Count())
}

func TestDocumentStore_Chunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Content: "one"},
		{ID: "c2", DocumentID: "d1", Content: "two", Position: 1},
	}))

	chunk, err := store.GetChunk(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "two", chunk.Content)

	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListDocuments(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	_, err := store.BulkInsert(ctx, []domain.Document{
		testDoc("d1", "o1", "https://a/"),
		testDoc("d2", "o1", "https://b/"),
		testDoc("d3", "o2", "https://c/"),
	})
	require.NoError(t, err)

	docs, err := store.ListDocuments(ctx, "o1", "src-1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
