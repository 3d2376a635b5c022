package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

func TestSourceStore_FindOrCreateVirtual_Idempotent(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	first := domain.NewVirtualSource("o1", "tavily")
	first.ID = "v1"
	got, err := store.FindOrCreateVirtual(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.ID)

	second := domain.NewVirtualSource("o1", "tavily")
	second.ID = "v2"
	got, err = store.FindOrCreateVirtual(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.ID)

	sources, err := store.ListByOwner(ctx, "o1")
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestSourceStore_FindOrCreateVirtual_Concurrent(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := domain.NewVirtualSource("o1", "tavily")
			src.ID = fmt.Sprintf("v%d", i)
			got, err := store.FindOrCreateVirtual(ctx, src)
			assert.NoError(t, err)
			ids[i] = got.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestSourceStore_ListCollectable_ExcludesVirtual(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "n1", OwnerID: "o1", Kind: domain.SourceKindNative, Name: "Feed", RefreshInterval: time.Hour}))
	require.NoError(t, store.Save(ctx, domain.Source{ID: "n2", OwnerID: "o1", Kind: domain.SourceKindNative, Name: "Manual"}))
	v := domain.NewVirtualSource("o1", "searxng")
	v.ID = "v1"
	v.RefreshInterval = time.Hour
	_, err := store.FindOrCreateVirtual(ctx, v)
	require.NoError(t, err)

	sources, err := store.ListCollectable(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "n1", sources[0].ID)
}

func TestSourceStore_AddItemCount(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.Source{ID: "s1", OwnerID: "o1"}))

	require.NoError(t, store.AddItemCount(ctx, "s1", 3))
	require.NoError(t, store.AddItemCount(ctx, "s1", 2))

	src, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, src.ItemCount)

	assert.ErrorIs(t, store.AddItemCount(ctx, "missing", 1), domain.ErrNotFound)
}
