package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Path(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("search.mode", "hybrid"))
	require.NoError(t, store.Set("search.result_limit", 20))
	require.NoError(t, store.Set("ingest.min_quality", 0.15))
	require.NoError(t, store.Set("ingest.workers", int64(4)))
	require.NoError(t, store.Set("ingest.retry_backoff", 750*time.Millisecond))
	require.NoError(t, store.Set("session.timeout", "soon"))
	require.NoError(t, store.Set("providers.priority", []string{"searxng", "tavily"}))
	require.NoError(t, store.Set("mcp.enabled", true))

	assert.Equal(t, "hybrid", store.GetString("search.mode"))
	assert.Equal(t, 20, store.GetInt("search.result_limit"))
	assert.Equal(t, 4, store.GetInt("ingest.workers"))
	assert.InDelta(t, 0.15, store.GetFloat("ingest.min_quality"), 1e-9)
	assert.InDelta(t, 4.0, store.GetFloat("ingest.workers"), 1e-9)
	assert.Equal(t, 750*time.Millisecond, store.GetDuration("ingest.retry_backoff"))
	assert.Zero(t, store.GetDuration("session.timeout"))
	assert.Equal(t, []string{"searxng", "tavily"}, store.GetStringSlice("providers.priority"))
	assert.True(t, store.GetBool("mcp.enabled"))

	// Wrong types and missing keys return zero values.
	assert.Empty(t, store.GetString("search.result_limit"))
	assert.Zero(t, store.GetInt("search.mode"))
	assert.False(t, store.GetBool("search.mode"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.Nil(t, store.GetStringSlice("search.mode"))
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("providers.tavily.api_key", "tvly-secret"))
	require.NoError(t, store.Set("providers.default", "auto"))
	require.NoError(t, store.Set("ingest.retry_backoff", 750*time.Millisecond))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[providers.tavily]")
	assert.NotContains(t, string(raw), `"providers.default"`)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "tvly-secret", reopened.GetString("providers.tavily.api_key"))
	assert.Equal(t, "auto", reopened.GetString("providers.default"))
	assert.Equal(t, 750*time.Millisecond, reopened.GetDuration("ingest.retry_backoff"))
	assert.Equal(t, []string{"ingest.retry_backoff", "providers.default", "providers.tavily.api_key"}, reopened.Keys())
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[search]
mode = "text_only"
rrf_k = 60

[providers]
priority = ["searxng", "google"]

[providers.searxng]
base_url = "http://searx.local:8080"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "text_only", store.GetString("search.mode"))
	assert.Equal(t, 60, store.GetInt("search.rrf_k"))
	assert.Equal(t, []string{"searxng", "google"}, store.GetStringSlice("providers.priority"))
	assert.Equal(t, "http://searx.local:8080", store.GetString("providers.searxng.base_url"))
}

func TestConfigStore_ConflictingKeys(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("providers", "tavily"))
	assert.Error(t, store.Set("providers.default", "auto"))
}

func TestNestKeys(t *testing.T) {
	nested, err := nestKeys(map[string]any{
		"a.b.c": 1,
		"a.d":   "x",
		"e":     true,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 1},
			"d": "x",
		},
		"e": true,
	}, nested)

	assert.Equal(t, map[string]any{"a.b.c": 1, "a.d": "x", "e": true}, flattenMap(nested, ""))
}

func TestConfigStore_Watch(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("search.mode", "text_only"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	require.NoError(t, store.Watch(ctx, func() { changed <- struct{}{} }))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[search]\nmode = \"hybrid\"\n"), 0600))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
	assert.Equal(t, "hybrid", store.GetString("search.mode"))
}
