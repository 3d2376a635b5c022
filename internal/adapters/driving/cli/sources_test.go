package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

func testSources() []domain.Source {
	return []domain.Source{
		{ID: "src-1", OwnerID: "alice", Kind: domain.SourceKindNative, Name: "Go blog", URL: "https://go.dev/blog/feed.atom", RefreshInterval: time.Hour, ItemCount: 4},
		{ID: "src-2", OwnerID: "alice", Kind: domain.SourceKindVirtual, Name: "tavily", URL: "virtual://tavily", ProviderName: "tavily", ItemCount: 2},
	}
}

func TestSourcesCmd_List(t *testing.T) {
	src := &mockSourceService{sources: testSources()}
	withServices(t, &Services{Source: src, OwnerID: "alice"})

	out, err := run(t, "sources")
	require.NoError(t, err)

	assert.Equal(t, "alice", src.owner)
	assert.Contains(t, out, "Go blog  (4 items)")
	assert.Contains(t, out, "refresh: every 1h0m0s")
	assert.Contains(t, out, "virtual://tavily")
}

func TestSourcesCmd_Empty(t *testing.T) {
	withServices(t, &Services{Source: &mockSourceService{}})

	out, err := run(t, "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "No sources yet.")
}

func TestSourcesCmd_JSON(t *testing.T) {
	withServices(t, &Services{Source: &mockSourceService{sources: testSources()}, OwnerID: "alice"})

	out, err := run(t, "sources", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"refreshIntervalSeconds": 3600`)
	assert.Contains(t, out, `"kind": "virtual"`)
}

func TestSourcesShowCmd(t *testing.T) {
	withServices(t, &Services{Source: &mockSourceService{sources: testSources()}, OwnerID: "alice"})

	out, err := run(t, "sources", "show", "src-2")
	require.NoError(t, err)
	assert.Contains(t, out, "id: src-2")

	_, err = run(t, "sources", "show", "src-9")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = run(t, "sources", "show", "--owner", "bob", "src-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourcesCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := run(t, "sources")
	assert.ErrorIs(t, err, errNotConfigured)
}
