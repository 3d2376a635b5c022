package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

type mockQueryService struct {
	response *domain.SearchResponse
	err      error
	last     domain.SearchRequest
}

func (m *mockQueryService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockQueryService) ProviderOptions(context.Context) (*domain.ProviderOptionsReport, error) {
	return &domain.ProviderOptionsReport{}, nil
}

func (m *mockQueryService) ProviderStatus(context.Context, bool) (*domain.ProviderStatusReport, error) {
	return &domain.ProviderStatusReport{}, nil
}

type mockIngestService struct {
	last domain.IngestRequest
	err  error
}

func (m *mockIngestService) QueueIngest(_ context.Context, req domain.IngestRequest) (*domain.IngestReceipt, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestReceipt{JobID: "job-7", Status: domain.JobStatusQueued, QueuedCount: len(req.SelectedURLs), PersistMode: req.PersistMode}, nil
}

func (m *mockIngestService) GetIngestJob(context.Context, string, string) (*domain.IngestJob, error) {
	return nil, domain.ErrNotFound
}

func (m *mockIngestService) Drain(context.Context) error { return nil }

func testResponse() *domain.SearchResponse {
	hit := func(url string, origins ...domain.Origin) domain.FusedHit {
		return domain.FusedHit{SearchHit: domain.SearchHit{Title: url, URL: url, Origin: origins[0]}, Origins: origins}
	}
	return &domain.SearchResponse{
		Query:        "rank fusion",
		SessionID:    "session-1",
		ProviderUsed: "searxng",
		Summary:      "Reciprocal rank fusion merges lists.",
		Results: []domain.FusedHit{
			hit("https://notes.example/a", domain.OriginInternal),
			hit("https://web.example/b", domain.OriginExternal),
			hit("https://web.example/c", domain.OriginExternal),
		},
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// searchWith types q, submits it and feeds the resulting message back.
func searchWith(t *testing.T, v *View, q string) {
	t.Helper()
	v.SetQuery(q)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func newTestView(query *mockQueryService, ingest *mockIngestService) *View {
	var v *View
	if ingest == nil {
		v = NewView(nil, nil, query, nil, Options{OwnerID: "alice", Provider: "auto"})
	} else {
		v = NewView(nil, nil, query, ingest, Options{OwnerID: "alice", Provider: "auto"})
	}
	v.SetDimensions(120, 40)
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil, nil, Options{})

	require.NotNil(t, v)
	assert.True(t, v.InputFocused())
	assert.Equal(t, domain.PersistModeSnippetOnly, v.PersistMode())
	assert.Equal(t, "Initialising...", v.View())
	assert.NotNil(t, v.Init())
}

func TestView_Search(t *testing.T) {
	query := &mockQueryService{response: testResponse()}
	v := newTestView(query, nil)

	searchWith(t, v, "  rank fusion ")

	assert.Equal(t, "rank fusion", query.last.Query)
	assert.Equal(t, "alice", query.last.OwnerID)
	assert.True(t, query.last.IncludeExternal)
	assert.False(t, v.InputFocused())
	require.NotNil(t, v.Response())
	assert.Equal(t, status.StateResults, v.statusbar.State())

	view := v.View()
	assert.Contains(t, view, "Reciprocal rank fusion merges lists.")
	assert.Contains(t, view, "Results (3)")
}

func TestView_InternalOnly(t *testing.T) {
	query := &mockQueryService{response: testResponse()}
	v := NewView(nil, nil, query, nil, Options{InternalOnly: true})
	v.SetDimensions(80, 24)

	searchWith(t, v, "q")
	assert.False(t, query.last.IncludeExternal)
}

func TestView_EmptyQueryIgnored(t *testing.T) {
	v := newTestView(&mockQueryService{}, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_SearchError(t *testing.T) {
	v := newTestView(&mockQueryService{err: domain.ErrAllProvidersDown}, nil)

	searchWith(t, v, "q")

	assert.ErrorIs(t, v.Err(), domain.ErrAllProvidersDown)
	assert.Equal(t, status.StateError, v.statusbar.State())
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NoQueryService(t *testing.T) {
	v := NewView(nil, nil, nil, nil, Options{})
	v.SetDimensions(80, 24)

	searchWith(t, v, "q")
	assert.ErrorIs(t, v.Err(), ErrNoQueryService)
}

func TestView_MarkAndIngest(t *testing.T) {
	ingest := &mockIngestService{}
	v := newTestView(&mockQueryService{response: testResponse()}, ingest)
	searchWith(t, v, "q")

	// internal hit cannot be marked
	v.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Contains(t, v.statusbar.Message(), "only external")

	v.Update(keyRune('j'))
	v.Update(tea.KeyMsg{Type: tea.KeySpace})
	v.Update(keyRune('m'))
	assert.Equal(t, domain.PersistModeEnriched, v.PersistMode())

	_, cmd := v.Update(keyRune('i'))
	require.NotNil(t, cmd)
	queued := cmd()
	require.IsType(t, messages.IngestQueued{}, queued)

	assert.Equal(t, "session-1", ingest.last.SessionID)
	assert.Equal(t, "alice", ingest.last.OwnerID)
	assert.Equal(t, []string{"https://web.example/b"}, ingest.last.SelectedURLs)
	assert.Equal(t, domain.PersistModeEnriched, ingest.last.PersistMode)

	_, cmd = v.Update(queued)
	require.NotNil(t, cmd)
	assert.Equal(t, messages.WatchJob{JobID: "job-7"}, cmd())
	assert.Contains(t, v.statusbar.Message(), "job-7")
}

func TestView_MarkAll(t *testing.T) {
	ingest := &mockIngestService{}
	v := newTestView(&mockQueryService{response: testResponse()}, ingest)
	searchWith(t, v, "q")

	v.Update(keyRune('a'))
	_, cmd := v.Update(keyRune('i'))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []string{"https://web.example/b", "https://web.example/c"}, ingest.last.SelectedURLs)
	assert.Equal(t, domain.PersistModeSnippetOnly, ingest.last.PersistMode)
}

func TestView_IngestGuards(t *testing.T) {
	t.Run("no ingest service", func(t *testing.T) {
		v := newTestView(&mockQueryService{response: testResponse()}, nil)
		searchWith(t, v, "q")

		_, cmd := v.Update(keyRune('i'))
		assert.Nil(t, cmd)
		assert.ErrorIs(t, v.Err(), ErrIngestUnavailable)
	})

	t.Run("nothing marked", func(t *testing.T) {
		v := newTestView(&mockQueryService{response: testResponse()}, &mockIngestService{})
		searchWith(t, v, "q")

		_, cmd := v.Update(keyRune('i'))
		assert.Nil(t, cmd)
		assert.Contains(t, v.statusbar.Message(), "mark hits")
	})

	t.Run("no session", func(t *testing.T) {
		resp := testResponse()
		resp.SessionID = ""
		v := newTestView(&mockQueryService{response: resp}, &mockIngestService{})
		searchWith(t, v, "q")

		_, cmd := v.Update(keyRune('i'))
		assert.Nil(t, cmd)
		assert.Contains(t, v.statusbar.Message(), "no external results")
	})

	t.Run("queue error", func(t *testing.T) {
		ingest := &mockIngestService{err: domain.ErrInvalidSession}
		v := newTestView(&mockQueryService{response: testResponse()}, ingest)
		searchWith(t, v, "q")
		v.Update(keyRune('a'))

		_, cmd := v.Update(keyRune('i'))
		require.NotNil(t, cmd)
		_, next := v.Update(cmd())
		assert.Nil(t, next)
		assert.True(t, errors.Is(v.Err(), domain.ErrInvalidSession))
	})
}

func TestView_NewSearchAndBack(t *testing.T) {
	v := newTestView(&mockQueryService{response: testResponse()}, nil)
	searchWith(t, v, "q")

	v.Update(keyRune('n'))
	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Query())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Reset(t *testing.T) {
	v := newTestView(&mockQueryService{response: testResponse()}, nil)
	searchWith(t, v, "q")

	v.Reset()

	assert.True(t, v.InputFocused())
	assert.Nil(t, v.Response())
	assert.Zero(t, v.list.Count())
	assert.Nil(t, v.Err())
}

func TestView_QueryInput(t *testing.T) {
	v := newTestView(&mockQueryService{}, nil)

	for _, r := range "rrf" {
		v.Update(keyRune(r))
	}
	assert.Equal(t, "rrf", v.Query())
	assert.True(t, v.input.Focused())
	assert.Contains(t, v.View(), "Query")

	v.SetQuery("vector search")
	assert.Equal(t, "vector search", v.Query())
}

func TestView_QueryInputWidth(t *testing.T) {
	v := NewView(nil, nil, nil, nil, Options{})

	v.SetDimensions(100, 30)
	assert.Equal(t, 88, v.input.Width)

	v.SetDimensions(10, 30)
	assert.Equal(t, 20, v.input.Width)
}
