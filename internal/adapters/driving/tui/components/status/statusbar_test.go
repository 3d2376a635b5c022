package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Contains(t, bar.View(), "Ready")
	assert.Contains(t, bar.View(), "enter: search")
}

func TestBar_Results(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(200)
	bar.SetState(StateResults)
	bar.SetResultCount(7)
	bar.SetProvider("searxng", true)
	bar.SetPersistMode("enriched")

	view := bar.View()
	assert.Contains(t, view, "7 results")
	assert.Contains(t, view, "via searxng (fallback)")
	assert.Contains(t, view, "mode enriched")
	assert.Contains(t, view, "i: ingest")
}

func TestBar_States(t *testing.T) {
	tests := []struct {
		state   State
		message string
		want    string
	}{
		{StateSearching, "", "Searching..."},
		{StateQueueing, "", "Queueing ingestion..."},
		{StateError, "all providers down", "Error: all providers down"},
		{StateError, "", "Error"},
		{StateReady, "queued job-1", "queued job-1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(200)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			assert.Contains(t, bar.View(), tt.want)
			assert.Equal(t, tt.message, bar.Message())
		})
	}
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetResultCount(3)
	bar.SetProvider("tavily", false)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Equal(t, 0, bar.resultCount)
	assert.Empty(t, bar.provider)
}
