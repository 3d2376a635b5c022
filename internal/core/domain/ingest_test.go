package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePersistMode(t *testing.T) {
	tests := []struct {
		in   string
		want PersistMode
		ok   bool
	}{
		{"", PersistModeNone, true},
		{"none", PersistModeNone, true},
		{"snippet", PersistModeSnippetOnly, true},
		{"SnippetOnly", PersistModeSnippetOnly, true},
		{"snippet_only", PersistModeSnippetOnly, true},
		{" enriched ", PersistModeEnriched, true},
		{"full", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePersistMode(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPersistMode_Persists(t *testing.T) {
	assert.False(t, PersistModeNone.Persists())
	assert.True(t, PersistModeSnippetOnly.Persists())
	assert.True(t, PersistModeEnriched.Persists())
}

func TestJobStatus_CanTransition(t *testing.T) {
	assert.True(t, JobStatusQueued.CanTransition(JobStatusRunning))
	assert.True(t, JobStatusQueued.CanTransition(JobStatusFailed))
	assert.False(t, JobStatusQueued.CanTransition(JobStatusCompleted))
	assert.True(t, JobStatusRunning.CanTransition(JobStatusCompleted))
	assert.True(t, JobStatusRunning.CanTransition(JobStatusFailed))
	assert.False(t, JobStatusRunning.CanTransition(JobStatusQueued))
	assert.False(t, JobStatusCompleted.CanTransition(JobStatusRunning))
	assert.False(t, JobStatusFailed.CanTransition(JobStatusCompleted))
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobStatusQueued.IsTerminal())
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.False(t, JobStatus("paused").IsValid())
}

func TestIngestJob_Progress(t *testing.T) {
	job := &IngestJob{TotalItems: 4, ProcessedItems: 1, Status: JobStatusRunning}
	assert.InDelta(t, 0.25, job.Progress(), 1e-9)

	empty := &IngestJob{Status: JobStatusCompleted}
	assert.InDelta(t, 1.0, empty.Progress(), 1e-9)
}

func TestRoundQuality(t *testing.T) {
	assert.InDelta(t, 0.667, RoundQuality(2.0/3.0), 1e-9)
	assert.InDelta(t, 0.5, RoundQuality(0.5), 1e-9)
}
