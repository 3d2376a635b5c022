package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/views/job"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
)

// JobWatcher is a standalone program showing one ingestion job until it
// finishes.
type JobWatcher struct {
	view  *job.View
	jobID string
}

var _ tea.Model = (*JobWatcher)(nil)

// NewJobWatcher creates a watcher for ownerID's job jobID.
func NewJobWatcher(ingest driving.IngestService, ownerID, jobID string) (*JobWatcher, error) {
	if ingest == nil {
		return nil, ErrMissingIngestService
	}
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	return &JobWatcher{
		view:  job.NewView(styles.DefaultStyles(), ingest, ownerID).QuitOnDone(),
		jobID: jobID,
	}, nil
}

// Init implements tea.Model.
func (w *JobWatcher) Init() tea.Cmd {
	return w.view.Watch(w.jobID)
}

// Update implements tea.Model. Esc quits since there is no menu to return to.
func (w *JobWatcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		return w, tea.Quit
	}
	var cmd tea.Cmd
	w.view, cmd = w.view.Update(msg)
	return w, cmd
}

// View implements tea.Model.
func (w *JobWatcher) View() string {
	return w.view.View() + "\n"
}

// Job returns the last polled job state.
func (w *JobWatcher) Job() *domain.IngestJob {
	return w.view.Job()
}

// Err returns the last poll error.
func (w *JobWatcher) Err() error {
	return w.view.Err()
}

// Run shows the watcher inline and returns the final job state.
func (w *JobWatcher) Run(ctx context.Context) (*domain.IngestJob, error) {
	w.view.WithContext(ctx)
	p := tea.NewProgram(w, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return w.Job(), err
	}
	if w.Job() == nil && w.Err() != nil {
		return nil, w.Err()
	}
	return w.Job(), nil
}
