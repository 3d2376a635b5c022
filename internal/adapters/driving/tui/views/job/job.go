// Package job provides the ingestion job watcher view.
package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
)

// DefaultPollInterval is how often the job is re-read.
const DefaultPollInterval = 500 * time.Millisecond

// maxFailuresShown bounds the failure lines rendered.
const maxFailuresShown = 5

// pollTick triggers the next read of a job.
type pollTick struct {
	jobID string
}

// View polls an ingestion job until it reaches a terminal status.
type View struct {
	styles   *styles.Styles
	ingest   driving.IngestService
	ownerID  string
	ctx      context.Context
	interval time.Duration

	spinner  spinner.Model
	progress progress.Model

	jobID string
	job   *domain.IngestJob
	err   error
	done  bool

	// quitOnDone ends the program once the job is terminal.
	quitOnDone bool

	width int
	ready bool
}

// NewView creates a job watcher for ownerID's jobs.
func NewView(s *styles.Styles, ingest driving.IngestService, ownerID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	theme := s.Theme()
	bar := progress.New(progress.WithGradient(string(theme.Primary), string(theme.Secondary)))

	return &View{
		styles:   s,
		ingest:   ingest,
		ownerID:  ownerID,
		ctx:      context.Background(),
		interval: DefaultPollInterval,
		spinner:  sp,
		progress: bar,
		width:    80,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithInterval overrides the poll interval.
func (v *View) WithInterval(d time.Duration) *View {
	if d > 0 {
		v.interval = d
	}
	return v
}

// QuitOnDone makes the view end the program when the job finishes.
func (v *View) QuitOnDone() *View {
	v.quitOnDone = true
	return v
}

// Watch starts watching jobID, replacing any previous job.
func (v *View) Watch(jobID string) tea.Cmd {
	v.jobID = jobID
	v.job = nil
	v.err = nil
	v.done = false
	return tea.Batch(v.spinner.Tick, v.poll())
}

func (v *View) poll() tea.Cmd {
	ctx, ingest, owner, id := v.ctx, v.ingest, v.ownerID, v.jobID
	return func() tea.Msg {
		if ingest == nil {
			return messages.JobPolled{Err: errors.New("ingestion is not available")}
		}
		job, err := ingest.GetIngestJob(ctx, owner, id)
		return messages.JobPolled{Job: job, Err: err}
	}
}

func (v *View) schedule() tea.Cmd {
	id := v.jobID
	return tea.Tick(v.interval, func(time.Time) tea.Msg {
		return pollTick{jobID: id}
	})
}

// Update handles messages for the job view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		case "q", "ctrl+c":
			return v, tea.Quit
		}
		return v, nil

	case spinner.TickMsg:
		if v.done {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case pollTick:
		if msg.jobID != v.jobID || v.done {
			return v, nil
		}
		return v, v.poll()

	case messages.JobPolled:
		return v.handlePolled(msg)
	}
	return v, nil
}

func (v *View) handlePolled(msg messages.JobPolled) (*View, tea.Cmd) {
	if msg.Job != nil && msg.Job.ID != v.jobID {
		return v, nil
	}
	if msg.Err != nil {
		v.err = msg.Err
		if errors.Is(msg.Err, domain.ErrNotFound) {
			return v, v.finish()
		}
		// Transient read failures keep polling.
		return v, v.schedule()
	}

	v.err = nil
	v.job = msg.Job
	if msg.Job.Status.IsTerminal() {
		return v, v.finish()
	}
	return v, v.schedule()
}

func (v *View) finish() tea.Cmd {
	v.done = true
	if v.quitOnDone {
		return tea.Quit
	}
	return nil
}

// View renders the job state.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Ingest job " + v.jobID))
	b.WriteString("\n\n")

	if v.job == nil {
		if v.err != nil {
			b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		} else {
			b.WriteString(v.spinner.View() + " " + v.styles.Muted.Render("Loading job..."))
		}
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	j := v.job
	statusLine := v.styles.JobStatus(j.Status).Render(j.Status.String())
	if !v.done {
		statusLine = v.spinner.View() + " " + statusLine
	}
	fmt.Fprintf(&b, "%s  %s · %s\n\n", statusLine, j.PersistMode, j.ProviderName)

	b.WriteString(v.progress.ViewAs(j.Progress()))
	fmt.Fprintf(&b, "  %d/%d\n\n", j.ProcessedItems, j.TotalItems)

	fmt.Fprintf(&b, "%s %d   %s %d   %s %d (%d low quality)\n",
		v.styles.Success.Render("stored"), j.StoredItems,
		v.styles.Muted.Render("duplicate"), j.DuplicateItems,
		v.styles.Error.Render("failed"), j.FailedItems, j.RejectedItems)
	fmt.Fprintf(&b, "%s %d   %s %.3f\n",
		v.styles.Muted.Render("retries"), j.RetryCount,
		v.styles.Muted.Render("avg quality"), j.AverageQualityScore)

	if len(j.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render("Failures"))
		b.WriteString("\n")
		for i, f := range j.Failures {
			if i == maxFailuresShown {
				fmt.Fprintf(&b, "  ... %d more\n", len(j.Failures)-maxFailuresShown)
				break
			}
			fmt.Fprintf(&b, "  %s %s\n", v.styles.Warning.Render(string(f.Reason)), f.URL)
		}
	}
	if j.ErrorMessage != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render("Job error: " + j.ErrorMessage))
		b.WriteString("\n")
	}
	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Warning.Render("Last poll failed: " + v.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[esc] back  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, _ int) {
	v.width = width
	v.ready = true
	v.progress.Width = min(max(width-20, 20), 80)
}

// Job returns the last polled job state.
func (v *View) Job() *domain.IngestJob {
	return v.job
}

// JobID returns the watched job ID.
func (v *View) JobID() string {
	return v.jobID
}

// Done reports whether the job reached a terminal status or vanished.
func (v *View) Done() bool {
	return v.done
}

// Err returns the last poll error.
func (v *View) Err() error {
	return v.err
}
