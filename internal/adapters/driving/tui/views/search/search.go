// Package search provides the query view: fused results with marking of
// external hits for ingestion.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
)

// Options are applied to every query issued from the view.
type Options struct {
	OwnerID  string
	Provider string

	// InternalOnly skips external providers.
	InternalOnly bool
}

// View is the search view with input, results list and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     textinput.Model
	list      *list.ResultList
	statusbar *status.Bar

	query  driving.QueryService
	ingest driving.IngestService
	opts   Options
	ctx    context.Context

	response    *domain.SearchResponse
	persistMode domain.PersistMode

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new search view. ingest may be nil, which disables
// queueing from the results list.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	query driving.QueryService,
	ingest driving.IngestService,
	opts Options,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:      s,
		keymap:      km,
		input:       newQueryInput(),
		list:        list.NewResultList(s),
		statusbar:   status.NewBar(s, km),
		query:       query,
		ingest:      ingest,
		opts:        opts,
		ctx:         context.Background(),
		persistMode: domain.PersistModeSnippetOnly,
		width:       80,
		height:      24,
		focusInput:  true,
	}
	v.statusbar.SetPersistMode(v.persistMode.String())
	return v
}

func newQueryInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Search your corpus and the web..."
	ti.CharLimit = 512
	ti.Width = 50
	ti.Focus()
	return ti
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.IngestQueued:
		return v.handleIngestQueued(msg)

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if keymap.Matches(msg.String(), v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(v.input.Value())
			if q == "" {
				return v, nil
			}
			v.statusbar.SetState(status.StateSearching)
			v.statusbar.SetMessage("")
			v.focusInput = false
			v.input.Blur()
			return v, v.performSearch(q)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(key, v.keymap.Toggle):
		if !v.list.ToggleSelected() {
			v.statusbar.SetMessage("only external hits can be ingested")
		} else {
			v.statusbar.SetMessage("")
		}
	case keymap.Matches(key, v.keymap.SelectAll):
		v.list.MarkAllExternal()
	case keymap.Matches(key, v.keymap.Mode):
		v.togglePersistMode()
	case keymap.Matches(key, v.keymap.Ingest):
		return v.queueIngest()
	case keymap.Matches(key, v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case keymap.Matches(key, v.keymap.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *View) togglePersistMode() {
	if v.persistMode == domain.PersistModeEnriched {
		v.persistMode = domain.PersistModeSnippetOnly
	} else {
		v.persistMode = domain.PersistModeEnriched
	}
	v.statusbar.SetPersistMode(v.persistMode.String())
}

func (v *View) performSearch(q string) tea.Cmd {
	req := domain.SearchRequest{
		OwnerID:         v.opts.OwnerID,
		Query:           q,
		IncludeExternal: !v.opts.InternalOnly,
		Provider:        v.opts.Provider,
	}
	ctx := v.ctx
	query := v.query
	return func() tea.Msg {
		if query == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		resp, err := query.Search(ctx, req)
		return messages.SearchCompleted{Response: resp, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.response = msg.Response
	v.list.SetResults(msg.Response.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Response.Results))
	v.statusbar.SetProvider(msg.Response.ProviderUsed, msg.Response.FallbackUsed)
	v.focusInput = false
	v.input.Blur()
}

func (v *View) queueIngest() (*View, tea.Cmd) {
	if v.ingest == nil {
		v.setError(ErrIngestUnavailable)
		return v, nil
	}
	if v.response == nil || v.response.SessionID == "" {
		v.statusbar.SetMessage("no external results to ingest")
		return v, nil
	}
	urls := v.list.MarkedURLs()
	if len(urls) == 0 {
		v.statusbar.SetMessage("mark hits with space first")
		return v, nil
	}

	req := domain.IngestRequest{
		OwnerID:      v.opts.OwnerID,
		SessionID:    v.response.SessionID,
		SelectedURLs: urls,
		PersistMode:  v.persistMode,
	}
	ctx := v.ctx
	ingest := v.ingest
	v.statusbar.SetState(status.StateQueueing)
	return v, func() tea.Msg {
		receipt, err := ingest.QueueIngest(ctx, req)
		return messages.IngestQueued{Receipt: receipt, Err: err}
	}
}

func (v *View) handleIngestQueued(msg messages.IngestQueued) (*View, tea.Cmd) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return v, nil
	}
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetMessage(fmt.Sprintf("queued %d items as %s", msg.Receipt.QueuedCount, msg.Receipt.JobID))
	jobID := msg.Receipt.JobID
	return v, func() tea.Msg {
		return messages.WatchJob{JobID: jobID}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	queryLine := lipgloss.JoinHorizontal(lipgloss.Center,
		v.styles.Title.Render("Query "), v.styles.InputField.Render(v.input.View()))
	sections = append(sections, v.styles.Title.Render("Discover"), "", queryLine, "")

	if v.response != nil && v.response.Summary != "" {
		summary := lipgloss.NewStyle().Width(max(v.width-4, 20)).Render(v.response.Summary)
		sections = append(sections, v.styles.Border.Padding(0, 1).Render(summary), "")
	}
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	// Leave room for the label and the field border.
	v.input.Width = max(width-12, 20)
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Reset returns the view to input mode with no results.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.response = nil
	v.err = nil
	v.statusbar.Clear()
}

// Query returns the current query text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the query text.
func (v *View) SetQuery(q string) {
	v.input.SetValue(q)
}

// Response returns the last search response.
func (v *View) Response() *domain.SearchResponse {
	return v.response
}

// PersistMode returns the mode used for the next ingest.
func (v *View) PersistMode() domain.PersistMode {
	return v.persistMode
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}
