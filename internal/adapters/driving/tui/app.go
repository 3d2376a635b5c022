package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/views/job"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/views/sources"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// Options configure the searches issued from the TUI.
type Options struct {
	// Provider forces one external provider instead of routing.
	Provider string

	// InternalOnly skips external providers.
	InternalOnly bool

	// Query is run immediately on start when set.
	Query string
}

// App is the main TUI application following the Elm architecture.
type App struct {
	ports  *Ports
	opts   Options
	ctx    context.Context
	styles *styles.Styles

	menuView    *menu.View
	searchView  *search.View
	sourcesView *sources.View
	jobView     *job.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates a TUI application over ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:       ports,
		opts:        opts,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menu.NewView(s),
		sourcesView: sources.NewView(s, ports.Source, ports.OwnerID),
		jobView:     job.NewView(s, ports.Ingest, ports.OwnerID),
		currentView: messages.ViewMenu,
	}
	a.searchView = search.NewView(s, km, ports.Query, ports.Ingest, search.Options{
		OwnerID:      ports.OwnerID,
		Provider:     opts.Provider,
		InternalOnly: opts.InternalOnly,
	})
	if opts.Query != "" {
		a.currentView = messages.ViewSearch
		a.searchView.SetQuery(opts.Query)
	}
	return a, nil
}

// WithContext sets the context for service calls made by every view.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.sourcesView.WithContext(ctx)
	a.jobView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle("discover")}
	if a.currentView == messages.ViewSearch {
		cmds = append(cmds, a.searchView.Init(), submit)
	}
	return tea.Batch(cmds...)
}

func submit() tea.Msg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.updateActive(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewSources:
			return a, a.sourcesView.Init()
		case messages.ViewMenu, messages.ViewJob:
		}
		return a, nil

	case messages.WatchJob:
		a.currentView = messages.ViewJob
		return a, a.jobView.Watch(msg.JobID)

	case messages.SearchCompleted, messages.IngestQueued:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.SourcesLoaded:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewSearch {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Job polling keeps running while another view is active.
	if a.currentView != messages.ViewJob {
		var jobCmd tea.Cmd
		a.jobView, jobCmd = a.jobView.Update(msg)
		return a, tea.Batch(a.updateActive(msg), jobCmd)
	}
	return a, a.updateActive(msg)
}

func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
	case messages.ViewSources:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
	case messages.ViewJob:
		a.jobView, cmd = a.jobView.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewSources:
		return a.sourcesView.View()
	case messages.ViewJob:
		return a.jobView.View()
	default:
		return a.menuView.View()
	}
}

// Run starts the TUI and blocks until it exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.WithContext(ctx)
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Response returns the last search response.
func (a *App) Response() *domain.SearchResponse {
	return a.searchView.Response()
}

// WatchedJob returns the last polled state of the watched job.
func (a *App) WatchedJob() *domain.IngestJob {
	return a.jobView.Job()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.sourcesView.SetDimensions(width, height)
	a.jobView.SetDimensions(width, height)
}
