// Package sources provides the sources view component for the TUI.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
)

// ErrNoSourceService is reported when the view has no source service.
var ErrNoSourceService = errors.New("source service not available")

// View lists the owner's native and virtual sources.
type View struct {
	styles        *styles.Styles
	sourceService driving.SourceService
	ownerID       string
	ctx           context.Context

	sources  []domain.Source
	selected int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new sources view for ownerID.
func NewView(s *styles.Styles, sourceService driving.SourceService, ownerID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:        s,
		sourceService: sourceService,
		ownerID:       ownerID,
		ctx:           context.Background(),
		width:         80,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the sources.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadSources()
}

func (v *View) loadSources() tea.Cmd {
	ctx, svc, owner := v.ctx, v.sourceService, v.ownerID
	return func() tea.Msg {
		if svc == nil {
			return messages.SourcesLoaded{Err: ErrNoSourceService}
		}
		sources, err := svc.List(ctx, owner)
		return messages.SourcesLoaded{Sources: sources, Err: err}
	}
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SourcesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.sources = msg.Sources
		v.err = nil
		if v.selected >= len(v.sources) {
			v.selected = max(len(v.sources)-1, 0)
		}
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.sources)-1 {
			v.selected++
		}
	case "r":
		v.loading = true
		return v, v.loadSources()
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case "q":
		return v, tea.Quit
	}
	return v, nil
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sources"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading sources..."))
		b.WriteString("\n\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	case len(v.sources) == 0:
		b.WriteString(v.styles.Muted.Render("No sources yet. Ingest external results to create one."))
		b.WriteString("\n\n")
	default:
		for i := range v.sources {
			b.WriteString(v.renderSource(i, &v.sources[i]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(v.styles.Help.Render("[j/k] navigate  [r] reload  [esc] back  [q] quit"))
	return b.String()
}

func (v *View) renderSource(index int, src *domain.Source) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	kind := fmt.Sprintf("[%s]", src.Kind)
	name := src.Name
	if name == "" {
		name = src.ID
	}
	detail := src.URL
	if src.Collectable() {
		detail += " every " + src.RefreshInterval.String()
	}
	count := fmt.Sprintf("%d items", src.ItemCount)

	maxName := max(v.width-len(kind)-len(count)-16, 10)
	if len([]rune(name)) > maxName {
		name = string([]rune(name)[:maxName-3]) + "..."
	}

	kindStyle := v.styles.Subtitle
	if src.IsVirtual() {
		kindStyle = v.styles.ExternalBadge
	}
	nameStyle := v.styles.Normal
	if index == v.selected {
		nameStyle = v.styles.Selected
	}

	return indicator + kindStyle.Render(fmt.Sprintf("%-10s", kind)) + " " +
		nameStyle.Render(name) + "  " + v.styles.Muted.Render(count) + "\n" +
		"    " + v.styles.Muted.Render(detail)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Sources returns the current list of sources.
func (v *View) Sources() []domain.Source {
	return v.sources
}

// SelectedIndex returns the currently selected source index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
