// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// ResultList displays fused hits and tracks which external hits are
// marked for ingestion.
type ResultList struct {
	results  []domain.FusedHit
	marked   map[string]bool
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{
		marked: make(map[string]bool),
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation keys.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the visible window of results.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.results)*3+2)
	header := fmt.Sprintf("Results (%d)", len(r.results))
	if n := len(r.marked); n > 0 {
		header += fmt.Sprintf("  %d marked", n)
	}
	lines = append(lines, r.styles.Subtitle.Render(header), "")

	// Each hit takes three lines.
	visible := max((r.height-4)/3, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderHit(i, &r.results[i]))
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) renderHit(index int, hit *domain.FusedHit) string {
	cursor := "  "
	if index == r.selected {
		cursor = "> "
	}

	box := "   "
	if hit.HasOrigin(domain.OriginExternal) {
		box = "[ ]"
		if r.marked[hit.URL] {
			box = r.styles.Checked.Render("[x]")
		}
	}

	title := hit.Title
	if title == "" {
		title = hit.URL
	}
	title = truncate(title, max(r.width-28, 10))

	var titleLine string
	if index == r.selected {
		titleLine = cursor + box + " " + r.styles.Selected.Render(title)
	} else {
		titleLine = cursor + box + " " + r.styles.Normal.Render(title)
	}
	titleLine += " " + r.styles.Origin(hit.Origins) + r.styles.Muted.Render(fmt.Sprintf("%.4f", hit.Score))

	source := hit.SourceName
	if hit.ProviderName != "" && !hit.HasOrigin(domain.OriginInternal) {
		source = hit.ProviderName
		if hit.Engine != "" {
			source += "/" + hit.Engine
		}
	}
	urlLine := r.styles.Subtitle.Render("      " + truncate(hit.URL, max(r.width-8, 20)))
	if source != "" {
		urlLine += r.styles.Muted.Render("  " + source)
	}

	snippet := truncate(strings.Join(strings.Fields(hit.Snippet), " "), max(r.width-8, 20))
	return titleLine + "\n" + urlLine + "\n" + r.styles.Muted.Render("      "+snippet)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetResults replaces the results and clears marks.
func (r *ResultList) SetResults(results []domain.FusedHit) {
	r.results = results
	r.selected = 0
	r.marked = make(map[string]bool)
}

// Results returns the current results.
func (r *ResultList) Results() []domain.FusedHit {
	return r.results
}

// Selected returns the index of the highlighted result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SelectedResult returns the highlighted result, or nil if none.
func (r *ResultList) SelectedResult() *domain.FusedHit {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// ToggleSelected marks or unmarks the highlighted hit. Internal-only hits
// are already stored and cannot be marked; it reports whether a mark changed.
func (r *ResultList) ToggleSelected() bool {
	hit := r.SelectedResult()
	if hit == nil || !hit.HasOrigin(domain.OriginExternal) {
		return false
	}
	if r.marked[hit.URL] {
		delete(r.marked, hit.URL)
	} else {
		r.marked[hit.URL] = true
	}
	return true
}

// MarkAllExternal marks every external hit, or clears all marks when every
// external hit is already marked.
func (r *ResultList) MarkAllExternal() {
	external := 0
	for i := range r.results {
		if r.results[i].HasOrigin(domain.OriginExternal) {
			external++
		}
	}
	if external > 0 && len(r.marked) == external {
		r.marked = make(map[string]bool)
		return
	}
	for i := range r.results {
		if r.results[i].HasOrigin(domain.OriginExternal) {
			r.marked[r.results[i].URL] = true
		}
	}
}

// MarkedURLs returns the marked URLs in result order.
func (r *ResultList) MarkedURLs() []string {
	urls := make([]string, 0, len(r.marked))
	for i := range r.results {
		if r.marked[r.results[i].URL] {
			urls = append(urls, r.results[i].URL)
		}
	}
	return urls
}

// MoveUp moves the highlight up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves the highlight down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}
