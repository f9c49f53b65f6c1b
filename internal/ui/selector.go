package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Aman-CERP/argus/internal/model"
)

const exitLabel = "❌ Exit"

// Selector is a bubbletea model listing results plus a trailing exit entry.
type Selector struct {
	items    []string
	cursor   int
	chosen   int
	finished bool
	styles   Styles
}

// NewSelector builds a selector over results with the cursor at initial.
func NewSelector(results []model.FileResult, initial int, styles Styles) *Selector {
	items := make([]string, 0, len(results)+1)
	for i, r := range results {
		items = append(items, fmt.Sprintf("#%-2d %s %s (%d matches)", i+1, r.Category.Icon(), r.FileName(), r.MatchCount()))
	}
	items = append(items, exitLabel)

	s := &Selector{items: items, chosen: -1, styles: styles}
	if initial >= 0 && initial < len(items) {
		s.cursor = initial
	}
	return s
}

// Init implements tea.Model.
func (s *Selector) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (s *Selector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch key.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case "home", "g":
		s.cursor = 0
	case "end", "G":
		s.cursor = len(s.items) - 1
	case "enter":
		if s.cursor < len(s.items)-1 {
			s.chosen = s.cursor
		}
		s.finished = true
		return s, tea.Quit
	case "esc", "q", "ctrl+c":
		s.finished = true
		return s, tea.Quit
	}
	return s, nil
}

// View implements tea.Model.
func (s *Selector) View() string {
	if s.finished {
		return ""
	}

	var b strings.Builder
	b.WriteString("  " + s.styles.Hint.Render("Use ↑/↓ arrows to navigate, Enter to open, Esc to exit") + "\n\n")
	for i, item := range s.items {
		if i == s.cursor {
			b.WriteString("  " + s.styles.Selected.Render("> "+item) + "\n")
		} else {
			b.WriteString("    " + item + "\n")
		}
	}
	return b.String()
}

// Selected returns the chosen result index. ok is false when the user
// exited instead.
func (s *Selector) Selected() (index int, ok bool) {
	return s.chosen, s.chosen >= 0
}

// Cursor returns the highlighted row.
func (s *Selector) Cursor() int {
	return s.cursor
}

// Select runs a selector on the given terminal streams and returns the
// chosen result index.
func Select(ctx context.Context, in io.Reader, out io.Writer, results []model.FileResult, initial int, noColor bool) (int, bool, error) {
	if len(results) == 0 {
		return -1, false, nil
	}

	sel := NewSelector(results, initial, GetStyles(noColor || DetectNoColor()))
	program := tea.NewProgram(sel, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if _, err := program.Run(); err != nil {
		return -1, false, fmt.Errorf("selector failed: %w", err)
	}

	index, ok := sel.Selected()
	return index, ok, nil
}
