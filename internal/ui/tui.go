package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// stopTimeout bounds how long Stop waits for the program to exit.
const stopTimeout = 2 * time.Second

// TUIRenderer draws an inline spinner and progress bar with bubbletea. The
// display is cleared on completion so results print below the prompt.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *searchModel
	tracker *ProgressTracker
	started bool
	done    chan struct{}

	// OnInterrupt runs when the user presses ctrl+c or q.
	OnInterrupt func()
}

// NewTUIRenderer creates a TUI renderer. It fails when the output is not a
// terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, errors.New("output is not a TTY")
	}

	tracker := NewProgressTracker()
	model := newSearchModel(tracker, cfg.Directory)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	r.model.onInterrupt = r.OnInterrupt
	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.tracker.Stats().Stage {
		r.tracker.SetStage(event.Stage, event.Total)
	}
	r.tracker.Update(event.Current, event.Total, event.CurrentFile)

	if r.program != nil {
		r.program.Send(progressUpdateMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.SetStage(StageComplete, 0)
	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}
	program.Quit()

	select {
	case <-r.done:
	case <-time.After(stopTimeout):
		// An unresponsive program must not hang the process on exit.
		program.Kill()
	}
	return nil
}

type progressUpdateMsg ProgressEvent
type completeMsg CompletionStats
type tickMsg time.Time

// searchModel is the bubbletea model for search progress.
type searchModel struct {
	tracker     *ProgressTracker
	width       int
	quitting    bool
	complete    bool
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
	directory   string
	onInterrupt func()
}

func newSearchModel(tracker *ProgressTracker, directory string) *searchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorCyan))

	p := progress.New(
		progress.WithSolidFill(ColorCyan),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &searchModel{
		tracker:     tracker,
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		width:       80,
		directory:   directory,
	}
}

// Init implements tea.Model.
func (m *searchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(msg.Width-40, 20)

	case progressUpdateMsg:
		return m, nil

	case completeMsg:
		m.complete = true
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *searchModel) View() string {
	if m.complete {
		return ""
	}
	if m.quitting {
		return "  Cancelled.\n"
	}

	stats := m.tracker.Stats()
	var lines []string

	header := m.styles.Header.Render("Argus")
	if m.directory != "" {
		header += m.styles.Label.Render(" • " + m.directory)
	}
	lines = append(lines, "  "+header)

	if stats.Total == 0 {
		lines = append(lines, fmt.Sprintf("  %s %s...", m.spinner.View(), stats.Stage))
	} else {
		pct := m.styles.Active.Render(fmt.Sprintf("%3.0f%%", stats.Progress*100))
		count := m.styles.Label.Render(fmt.Sprintf("%d / %d files", stats.Current, stats.Total))
		lines = append(lines, fmt.Sprintf("  %s %s  %s  %s", m.spinner.View(), m.progressBar.ViewAs(stats.Progress), pct, count))

		var metrics []string
		if stats.Speed > 0 {
			metrics = append(metrics, fmt.Sprintf("%.0f files/s", stats.Speed))
		}
		if stats.ETA > 0 {
			metrics = append(metrics, "ETA "+formatDuration(stats.ETA))
		}
		if len(metrics) > 0 {
			lines = append(lines, "  "+m.styles.Label.Render(strings.Join(metrics, "  •  ")))
		}
	}

	if stats.CurrentFile != "" {
		lines = append(lines, "  "+m.styles.Dim.Render(truncateFilePath(stats.CurrentFile, max(m.width-4, 20))))
	}
	return strings.Join(lines, "\n") + "\n"
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		m, s := int(d.Minutes()), int(d.Seconds())%60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// truncateFilePath shortens path to maxLen, keeping the file name.
func truncateFilePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	i := strings.LastIndex(path, "/")
	if i < 0 {
		if maxLen < 4 {
			return "..."
		}
		return "..." + path[len(path)-maxLen+3:]
	}

	filename := path[i+1:]
	if len(filename)+4 > maxLen {
		return "..." + filename[max(len(filename)-maxLen+3, 0):]
	}

	prefix := path[:i]
	remaining := maxLen - len(filename) - 4
	return "..." + prefix[len(prefix)-remaining:] + "/" + filename
}

var _ Renderer = (*TUIRenderer)(nil)
var _ Renderer = (*PlainRenderer)(nil)
