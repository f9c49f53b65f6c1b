package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// maxLineBytes bounds a single log line read back by the viewer.
const maxLineBytes = 1024 * 1024

// followInterval is how often Follow polls for appended lines.
const followInterval = 100 * time.Millisecond

// Entry is one parsed log line.
type Entry struct {
	Time  time.Time
	Level string
	Msg   string
	Attrs map[string]any
	// Raw is the original line; it is all a non-JSON line has.
	Raw   string
	Valid bool
}

// ViewerConfig filters and styles entries.
type ViewerConfig struct {
	// Level drops entries below it. Empty keeps everything.
	Level string
	// Pattern keeps only entries whose raw line matches.
	Pattern *regexp.Regexp
	NoColor bool
}

// Viewer reads log files back for display.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
}

// NewViewer creates a Viewer writing to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{config: cfg, out: out}
}

// Tail returns the matching entries among the last n lines of path.
func (v *Viewer) Tail(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Ring of the last n lines.
	lines := make([]string, 0, n)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		if n <= 0 {
			continue
		}
		if len(lines) == n {
			lines = append(lines[:0], lines[1:]...)
		}
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []Entry
	for _, line := range lines {
		if e := ParseLine(line); v.keep(e) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Follow sends entries appended to path after the call until ctx is done.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- Entry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	reader := bufio.NewReader(f)
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()

	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			chunk, err := reader.ReadString('\n')
			if err != nil {
				// Keep an unterminated line for the next tick.
				partial += chunk
				break
			}
			line := strings.TrimSuffix(partial+chunk, "\n")
			partial = ""
			if line == "" {
				continue
			}
			if e := ParseLine(line); v.keep(e) {
				select {
				case entries <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// Print writes entries to the viewer's output, one per line.
func (v *Viewer) Print(entries []Entry) {
	for _, e := range entries {
		_, _ = fmt.Fprintln(v.out, v.Format(e))
	}
}

// Format renders an entry as "15:04:05.000 LEVEL msg k=v ...". Attributes
// are sorted by key. Non-JSON lines are returned unchanged.
func (v *Viewer) Format(e Entry) string {
	if !e.Valid {
		return e.Raw
	}

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(e.Time.Format("15:04:05.000"))
	sb.WriteByte(' ')
	sb.WriteString(v.formatLevel(e.Level))
	sb.WriteByte(' ')
	sb.WriteString(e.Msg)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, e.Attrs[k])
	}
	return sb.String()
}

var levelColors = map[string]lipgloss.Color{
	"DEBUG": lipgloss.Color("8"),
	"INFO":  lipgloss.Color("2"),
	"WARN":  lipgloss.Color("3"),
	"ERROR": lipgloss.Color("1"),
}

func (v *Viewer) formatLevel(level string) string {
	name := strings.ToUpper(level)
	if name == "WARNING" {
		name = "WARN"
	}
	if len(name) > 5 {
		name = name[:5]
	}
	padded := fmt.Sprintf("%-5s", name)

	color, ok := levelColors[name]
	if v.config.NoColor || !ok {
		return padded
	}
	return lipgloss.NewStyle().Foreground(color).Render(padded)
}

func (v *Viewer) keep(e Entry) bool {
	if v.config.Level != "" && e.Valid && LevelFromString(e.Level) < LevelFromString(v.config.Level) {
		return false
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(e.Raw) {
		return false
	}
	return true
}

// ParseLine parses one JSON log line written by the slog handler.
func ParseLine(line string) Entry {
	e := Entry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return e
	}
	e.Valid = true

	if s, ok := data[slog.TimeKey].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			e.Time = t
		}
	}
	e.Level, _ = data[slog.LevelKey].(string)
	e.Msg, _ = data[slog.MessageKey].(string)

	e.Attrs = make(map[string]any, len(data))
	for k, val := range data {
		switch k {
		case slog.TimeKey, slog.LevelKey, slog.MessageKey:
		default:
			e.Attrs[k] = val
		}
	}
	return e
}
