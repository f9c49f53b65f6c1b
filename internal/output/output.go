// Package output renders search results and status lines for the CLI.
package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles styles
	width  int
}

// Option configures a Writer.
type Option func(*Writer)

// WithColor forces colour on or off.
func WithColor(enabled bool) Option {
	return func(w *Writer) {
		w.styles = newStyles(enabled)
	}
}

// WithWidth overrides the detected terminal width.
func WithWidth(width int) Option {
	return func(w *Writer) {
		w.width = width
	}
}

// New creates a Writer. Colour is enabled when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		out:    out,
		styles: newStyles(IsTerminal(out) && !noColorEnv()),
		width:  TerminalWidth(out),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of w, or 0 when unknown.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func noColorEnv() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "  %s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "     %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.styles.success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.errorText.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

const bannerArt = `
     █████╗ ██████╗  ██████╗ ██╗   ██╗███████╗
    ██╔══██╗██╔══██╗██╔════╝ ██║   ██║██╔════╝
    ███████║██████╔╝██║  ███╗██║   ██║███████╗
    ██╔══██║██╔══██╗██║   ██║██║   ██║╚════██║
    ██║  ██║██║  ██║╚██████╔╝╚██████╔╝███████║
    ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝  ╚═════╝ ╚══════╝`

// Banner prints the welcome banner.
func (w *Writer) Banner() {
	_, _ = fmt.Fprintln(w.out, w.styles.banner.Render(bannerArt))
	_, _ = fmt.Fprintf(w.out, "    %s\n\n", w.styles.tagline.Render("Advance Search Engine"))
}

// Goodbye prints the farewell line shown when leaving interactive mode.
func (w *Writer) Goodbye() {
	_, _ = fmt.Fprintf(w.out, "\n  👋 Goodbye!\n\n")
}

// truncateLeft keeps the last limit-3 runes of s behind an ellipsis.
func truncateLeft(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit || limit < 4 {
		return s
	}
	return "..." + string(runes[len(runes)-(limit-3):])
}
