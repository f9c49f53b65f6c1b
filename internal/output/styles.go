package output

import "github.com/charmbracelet/lipgloss"

// Palette (ANSI 256).
const (
	colorYellow  = "11"
	colorWhite   = "15"
	colorBronze  = "#CD7F32"
	colorCyan    = "14"
	colorGreen   = "10"
	colorRed     = "9"
	colorBlue    = "12"
	colorMagenta = "13"
	colorGray    = "245"
	colorOrange  = "220"
)

type styles struct {
	color bool

	banner    lipgloss.Style
	tagline   lipgloss.Style
	dim       lipgloss.Style
	success   lipgloss.Style
	warning   lipgloss.Style
	errorText lipgloss.Style

	scanned  lipgloss.Style
	matches  lipgloss.Style
	files    lipgloss.Style
	duration lipgloss.Style

	barFilled lipgloss.Style
	highlight lipgloss.Style
	preview   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			banner: plain, tagline: plain, dim: plain, success: plain, warning: plain, errorText: plain,
			scanned: plain, matches: plain, files: plain, duration: plain,
			barFilled: plain, highlight: plain, preview: plain,
		}
	}

	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return styles{
		color:     true,
		banner:    fg(colorCyan),
		tagline:   fg(colorWhite).Italic(true),
		dim:       fg(colorGray),
		success:   fg(colorGreen),
		warning:   fg(colorOrange),
		errorText: fg(colorRed),
		scanned:   fg(colorCyan),
		matches:   fg(colorGreen),
		files:     fg(colorYellow),
		duration:  fg(colorMagenta),
		barFilled: fg(colorGreen),
		highlight: fg(colorYellow).Bold(true).Underline(true),
		preview:   fg(colorGray).Italic(true),
	}
}

// rank returns the style for the given 1-based rank: gold, silver and
// bronze for the top three.
func (s styles) rank(n int) lipgloss.Style {
	if !s.color {
		return lipgloss.NewStyle()
	}
	switch n {
	case 1:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)).Bold(true)
	case 2:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite)).Bold(true)
	case 3:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorBronze)).Bold(true)
	default:
		return s.dim
	}
}

// fileName maps a category colour name to a bold style.
func (s styles) fileName(name string) lipgloss.Style {
	if !s.color {
		return lipgloss.NewStyle()
	}
	c := colorWhite
	switch name {
	case "cyan":
		c = colorCyan
	case "red":
		c = colorRed
	case "blue":
		c = colorBlue
	case "magenta":
		c = colorMagenta
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true)
}
