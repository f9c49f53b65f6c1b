package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
const (
	ColorCyan     = "14"
	ColorCyanDim  = "30"
	ColorWhite    = "255"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// Styles holds the lipgloss styles used by the renderers and the selector.
type Styles struct {
	Header   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Dim      lipgloss.Style
	Active   lipgloss.Style
	Label    lipgloss.Style
	Selected lipgloss.Style
	Hint     lipgloss.Style
}

// DefaultStyles returns colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorCyan)),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorCyan)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorCyan)),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)).Background(lipgloss.Color(ColorCyanDim)),
		Hint:     lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color(ColorCyan)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:   plain,
		Success:  plain,
		Warning:  plain,
		Dim:      plain,
		Active:   plain,
		Label:    plain,
		Selected: plain,
		Hint:     plain,
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
