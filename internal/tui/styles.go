package tui

import "github.com/charmbracelet/lipgloss"

// Color palette (ANSI 256).
const (
	ColorHeader   = lipgloss.Color("39")
	ColorLabel    = lipgloss.Color("245")
	ColorValue    = lipgloss.Color("252")
	ColorInfo     = lipgloss.Color("33")
	ColorOK       = lipgloss.Color("42")
	ColorWarning  = lipgloss.Color("214")
	ColorCritical = lipgloss.Color("196")
	ColorSubtle   = lipgloss.Color("240")
	ColorBorder   = lipgloss.Color("63")
	ColorFocus    = lipgloss.Color("205")
)

// Shared styles.
var (
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle    = lipgloss.NewStyle().Foreground(ColorValue)
	InfoStyle     = lipgloss.NewStyle().Foreground(ColorInfo)
	OKStyle       = lipgloss.NewStyle().Foreground(ColorOK)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	CriticalStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorCritical)
	SubtleStyle   = lipgloss.NewStyle().Foreground(ColorSubtle)
	SpinnerStyle  = lipgloss.NewStyle().Foreground(ColorFocus)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	FocusedBoxStyle = BoxStyle.BorderForeground(ColorFocus)
)

// StateStyle returns the badge style for a lifecycle state name.
func StateStyle(name string) lipgloss.Style {
	switch name {
	case "dataLoaded":
		return OKStyle
	case "loading":
		return InfoStyle
	case "error":
		return CriticalStyle
	default:
		return SubtleStyle
	}
}
