// Package theme holds the shared lipgloss styles of the command-line
// tools.
package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
)

// TitleStyle is used for the tool banner.
var TitleStyle = lipgloss.NewStyle().Bold(true)

// SuccessStyle marks a completed operation.
var SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)

// WarnStyle marks non-fatal problems, like a failed smoke test.
var WarnStyle = lipgloss.NewStyle().Foreground(ColorYellow)

// ErrorStyle marks fatal failures.
var ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

// URLStyle highlights URLs the operator is expected to open.
var URLStyle = lipgloss.NewStyle().Underline(true).Foreground(ColorBlue)

// SubtleStyle is for secondary detail lines.
var SubtleStyle = lipgloss.NewStyle().Foreground(ColorGray)

// PriorityStyle returns a color-coded style for a Jira priority name.
func PriorityStyle(priority string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case "Blocker":
		return base.Foreground(ColorRed)
	case "Highest", "High":
		return base.Foreground(ColorYellow)
	case "Normal":
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}
