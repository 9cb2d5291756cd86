package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/spotskip/spotskip/internal/classifier"
)

var (
	accent  = lipgloss.Color("#1DB954")
	muted   = lipgloss.Color("#909090")
	warning = lipgloss.Color("#fbbf24")
	danger  = lipgloss.Color("#f87171")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle   = lipgloss.NewStyle().Foreground(muted).Width(20)
	subtleStyle  = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(accent)
	warningStyle = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
)

// field renders an aligned "label value" line
func field(label string, value any) string {
	return labelStyle.Render(label) + " " + fmt.Sprint(value)
}

// resultBadge colors a classification result
func resultBadge(r classifier.Result) string {
	switch r {
	case classifier.Advertisement:
		return errorStyle.Render(r.String())
	case classifier.Content:
		return successStyle.Render(r.String())
	default:
		return subtleStyle.Render(r.String())
	}
}
