package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(16)

	StatusOK   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusWarn = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	StatusBad  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

// Row renders a label and value on one line.
func Row(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value)
}

// Box renders a titled panel around rows.
func Box(title string, rows ...string) string {
	return Panel.Render(Title.Render(title) + "\n" + strings.Join(rows, "\n"))
}

// DriftStatus colours a relative energy drift: green below 1e-6, amber below 1e-3.
func DriftStatus(drift float64, text string) string {
	switch {
	case drift < 1e-6:
		return StatusOK.Render(text)
	case drift < 1e-3:
		return StatusWarn.Render(text)
	default:
		return StatusBad.Render(text)
	}
}

// ProgressBar renders a bar percent full, clamped to [0, 1].
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(width, filled))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if percent >= 1 {
		return StatusOK.Render(bar)
	}
	return StatusWarn.Render(bar)
}
