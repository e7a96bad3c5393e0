// Package styles provides the styling for the CLI's terminal output.
package styles

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorPrimary = lipgloss.Color("#00cc6a")
	ColorError   = lipgloss.Color("#f43843")
	ColorWarning = lipgloss.Color("#ffb224")
	ColorInfo    = lipgloss.Color("#1ac5ff")
	ColorMuted   = lipgloss.Color("#8a8a8a")
)

// Theme contains the composed styles for the publish report.
var Theme = struct {
	Title   lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Key     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
	Body:    lipgloss.NewStyle(),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
	Error:   lipgloss.NewStyle().Bold(true).Foreground(ColorError),
	Warning: lipgloss.NewStyle().Bold(true).Foreground(ColorWarning),
	Info:    lipgloss.NewStyle().Foreground(ColorInfo),
	Key:     lipgloss.NewStyle().Bold(true),
}
