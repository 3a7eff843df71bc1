package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the lipgloss styles for the idle TUI.
type Styles struct {
	// Layout
	App   lipgloss.Style
	Title lipgloss.Style

	// Timer state indicators
	StateArmed   lipgloss.Style
	StateIdle    lipgloss.Style
	StateCleared lipgloss.Style

	// Input
	InputPrompt lipgloss.Style

	// Misc
	Muted lipgloss.Style
	Error lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("111")),

		StateArmed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")), // Muted yellow
		StateIdle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")), // Muted green
		StateCleared: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")), // Gray

		InputPrompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("167")),
	}
}
