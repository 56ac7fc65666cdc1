package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Header   lipgloss.Style
	Subtitle lipgloss.Style
	Prompt   lipgloss.Style
	Help     lipgloss.Style
	Accent   lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Success  lipgloss.Style
	Thinking lipgloss.Style
	Subtle   lipgloss.Style
	Removed  lipgloss.Style
	Added    lipgloss.Style
	Path     lipgloss.Style
}

func NewStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555")).
			Faint(true).
			Padding(0, 1),

		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Padding(0, 1),

		Prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AD8CFF")).
			Bold(true),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777")),

		Accent: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AD8CFF")),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5C5C")).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C")),

		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3DDC97")).
			Bold(true),

		Thinking: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3DDC97")),

		Subtle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")),

		Removed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5C5C")),

		Added: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3DDC97")),

		Path: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00E6B8")).
			Bold(true),
	}
}
