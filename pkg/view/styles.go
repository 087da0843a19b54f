// Package view renders planning data for the terminal.
package view

import "github.com/charmbracelet/lipgloss"

var (
	Accent  = lipgloss.Color("#2196F3")
	Danger  = lipgloss.Color("#e53935")
	Success = lipgloss.Color("#8BC34A")
	Muted   = lipgloss.Color("#8a8f98")
)

// Styles groups the lipgloss styles used by a Renderer.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Bold  lipgloss.Style
	Body  lipgloss.Style
	Muted lipgloss.Style
	Late  lipgloss.Style
	OK    lipgloss.Style
}

// DefaultStyles returns the standard style set.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Label: lipgloss.NewStyle().Foreground(Muted),
		Value: lipgloss.NewStyle().Bold(true),
		Bold:  lipgloss.NewStyle().Bold(true),
		Body:  lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle().Foreground(Muted),
		Late:  lipgloss.NewStyle().Foreground(Danger).Bold(true),
		OK:    lipgloss.NewStyle().Foreground(Success),
	}
}
