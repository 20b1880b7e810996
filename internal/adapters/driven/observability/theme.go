// Package observability provides console and Prometheus implementations of
// the sourcing tracer and reporter ports.
package observability

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for console output.
type Theme struct {
	// Namespace colours the "storefront-source/<shop>" prefix.
	Namespace lipgloss.Color

	// Error colours the error badge.
	Error lipgloss.Color

	// Muted is for durations and payload dumps.
	Muted lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Namespace: lipgloss.Color("#89B4FA"), // Blue
		Error:     lipgloss.Color("#F38BA8"), // Red
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
	}
}

// Styles contains the lipgloss styles used by Console.
type Styles struct {
	// Namespace renders the message prefix.
	Namespace lipgloss.Style

	// Badge renders the "error" marker.
	Badge lipgloss.Style

	// Muted renders secondary text.
	Muted lipgloss.Style
}

// NewStyles creates styles from a theme. With colour disabled every style
// renders its input unchanged.
func NewStyles(theme *Theme, colour bool) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	if !colour {
		return &Styles{
			Namespace: lipgloss.NewStyle(),
			Badge:     lipgloss.NewStyle(),
			Muted:     lipgloss.NewStyle(),
		}
	}
	return &Styles{
		Namespace: lipgloss.NewStyle().Foreground(theme.Namespace),
		Badge:     lipgloss.NewStyle().Foreground(theme.Error).Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(theme.Muted),
	}
}
