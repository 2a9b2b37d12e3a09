// Package ui provides the optional inline status display for a
// running server.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - consistent across the application
var (
	ColorPrimary = lipgloss.Color("39")  // Bright blue
	ColorSuccess = lipgloss.Color("82")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red

	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	OKStyle = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	ErrStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	LogStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)
)
