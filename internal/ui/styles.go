// Package ui renders command output: styled status lines, image listings
// as trees, tables, or machine-readable documents, and interactive prompts.
package ui

import "github.com/charmbracelet/lipgloss"

const (
	colorBlue   = "#639CFF"
	colorGreen  = "#3CC274"
	colorOrange = "#EF894F"
	colorYellow = "#F8D34C"
	colorGray   = "#9FA7B2"
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorBlue))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorOrange))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray))
	BoldStyle    = lipgloss.NewStyle().Bold(true)
)
