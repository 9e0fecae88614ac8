package ui

import "github.com/charmbracelet/lipgloss"

// Fixed palette (Tokyo Night).
var (
	ColorBg      = lipgloss.Color("#1a1b26")
	ColorBorder  = lipgloss.Color("#414868")
	ColorText    = lipgloss.Color("#c0caf5")
	ColorTextDim = lipgloss.Color("#787fa0")
	ColorAccent  = lipgloss.Color("#7aa2f7")
	ColorGreen   = lipgloss.Color("#9ece6a")
	ColorYellow  = lipgloss.Color("#e0af68")
	ColorRed     = lipgloss.Color("#f7768e")
)

var (
	queryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(ColorText)

	selectedRowStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(ColorAccent).
				Foreground(ColorBg)

	digitStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	categoryStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	statusStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)
)
