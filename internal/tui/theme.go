package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorGold    lipgloss.Color = "#FFD700"
	colorGreen   lipgloss.Color = "#a6e3a1"
	colorRed     lipgloss.Color = "#f38ba8"
	colorText    lipgloss.Color = "#cdd6f4"
	colorSubtext lipgloss.Color = "#a6adc8"
	colorOverlay lipgloss.Color = "#6c7086"
	colorSurface lipgloss.Color = "#313244"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGold)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			MarginTop(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface).
			Padding(0, 1)

	clientStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorSubtext)
	priceStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorGold)
	statusStyle = lipgloss.NewStyle().Foreground(colorGreen)

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	imageStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorOverlay).
			Foreground(colorSubtext).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Foreground(colorRed).
			Padding(0, 1)

	loadingStyle = lipgloss.NewStyle().Foreground(colorGold)
	keyStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	helpStyle    = lipgloss.NewStyle().Foreground(colorOverlay).MarginTop(1)
)
