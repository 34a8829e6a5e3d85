package tui

import "github.com/charmbracelet/lipgloss"

// Color Palette
// Single source of truth for all interface colors.
var (
	neonCyan    = lipgloss.Color("#7DF9FF") // headers and banners
	mintGreen   = lipgloss.Color("#A8E6CF") // success and active states
	amberYellow = lipgloss.Color("#FFD97D") // warnings
	softRed     = lipgloss.Color("#FF6B6B") // errors and inactive states
	mutedGray   = lipgloss.Color("#6B7280") // secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // primary text
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonCyan).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	valueStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	activeStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	inactiveStyle = lipgloss.NewStyle().
			Foreground(softRed).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(neonCyan)

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	menuBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonCyan).
			Padding(1, 3)

	menuTitleStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	menuSelectedStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Bold(true)

	menuHelpStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)
)

// Log line styles, keyed by entry severity.
var (
	logInfoStyle    = lipgloss.NewStyle().Foreground(brightWhite)
	logSuccessStyle = lipgloss.NewStyle().Foreground(mintGreen)
	logWarnStyle    = lipgloss.NewStyle().Foreground(amberYellow)
	logErrorStyle   = lipgloss.NewStyle().Foreground(softRed)
	logBannerStyle  = lipgloss.NewStyle().Foreground(neonCyan).Bold(true)
)
