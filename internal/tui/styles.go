package tui

import "github.com/charmbracelet/lipgloss"

// The TUI must stay readable on both light and dark terminal backgrounds, so
// semantic colors are adaptive pairs rather than fixed hex values.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted     = ac("240", "243")
	colorAccent    = ac("26", "75")
	colorSuccess   = ac("28", "40")
	colorWarning   = ac("130", "214")
	colorError     = ac("124", "203")
	colorBorder    = ac("250", "238")
	colorSelBorder = ac("232", "255")
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	activeColumnStyle = columnStyle.
				BorderForeground(colorAccent)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	selectedCardStyle = cardStyle.
				BorderForeground(colorSelBorder).
				Bold(true)

	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)

	badgePending  = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	badgeApproved = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	badgeRejected = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	statusOKStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	statusErrStyle = lipgloss.NewStyle().Foreground(colorError)

	progressBarStyle   = lipgloss.NewStyle().Foreground(colorAccent)
	progressTrackStyle = lipgloss.NewStyle().Foreground(colorBorder)
)
