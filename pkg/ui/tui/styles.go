package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accent    = lipgloss.Color("#00B3A4")
	accentAlt = lipgloss.Color("#5FD7FF")
	okGreen   = lipgloss.Color("#5FD75F")
	warnAmber = lipgloss.Color("#FFAF00")
	failRed   = lipgloss.Color("#FF5F5F")
	panelBg   = lipgloss.Color("#1C1C24")
	dimWhite  = lipgloss.Color("#B0B0B0")
	faintGray = lipgloss.Color("#666666")

	logoStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	alertPanelStyle = panelStyle.
			BorderForeground(warnAmber)

	titleStyle = lipgloss.NewStyle().
			Background(accent).
			Foreground(panelBg).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(accentAlt).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	successStyle = lipgloss.NewStyle().
			Foreground(okGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(failRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warnAmber).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(faintGray)

	helpStyle = lipgloss.NewStyle().
			Foreground(faintGray).
			Padding(1, 0, 0, 2)
)

// levelColor maps a log level to its label color
func levelColor(level string) lipgloss.Color {
	switch level {
	case "ERROR":
		return failRed
	case "WARN":
		return warnAmber
	case "SUCCESS":
		return okGreen
	default:
		return accentAlt
	}
}

// stateStyle returns the style an order row is drawn with
func stateStyle(s OrderState) lipgloss.Style {
	switch s {
	case OrderDone:
		return successStyle
	case OrderPartial, OrderEmpty:
		return warningStyle
	case OrderFailed:
		return errorStyle
	case OrderActive:
		return statsValueStyle.Bold(true)
	default:
		return dimStyle
	}
}
