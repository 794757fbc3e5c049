package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `╦ ╦╦ ╦╔╗╔╦╦╔═╦
║║║╚╦╝║║║║╠╩╗║
╚╩╝ ╩ ╝╚╝╩╩ ╩╩`

// View renders the dashboard
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, logoStyle.Width(m.width).Render(logo))

	if m.phase == PhaseTwoFactor {
		sections = append(sections, m.renderTwoFactorBanner(m.width-2))
	}

	width := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderCurrentPanel(width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderOrdersPanel(width),
		m.renderLogsPanel(width),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to stop the crawl"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTwoFactorBanner(width int) string {
	lines := []string{
		warningStyle.Render("TWO-FACTOR AUTHENTICATION REQUIRED"),
		"Enter the SMS code in the browser window for " + m.twoFactorAccount,
	}
	if !m.twoFactorDeadline.IsZero() {
		remaining := m.twoFactorDeadline.Sub(m.clock())
		lines = append(lines, dimStyle.Render("Time left: "+formatDuration(remaining)))
	}
	return alertPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" CRAWL ")

	total := "?"
	if m.total > 0 {
		total = fmt.Sprintf("%d", m.total)
	}

	stats := []string{
		stat("Phase:", m.spinner.View()+" "+string(m.phase)),
		stat("Elapsed:", formatDuration(m.clock().Sub(m.startTime))),
		stat("Orders:", fmt.Sprintf("%d/%s", m.Completed(), total)),
		stat("Files saved:", fmt.Sprintf("%d (%s)", m.saved, FormatBytes(m.bytes))),
	}
	if m.phase == PhaseScanning {
		stats = append(stats, stat("Pages scanned:", fmt.Sprintf("%d", m.pagesScanned)))
	}
	if m.failed > 0 {
		stats = append(stats, errorStyle.Render(fmt.Sprintf("%d downloads failed", m.failed)))
	}

	bar := m.progress
	bar.Width = width - 6
	stats = append(stats, "", bar.ViewAs(m.Percent()))

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(stats, "\n")),
	)
}

func stat(label, value string) string {
	return statsLabelStyle.Render(label) + " " + statsValueStyle.Render(value)
}

func (m Model) renderCurrentPanel(width int) string {
	title := titleStyle.Render(" CURRENT ORDER ")

	if m.current == nil {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("No order open")),
		)
	}

	o := m.current
	id := o.Identifier
	if id == "" {
		id = "identifying..."
	}
	lines := []string{
		stat("Order:", fmt.Sprintf("%d/%d", o.Index, m.total)),
		stat("Identifier:", id),
		stat("Files:", fmt.Sprintf("%d saved, %d failed", o.Saved, o.Failed)),
		dimStyle.Render(truncate(string(o.Ref), width-4)),
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

func (m Model) renderOrdersPanel(width int) string {
	title := titleStyle.Render(" ORDERS ")

	recent := m.RecentOrders(8)
	if len(recent) == 0 {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("No orders yet")),
		)
	}

	var rows []string
	for _, o := range recent {
		id := o.Identifier
		if id == "" {
			id = string(o.Ref)
		}
		line := fmt.Sprintf("%3d  %-24s %s", o.Index, truncate(id, 24), o.State)
		if o.State != OrderActive {
			line += fmt.Sprintf(" (%d files)", o.Saved)
		}
		rows = append(rows, stateStyle(o.State).Render(line))
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n")),
	)
}

func (m Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" ACTIVITY ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, truncate(log.Message, width-24)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = dimStyle.Render("No activity yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop the crawl and quit
    ctrl+l   - Clear the activity panel
    ?        - Toggle this help

  Orders:
    ` + successStyle.Render("done") + `      - Every file saved
    ` + warningStyle.Render("partial") + `   - Some downloads failed
    ` + errorStyle.Render("failed") + `    - The order could not be processed
`
	return panelStyle.Width(m.width - 2).Render(help)
}

// truncate shortens s to n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
