package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"wyniki/pkg/models"
)

// Message types for the dashboard

// PhaseMsg moves the crawl to another step
type PhaseMsg struct {
	Phase Phase
}

// TwoFactorMsg shows the SMS code banner
type TwoFactorMsg struct {
	AccountID string
	Deadline  time.Time
}

// PageScannedMsg is sent for each page of the order list
type PageScannedMsg struct {
	Page  int
	Found int
}

// OrdersFoundMsg is sent once enumeration has finished
type OrdersFoundMsg struct {
	Total int
}

// OrderStartMsg is sent when an order is opened
type OrderStartMsg struct {
	Index int
	Ref   models.OrderRef
}

// OrderIdentifiedMsg carries the identifier chosen for the active order
type OrderIdentifiedMsg struct {
	ID string
}

// ArtifactMsg carries the outcome of one download button
type ArtifactMsg struct {
	Outcome models.DownloadOutcome
}

// OrderDoneMsg is sent when an order has been processed
type OrderDoneMsg struct {
	Result models.OrderResult
}

// FinishedMsg is sent when the crawl returns
type FinishedMsg struct {
	Err error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg refreshes elapsed times
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case PhaseMsg:
		m.SetPhase(msg.Phase)
		return m, nil

	case TwoFactorMsg:
		m.AwaitTwoFactor(msg.AccountID, msg.Deadline)
		m.AddLogMessage("WARN", "Enter the SMS code in the browser window")
		return m, nil

	case PageScannedMsg:
		m.ScanPage(msg.Page, msg.Found)
		return m, nil

	case OrdersFoundMsg:
		m.SetTotal(msg.Total)
		return m, nil

	case OrderStartMsg:
		m.StartOrder(msg.Index, msg.Ref)
		return m, nil

	case OrderIdentifiedMsg:
		m.IdentifyOrder(msg.ID)
		m.AddLogMessage("INFO", "Processing order: "+msg.ID)
		return m, nil

	case ArtifactMsg:
		m.RecordArtifact(msg.Outcome)
		return m, nil

	case OrderDoneMsg:
		m.FinishOrder(msg.Result)
		return m, nil

	case FinishedMsg:
		m.Finish(msg.Err)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
