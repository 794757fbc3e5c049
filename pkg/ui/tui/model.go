package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"wyniki/pkg/models"
)

// OrderState is where an order is in the crawl
type OrderState int

const (
	OrderPending OrderState = iota
	OrderActive
	OrderDone
	OrderPartial
	OrderEmpty
	OrderFailed
)

func (s OrderState) String() string {
	switch s {
	case OrderActive:
		return "active"
	case OrderDone:
		return "done"
	case OrderPartial:
		return "partial"
	case OrderEmpty:
		return "no files"
	case OrderFailed:
		return "failed"
	default:
		return "pending"
	}
}

// OrderItem is one row of the order list
type OrderItem struct {
	Index      int
	Ref        models.OrderRef
	Identifier string
	State      OrderState
	Saved      int
	Failed     int
	StartTime  time.Time
	Duration   time.Duration
	Reason     string
}

// Phase is the step the crawl is currently in
type Phase string

const (
	PhaseLogin     Phase = "Logging in"
	PhaseTwoFactor Phase = "Waiting for SMS code"
	PhaseScanning  Phase = "Scanning order list"
	PhaseOrders    Phase = "Downloading results"
	PhaseDone      Phase = "Crawl finished"
	PhaseFailed    Phase = "Crawl failed"
)

// Model holds the dashboard state; bubbletea serializes Update and View
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	phase             Phase
	twoFactorAccount  string
	twoFactorDeadline time.Time
	pagesScanned      int

	orders  []*OrderItem
	current *OrderItem
	total   int

	saved     int
	failed    int
	bytes     int64
	startTime time.Time

	width       int
	height      int
	showHelp    bool
	logMessages []LogMessage
	maxLogs     int

	onQuit func()
	clock  func() time.Time
}

// LogMessage is one line of the activity panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a dashboard; onQuit runs when the user quits
func NewModel(onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	return Model{
		spinner:   s,
		progress:  progress.New(progress.WithGradient(string(accent), string(okGreen))),
		phase:     PhaseLogin,
		startTime: time.Now(),
		maxLogs:   50,
		onQuit:    onQuit,
		clock:     time.Now,
	}
}

// Init starts the spinner and the refresh tick
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// SetPhase moves the crawl to another step
func (m *Model) SetPhase(p Phase) {
	m.phase = p
	if p != PhaseTwoFactor {
		m.twoFactorAccount = ""
		m.twoFactorDeadline = time.Time{}
	}
}

// AwaitTwoFactor shows the SMS code banner until the deadline
func (m *Model) AwaitTwoFactor(accountID string, deadline time.Time) {
	m.SetPhase(PhaseTwoFactor)
	m.twoFactorAccount = accountID
	m.twoFactorDeadline = deadline
}

// ScanPage records a page of the order list
func (m *Model) ScanPage(page, found int) {
	if m.phase != PhaseScanning {
		m.SetPhase(PhaseScanning)
	}
	m.pagesScanned = page
	m.AddLogMessage("INFO", fmt.Sprintf("Found %d orders on page %d", found, page))
}

// SetTotal records the number of orders discovered
func (m *Model) SetTotal(total int) {
	m.total = total
	m.SetPhase(PhaseOrders)
	m.AddLogMessage("INFO", fmt.Sprintf("Collected %d order links", total))
}

// StartOrder marks the order at index (1-based) active
func (m *Model) StartOrder(index int, ref models.OrderRef) {
	item := &OrderItem{Index: index, Ref: ref, State: OrderActive, StartTime: m.clock()}
	m.orders = append(m.orders, item)
	m.current = item
}

// IdentifyOrder names the active order
func (m *Model) IdentifyOrder(id string) {
	if m.current == nil {
		return
	}
	m.current.Identifier = id
}

// RecordArtifact counts one download button outcome
func (m *Model) RecordArtifact(o models.DownloadOutcome) {
	if o.Saved() {
		m.saved++
		m.bytes += int64(o.Size)
		if m.current != nil {
			m.current.Saved++
		}
		m.AddLogMessage("SUCCESS", fmt.Sprintf("Saved %s: %s", o.Kind, o.Filename))
		return
	}

	m.failed++
	if m.current != nil {
		m.current.Failed++
	}
	m.AddLogMessage("ERROR", fmt.Sprintf("Failed to download %s %d: %s", o.Kind, o.Index+1, o.Reason))
}

// FinishOrder settles the active order's state
func (m *Model) FinishOrder(r models.OrderResult) {
	item := m.current
	if item == nil || item.Ref != r.Ref {
		return
	}
	if r.Identifier != "" {
		item.Identifier = r.Identifier
	}
	item.Duration = m.clock().Sub(item.StartTime)
	item.Reason = r.Reason

	switch {
	case r.Err != nil:
		item.State = OrderFailed
		m.AddLogMessage("ERROR", fmt.Sprintf("Error downloading files for order %s: %s", item.Identifier, r.Reason))
	case r.SoftFailure():
		item.State = OrderEmpty
		m.AddLogMessage("WARN", "No files downloaded for order "+item.Identifier)
	case r.FailedCount() > 0:
		item.State = OrderPartial
	default:
		item.State = OrderDone
	}
	m.current = nil
}

// Finish records the end of the crawl
func (m *Model) Finish(err error) {
	if err != nil {
		m.SetPhase(PhaseFailed)
		m.AddLogMessage("ERROR", err.Error())
		return
	}
	m.SetPhase(PhaseDone)
	m.AddLogMessage("SUCCESS", fmt.Sprintf("Crawl completed: %d files from %d orders", m.saved, len(m.orders)))
}

// Completed returns the number of orders already processed
func (m *Model) Completed() int {
	n := 0
	for _, o := range m.orders {
		if o.State != OrderActive && o.State != OrderPending {
			n++
		}
	}
	return n
}

// Percent is the share of discovered orders already processed
func (m *Model) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	p := float64(m.Completed()) / float64(m.total)
	if p > 1 {
		p = 1
	}
	return p
}

// RecentOrders returns up to n of the latest orders, newest last
func (m *Model) RecentOrders(n int) []*OrderItem {
	if len(m.orders) <= n {
		return m.orders
	}
	return m.orders[len(m.orders)-n:]
}

// AddLogMessage appends a line to the activity panel
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    m.clock(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})

	if len(m.logMessages) > m.maxLogs {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogs:]
	}
}

// FormatBytes formats bytes to human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
