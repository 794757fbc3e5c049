package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"wyniki/pkg/models"
)

// TUI is a full-screen crawl dashboard. It receives crawl progress and the
// two-factor prompt and forwards them to the bubbletea program.
type TUI struct {
	program          *tea.Program
	model            *Model
	twoFactorTimeout time.Duration
}

// NewTUI creates a dashboard; onQuit runs when the user presses q
func NewTUI(twoFactorTimeout time.Duration, onQuit func(), opts ...tea.ProgramOption) *TUI {
	model := NewModel(onQuit)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)

	return &TUI{
		program:          tea.NewProgram(&model, opts...),
		model:            &model,
		twoFactorTimeout: twoFactorTimeout,
	}
}

// Start runs the dashboard until Stop is called or the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the dashboard gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the dashboard
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// PromptTwoFactor shows the SMS code banner
func (t *TUI) PromptTwoFactor(_ context.Context, accountID string) {
	t.Send(TwoFactorMsg{AccountID: accountID, Deadline: time.Now().Add(t.twoFactorTimeout)})
}

// TwoFactorCompleted hides the SMS code banner
func (t *TUI) TwoFactorCompleted(context.Context) {
	t.Send(PhaseMsg{Phase: PhaseScanning})
	t.LogSuccess("Two-factor authentication completed")
}

func (t *TUI) PagesScanned(page, found int) { t.Send(PageScannedMsg{Page: page, Found: found}) }

func (t *TUI) OrdersFound(total int) { t.Send(OrdersFoundMsg{Total: total}) }

func (t *TUI) OrderStarted(index int, ref models.OrderRef) {
	t.Send(OrderStartMsg{Index: index, Ref: ref})
}

func (t *TUI) OrderIdentified(id string) { t.Send(OrderIdentifiedMsg{ID: id}) }

func (t *TUI) ArtifactFinished(outcome models.DownloadOutcome) {
	t.Send(ArtifactMsg{Outcome: outcome})
}

func (t *TUI) OrderFinished(result models.OrderResult) { t.Send(OrderDoneMsg{Result: result}) }

// Finish reports the end of the crawl
func (t *TUI) Finish(err error) {
	t.Send(FinishedMsg{Err: err})
}

// Log sends a log message to the dashboard
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}
