package crawler

import (
	"wyniki/pkg/models"
	"wyniki/pkg/ui"
)

// DisplayObserver forwards crawl progress to the console display
type DisplayObserver struct {
	Display *ui.ProgressDisplay
}

// NewDisplayObserver wraps a progress display
func NewDisplayObserver(display *ui.ProgressDisplay) *DisplayObserver {
	return &DisplayObserver{Display: display}
}

func (o *DisplayObserver) PagesScanned(page, found int) { o.Display.ScanningPage(page, found) }

func (o *DisplayObserver) OrdersFound(total int) { o.Display.UpdateTotal(total) }

func (o *DisplayObserver) OrderStarted(index int, ref models.OrderRef) {
	o.Display.StartOrder(index, ref)
}

func (o *DisplayObserver) OrderIdentified(id string) { o.Display.Identified(id) }

func (o *DisplayObserver) ArtifactFinished(outcome models.DownloadOutcome) {
	o.Display.Artifact(outcome)
}

func (o *DisplayObserver) OrderFinished(result models.OrderResult) {
	o.Display.CompleteOrder(result)
}

var _ Observer = (*DisplayObserver)(nil)
