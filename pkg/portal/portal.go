package portal

import (
	"strings"
	"time"

	"wyniki/pkg/browser"
	"wyniki/pkg/config"
	"wyniki/pkg/models"
)

// Login form
const (
	AccountIDInput = "input[name='accountId']"
	PasswordInput  = "input[name='password']"
	SubmitButton   = "button[data-cy='submit-account-btn']"
)

// Order list
const (
	OrderLink      = "a[data-cy='view-result-btn']"
	NextPageButton = "button[data-cy='pagination-next']:not([disabled])"
)

// Order detail view
const (
	BarcodeText     = "p.MuiTypography-body2"
	OpenTestsButton = "button[data-cy='get-tests-btn']"
	XMLButton       = "button[data-cy='download-file-btn-Xml']"
	PDFButton       = "button[data-cy='download-file-btn-Pdf']"
	CSVButton       = "button[aria-label='Pobierz listę badań']"
	CloseButton     = "button[aria-label='close']"
	CloseButtonText = "//button[contains(., 'Zamknij')]"
)

// Locations the login flow can land on
var (
	TwoFactorPage = browser.NewURLPattern("**/uwierzytelnianie-dwuskladnikowe**")
	OrdersPage    = browser.NewURLPattern("**/zlecenia**")
)

// DownloadSelectors maps each artifact kind to its button group
var DownloadSelectors = map[models.ArtifactKind]string{
	models.ArtifactXML: XMLButton,
	models.ArtifactPDF: PDFButton,
	models.ArtifactCSV: CSVButton,
}

// Timing holds every wait bound and settling delay used against the portal
type Timing struct {
	RedirectTimeout  time.Duration
	TwoFactorTimeout time.Duration
	ConfirmTimeout   time.Duration
	RowsTimeout      time.Duration
	DialogTimeout    time.Duration
	DownloadTimeout  time.Duration

	LoginSettle  time.Duration
	PageSettle   time.Duration
	DialogSettle time.Duration
	ClickSettle  time.Duration
	CloseSettle  time.Duration
	OrderPacing  time.Duration
}

// DefaultTiming returns the timings the portal is known to need
func DefaultTiming() Timing {
	return TimingFromConfig(config.DefaultConfig())
}

// TimingFromConfig reads timings from the application config
func TimingFromConfig(cfg *config.Config) Timing {
	return Timing{
		RedirectTimeout:  cfg.Timeouts.Redirect,
		TwoFactorTimeout: cfg.Timeouts.TwoFactor,
		ConfirmTimeout:   cfg.Timeouts.Confirm,
		RowsTimeout:      cfg.Timeouts.Rows,
		DialogTimeout:    cfg.Timeouts.Dialog,
		DownloadTimeout:  cfg.Timeouts.Download,
		LoginSettle:      cfg.Delays.LoginSettle,
		PageSettle:       cfg.Delays.PageSettle,
		DialogSettle:     cfg.Delays.DialogSettle,
		ClickSettle:      cfg.Delays.ClickSettle,
		CloseSettle:      cfg.Delays.CloseSettle,
		OrderPacing:      cfg.Delays.OrderPacing,
	}
}

// ResolveOrderURL turns an order reference into an absolute address
func ResolveOrderURL(baseURL string, ref models.OrderRef) string {
	r := string(ref)
	if strings.HasPrefix(r, "http://") || strings.HasPrefix(r, "https://") {
		return r
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(r, "/")
}
