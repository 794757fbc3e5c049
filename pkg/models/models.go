package models

import (
	"fmt"
	"time"
)

// Credentials is the portal login pair supplied once per crawl
type Credentials struct {
	AccountID string `json:"account_id"`
	Password  string `json:"-"`
}

// String masks both halves so credentials can never leak into logs
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{AccountID: %s, Password: ********}", c.MaskedAccountID())
}

// MaskedAccountID keeps only the last three characters of the account ID
func (c Credentials) MaskedAccountID() string {
	r := []rune(c.AccountID)
	if len(r) <= 3 {
		return "***"
	}
	return "***" + string(r[len(r)-3:])
}

// Valid reports whether both halves of the pair are present
func (c Credentials) Valid() bool {
	return c.AccountID != "" && c.Password != ""
}

// OrderRef is the relative locator of one order's detail view
type OrderRef string

// ArtifactKind is the type of a downloadable result document
type ArtifactKind int

const (
	ArtifactXML ArtifactKind = iota
	ArtifactPDF
	ArtifactCSV
)

// ArtifactKinds lists the kinds in the order they are attempted
var ArtifactKinds = []ArtifactKind{ArtifactXML, ArtifactPDF, ArtifactCSV}

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactXML:
		return "XML"
	case ArtifactPDF:
		return "PDF"
	case ArtifactCSV:
		return "CSV"
	default:
		return fmt.Sprintf("ArtifactKind(%d)", int(k))
	}
}

// Extension returns the file extension without the dot
func (k ArtifactKind) Extension() string {
	switch k {
	case ArtifactXML:
		return "xml"
	case ArtifactPDF:
		return "pdf"
	case ArtifactCSV:
		return "csv"
	default:
		return "bin"
	}
}

// MarshalText renders the kind as its name in manifests
func (k ArtifactKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name
func (k *ArtifactKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "XML":
		*k = ArtifactXML
	case "PDF":
		*k = ArtifactPDF
	case "CSV":
		*k = ArtifactCSV
	default:
		return fmt.Errorf("unknown artifact kind %q", string(text))
	}
	return nil
}

// ArtifactFilename builds <identifier><suffix>.<ext>; the suffix is only
// present when the order exposes more than one button of the kind
func ArtifactFilename(identifier string, kind ArtifactKind, index, count int) string {
	suffix := ""
	if count > 1 {
		suffix = fmt.Sprintf("_%s%d", kind.Extension(), index+1)
	}
	return fmt.Sprintf("%s%s.%s", identifier, suffix, kind.Extension())
}

// DownloadOutcome is the result of one download button
type DownloadOutcome struct {
	Order      OrderRef      `json:"order"`
	Identifier string        `json:"identifier"`
	Kind       ArtifactKind  `json:"kind"`
	Index      int           `json:"index"`
	Filename   string        `json:"filename"`
	Path       string        `json:"path,omitempty"`
	Size       int           `json:"size,omitempty"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
	Reason     string        `json:"reason,omitempty"`
}

// Saved reports whether the artifact was persisted
func (o DownloadOutcome) Saved() bool {
	return o.Err == nil && o.Path != ""
}

// OrderResult collects everything that happened to one order
type OrderResult struct {
	Ref        OrderRef          `json:"ref"`
	Identifier string            `json:"identifier"`
	Outcomes   []DownloadOutcome `json:"outcomes"`
	Err        error             `json:"-"`
	Reason     string            `json:"reason,omitempty"`
}

// SavedCount returns the number of artifacts written for the order
func (r OrderResult) SavedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Saved() {
			n++
		}
	}
	return n
}

// FailedCount returns the number of artifact attempts that failed
func (r OrderResult) FailedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Saved() {
			n++
		}
	}
	return n
}

// SoftFailure reports an order that was processed but produced no files
func (r OrderResult) SoftFailure() bool {
	return r.SavedCount() == 0
}

// CrawlSummary is the terminal report of one crawl
type CrawlSummary struct {
	RunID               string        `json:"run_id"`
	StartedAt           time.Time     `json:"started_at"`
	FinishedAt          time.Time     `json:"finished_at"`
	OrdersDiscovered    int           `json:"orders_discovered"`
	OrdersWithArtifacts int           `json:"orders_with_artifacts"`
	ArtifactsSaved      int           `json:"artifacts_saved"`
	ArtifactsFailed     int           `json:"artifacts_failed"`
	OrderFailures       int           `json:"order_failures"`
	Orders              []OrderResult `json:"orders"`
}

// Record folds one processed order into the totals
func (s *CrawlSummary) Record(result OrderResult) {
	s.Orders = append(s.Orders, result)
	saved := result.SavedCount()
	s.ArtifactsSaved += saved
	s.ArtifactsFailed += result.FailedCount()
	if saved > 0 {
		s.OrdersWithArtifacts++
	}
	if result.Err != nil {
		s.OrderFailures++
	}
}

// Duration returns how long the crawl ran
func (s *CrawlSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
