package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"wyniki/pkg/browser"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

// Strategy derives an order identifier, reporting ok=false when it has no
// answer
type Strategy interface {
	Name() string
	Identify(ctx context.Context, s browser.Session, ref models.OrderRef, now time.Time) (string, bool)
}

// Identifier runs strategies in priority order
type Identifier struct {
	strategies []Strategy
	clock      func() time.Time
	logger     logger.Logger
}

// IdentifierOption customizes an Identifier
type IdentifierOption func(*Identifier)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) IdentifierOption {
	return func(i *Identifier) { i.clock = clock }
}

// WithStrategies replaces the default chain
func WithStrategies(strategies ...Strategy) IdentifierOption {
	return func(i *Identifier) { i.strategies = strategies }
}

// DefaultStrategies is barcode element, barcode shape, locator, timestamp
func DefaultStrategies() []Strategy {
	return []Strategy{
		BarcodeElement{},
		BarcodeShape{},
		LocatorFragment{},
		Timestamp{},
	}
}

// NewIdentifier creates an identifier with the default chain
func NewIdentifier(log logger.Logger, opts ...IdentifierOption) *Identifier {
	if log == nil {
		log = logger.GetLogger()
	}
	i := &Identifier{
		strategies: DefaultStrategies(),
		clock:      time.Now,
		logger:     log.WithField("component", "identify"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Identify always returns an identifier
func (i *Identifier) Identify(ctx context.Context, s browser.Session, ref models.OrderRef) string {
	now := i.clock()
	for _, strategy := range i.strategies {
		if id, ok := strategy.Identify(ctx, s, ref, now); ok {
			i.logger.DebugWithFields("Order identified", map[string]interface{}{
				"order":    string(ref),
				"strategy": strategy.Name(),
				"id":       id,
			})
			return sanitizeIdentifier(id)
		}
	}
	return Timestamp{}.derive(now)
}

func sanitizeIdentifier(id string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(id)
}

// BarcodeElement reads the live barcode paragraphs and takes the first one
// ending in L
type BarcodeElement struct{}

func (BarcodeElement) Name() string { return "barcode_element" }

func (BarcodeElement) Identify(ctx context.Context, s browser.Session, _ models.OrderRef, _ time.Time) (string, bool) {
	texts, err := s.Texts(ctx, BarcodeText)
	if err != nil {
		return "", false
	}
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if strings.HasSuffix(text, "L") {
			return text, true
		}
	}
	return "", false
}

// BarcodeShape scans a snapshot of the page for a paragraph shaped like a
// barcode: digits followed by L, longer than five characters
type BarcodeShape struct{}

func (BarcodeShape) Name() string { return "barcode_shape" }

func (BarcodeShape) Identify(ctx context.Context, s browser.Session, _ models.OrderRef, _ time.Time) (string, bool) {
	html, err := s.HTML(ctx)
	if err != nil || html == "" {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	var found string
	doc.Find(BarcodeText).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if isBarcode(text) {
			found = text
			return false
		}
		return true
	})
	return found, found != ""
}

func isBarcode(text string) bool {
	if len(text) <= 5 || !strings.HasSuffix(text, "L") {
		return false
	}
	for _, r := range text[:len(text)-1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LocatorFragment builds order_<first 10 chars of last segment>_<timestamp>
// from a reference with more than two path segments
type LocatorFragment struct{}

func (LocatorFragment) Name() string { return "locator" }

func (LocatorFragment) Identify(_ context.Context, _ browser.Session, ref models.OrderRef, now time.Time) (string, bool) {
	parts := strings.Split(string(ref), "/")
	if len(parts) <= 2 {
		return "", false
	}
	fragment := parts[len(parts)-1]
	if len(fragment) > 10 {
		fragment = fragment[:10]
	}
	return fmt.Sprintf("order_%s_%s", fragment, now.Format("20060102_150405")), true
}

// Timestamp is the last resort: unknown_<timestamp>_<microseconds>
type Timestamp struct{}

func (Timestamp) Name() string { return "timestamp" }

func (t Timestamp) Identify(_ context.Context, _ browser.Session, _ models.OrderRef, now time.Time) (string, bool) {
	return t.derive(now), true
}

func (Timestamp) derive(now time.Time) string {
	return fmt.Sprintf("unknown_%s_%06d", now.Format("20060102_150405"), now.Nanosecond()/1000)
}
