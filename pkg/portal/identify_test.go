package portal

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"wyniki/pkg/browser/browsertest"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.UTC)

func newTestIdentifier() *Identifier {
	return NewIdentifier(logger.NewNopLogger(), WithClock(func() time.Time { return fixedNow }))
}

func barcodeHTML(texts ...string) string {
	html := "<html><body><div>"
	for _, t := range texts {
		html += `<p class="MuiTypography-root MuiTypography-body2">` + t + "</p>"
	}
	return html + "</div></body></html>"
}

func TestIdentifyBarcodeElementWins(t *testing.T) {
	s := browsertest.New()
	s.SetElements(BarcodeText, browsertest.Text("Data: 2024-03-01"), browsertest.Text("  402337694L \n"))
	// A shape match elsewhere must not take precedence
	s.SetHTML(barcodeHTML("383634902L"))

	id := newTestIdentifier().Identify(context.Background(), s, "/zlecenia/abcdefghijklmnop")
	assert.Equal(t, "402337694L", id)
}

func TestIdentifyBarcodeShapeFallback(t *testing.T) {
	s := browsertest.New()
	s.SetQueryError(BarcodeText, errors.New("execution context destroyed"))
	s.SetHTML(barcodeHTML("Pacjent", "ABCL", "12L", "383634902L"))

	id := newTestIdentifier().Identify(context.Background(), s, "/zlecenia/abcdefghijklmnop")
	assert.Equal(t, "383634902L", id)
}

func TestIdentifyLocatorFallback(t *testing.T) {
	s := browsertest.New()
	s.SetElements(BarcodeText, browsertest.Text("Morfologia"))
	s.SetHTML(barcodeHTML("Morfologia"))

	id := newTestIdentifier().Identify(context.Background(), s, "/zlecenia/abcdefghijklmnop")
	assert.Equal(t, "order_abcdefghij_20240309_140507", id)
	assert.Regexp(t, regexp.MustCompile(`^order_.{10}_\d{8}_\d{6}$`), id)
}

func TestIdentifyShortLocatorSegment(t *testing.T) {
	id := newTestIdentifier().Identify(context.Background(), browsertest.New(), "/zlecenia/abc")
	assert.Equal(t, "order_abc_20240309_140507", id)
}

func TestIdentifyUnknownFallback(t *testing.T) {
	id := newTestIdentifier().Identify(context.Background(), browsertest.New(), "abc")
	assert.Equal(t, "unknown_20240309_140507_123456", id)
	assert.Regexp(t, regexp.MustCompile(`^unknown_\d{8}_\d{6}_\d{6}$`), id)
}

func TestIdentifyIsTotalOnClosedSession(t *testing.T) {
	s := browsertest.New()
	_ = s.Close()

	id := newTestIdentifier().Identify(context.Background(), s, "/a/b/c")
	assert.Equal(t, "order_c_20240309_140507", id)
}

func TestIdentifyCustomChain(t *testing.T) {
	i := NewIdentifier(logger.NewNopLogger(),
		WithClock(func() time.Time { return fixedNow }),
		WithStrategies(LocatorFragment{}),
	)
	// Falls through to the timestamp form when no strategy answers
	assert.Equal(t, "unknown_20240309_140507_123456", i.Identify(context.Background(), browsertest.New(), "x"))
}

func TestIdentifySanitizesSeparators(t *testing.T) {
	s := browsertest.New()
	s.SetElements(BarcodeText, browsertest.Text("40/23L"))

	id := newTestIdentifier().Identify(context.Background(), s, models.OrderRef("/x"))
	assert.Equal(t, "40_23L", id)
}

func TestIsBarcode(t *testing.T) {
	tests := map[string]bool{
		"402337694L": true,
		"12345L":     true,
		"1234L":      false,
		"40233769AL": false,
		"402337694":  false,
		"":           false,
	}
	for text, want := range tests {
		assert.Equal(t, want, isBarcode(text), text)
	}
}
