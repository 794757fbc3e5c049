package browser

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

// ErrTimeout is returned when a bounded wait expires
var ErrTimeout = errors.New("browser: wait timed out")

// ErrNoElement is returned when an action targets a selector with no match
var ErrNoElement = errors.New("browser: no matching element")

// Session is one live browser tab driven by the crawler. Selectors
// beginning with "//" are XPath, everything else is CSS.
type Session interface {
	// Navigate loads url and waits until the network has been idle for the
	// configured quiet period
	Navigate(ctx context.Context, url string) error
	// URL returns the current location
	URL(ctx context.Context) (string, error)
	// WaitURL blocks until the location matches one of patterns and returns
	// the index of the pattern that matched
	WaitURL(ctx context.Context, timeout time.Duration, patterns ...URLPattern) (int, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Count(ctx context.Context, selector string) (int, error)
	// Attributes returns the named attribute of every match in DOM order;
	// missing attributes come back as empty strings
	Attributes(ctx context.Context, selector, name string) ([]string, error)
	Texts(ctx context.Context, selector string) ([]string, error)
	HTML(ctx context.Context) (string, error)
	// Download clicks the index-th match of selector and returns the file
	// the browser saved as a result
	Download(ctx context.Context, selector string, index int, timeout time.Duration) (*Download, error)
	Pause(ctx context.Context, d time.Duration) error
	Close() error
}

// Download is a file captured from a browser-level download event
type Download struct {
	SuggestedFilename string
	Data              []byte
}

// URLPattern matches page locations. "**" matches any run of characters,
// "*" any run without a slash.
type URLPattern struct {
	raw string
	re  *regexp.Regexp
}

// NewURLPattern compiles a glob such as "**/zlecenia**"
func NewURLPattern(glob string) URLPattern {
	var b strings.Builder
	b.WriteString("^")
	rest := glob
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "**"):
			b.WriteString(".*")
			rest = rest[2:]
		case rest[0] == '*':
			b.WriteString("[^/]*")
			rest = rest[1:]
		default:
			next := strings.IndexByte(rest, '*')
			if next < 0 {
				next = len(rest)
			}
			b.WriteString(regexp.QuoteMeta(rest[:next]))
			rest = rest[next:]
		}
	}
	b.WriteString("$")
	return URLPattern{raw: glob, re: regexp.MustCompile(b.String())}
}

// Match reports whether url satisfies the pattern
func (p URLPattern) Match(url string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(url)
}

func (p URLPattern) String() string {
	return p.raw
}

// MatchAny returns the index of the first pattern url satisfies, or -1
func MatchAny(url string, patterns []URLPattern) int {
	for i, p := range patterns {
		if p.Match(url) {
			return i
		}
	}
	return -1
}

// IsXPath reports whether selector is an XPath expression
func IsXPath(selector string) bool {
	return strings.HasPrefix(selector, "//") || strings.HasPrefix(selector, "(//")
}
