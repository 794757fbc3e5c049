package portal

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wyniki/pkg/browser/browsertest"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

// paginate scripts an order list whose pages hold the given hrefs
func paginate(s *browsertest.Session, pages ...[]string) {
	var show func(i int)
	show = func(i int) {
		links := make([]browsertest.Element, len(pages[i]))
		for j, href := range pages[i] {
			links[j] = browsertest.Link(href)
		}
		s.SetElements(OrderLink, links...)
		if i+1 < len(pages) {
			s.SetElements(NextPageButton, browsertest.Element{})
			s.OnClick(NextPageButton, func(*browsertest.Session) { show(i + 1) })
		} else {
			s.SetElements(NextPageButton)
		}
	}
	show(0)
}

func TestEnumerateAcrossPages(t *testing.T) {
	pages := [][]string{
		{"/zlecenia/a", "/zlecenia/b", "/zlecenia/c"},
		{"/zlecenia/d"},
		{"/zlecenia/e", "/zlecenia/f"},
	}
	s := browsertest.New()
	paginate(s, pages...)

	var seen []int
	e := NewEnumerator(DefaultTiming(), func(page, found, total int) {
		seen = append(seen, found)
	}, logger.NewNopLogger())

	refs, err := e.Enumerate(context.Background(), s)
	require.NoError(t, err)

	var want []models.OrderRef
	for _, page := range pages {
		for _, href := range page {
			want = append(want, models.OrderRef(href))
		}
	}
	assert.Equal(t, want, refs)
	assert.Equal(t, []int{3, 1, 2}, seen)
	assert.Len(t, s.Pauses(), 2)
}

func TestEnumerateSkipsEmptyHrefsAndKeepsDuplicates(t *testing.T) {
	s := browsertest.New()
	s.SetElements(OrderLink,
		browsertest.Link("/zlecenia/1"),
		browsertest.Element{},
		browsertest.Link("/zlecenia/1"),
	)

	refs, err := NewEnumerator(DefaultTiming(), nil, logger.NewNopLogger()).Enumerate(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []models.OrderRef{"/zlecenia/1", "/zlecenia/1"}, refs)
}

func TestEnumerateNoRowsIsFatal(t *testing.T) {
	s := browsertest.New()

	refs, err := NewEnumerator(DefaultTiming(), nil, logger.NewNopLogger()).Enumerate(context.Background(), s)
	assert.Nil(t, refs)
	assert.ErrorIs(t, err, errs.ErrNoOrderRows)
	assert.Equal(t, errs.ErrorTypeEnumeration, errs.TypeOf(err))
	assert.True(t, errs.IsFatal(errs.TypeOf(err)))
}

func TestEnumerateEmptyLaterPageIsFatal(t *testing.T) {
	s := browsertest.New()
	paginate(s, []string{"/zlecenia/1"}, nil)

	_, err := NewEnumerator(DefaultTiming(), nil, logger.NewNopLogger()).Enumerate(context.Background(), s)
	assert.ErrorIs(t, err, errs.ErrNoOrderRows)
}

func TestEnumerateQueryError(t *testing.T) {
	s := browsertest.New()
	paginate(s, []string{"/zlecenia/1"})
	s.SetQueryError(NextPageButton, fmt.Errorf("target closed"))

	_, err := NewEnumerator(DefaultTiming(), nil, logger.NewNopLogger()).Enumerate(context.Background(), s)
	assert.ErrorContains(t, err, "target closed")
	assert.Equal(t, errs.ErrorTypeEnumeration, errs.TypeOf(err))
}

func TestResolveOrderURL(t *testing.T) {
	assert.Equal(t, "https://wyniki.diag.pl/zlecenia/abc", ResolveOrderURL("https://wyniki.diag.pl", "/zlecenia/abc"))
	assert.Equal(t, "https://wyniki.diag.pl/zlecenia/abc", ResolveOrderURL("https://wyniki.diag.pl/", "zlecenia/abc"))
	assert.Equal(t, "https://other.example/x", ResolveOrderURL("https://wyniki.diag.pl", "https://other.example/x"))
}
