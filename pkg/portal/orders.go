package portal

import (
	"context"
	"errors"

	"wyniki/pkg/browser"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

// PageFunc is called after each list page is read
type PageFunc func(page, found, total int)

// Enumerator walks the paginated order list
type Enumerator struct {
	timing Timing
	logger logger.Logger
	onPage PageFunc
}

// NewEnumerator creates an enumerator; onPage may be nil
func NewEnumerator(timing Timing, onPage PageFunc, log logger.Logger) *Enumerator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Enumerator{timing: timing, onPage: onPage, logger: log.WithField("component", "orders")}
}

func enumErr(message string, err error) error {
	return errs.New(errs.ErrorTypeEnumeration, "enumerate", message, err)
}

// Enumerate returns the order references of every page in page order, then
// DOM order. The session must already show the first page of the list.
func (e *Enumerator) Enumerate(ctx context.Context, s browser.Session) ([]models.OrderRef, error) {
	e.logger.Info("Fetching all orders")

	var refs []models.OrderRef
	for page := 1; ; page++ {
		if err := s.WaitVisible(ctx, OrderLink, e.timing.RowsTimeout); err != nil {
			return nil, enumErr("order rows did not render", errors.Join(errs.ErrNoOrderRows, err))
		}

		hrefs, err := s.Attributes(ctx, OrderLink, "href")
		if err != nil {
			return nil, enumErr("reading order links", err)
		}
		for _, href := range hrefs {
			if href != "" {
				refs = append(refs, models.OrderRef(href))
			}
		}

		e.logger.InfoWithFields("Found orders on page", map[string]interface{}{
			"page":  page,
			"found": len(hrefs),
		})
		if e.onPage != nil {
			e.onPage(page, len(hrefs), len(refs))
		}

		next, err := s.Count(ctx, NextPageButton)
		if err != nil {
			return nil, enumErr("looking for next page", err)
		}
		if next == 0 {
			break
		}

		e.logger.DebugWithFields("Moving to next page", map[string]interface{}{"page": page + 1})
		if err := s.Click(ctx, NextPageButton); err != nil {
			return nil, enumErr("next page", err)
		}
		if err := s.Pause(ctx, e.timing.PageSettle); err != nil {
			return nil, enumErr("", err)
		}
	}

	e.logger.InfoWithFields("Total orders found", map[string]interface{}{"total": len(refs)})
	return refs, nil
}
