package portal

import (
	"context"
	"fmt"
	"time"

	"wyniki/pkg/browser"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

// ArtifactStore persists downloaded files
type ArtifactStore interface {
	SaveArtifact(filename string, data []byte) (string, error)
	Exists(filename string) bool
}

// ArtifactFunc observes every download attempt as it finishes
type ArtifactFunc func(outcome models.DownloadOutcome)

// Downloader saves every artifact of one order
type Downloader struct {
	store      ArtifactStore
	timing     Timing
	logger     logger.Logger
	onArtifact ArtifactFunc
}

// NewDownloader creates a downloader; onArtifact may be nil
func NewDownloader(store ArtifactStore, timing Timing, onArtifact ArtifactFunc, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{
		store:      store,
		timing:     timing,
		onArtifact: onArtifact,
		logger:     log.WithField("component", "download"),
	}
}

// DownloadAll opens the download dialog of the order the session is showing
// and tries every XML, PDF and CSV button. A failed button never stops the
// remaining ones; the result records each attempt.
func (d *Downloader) DownloadAll(ctx context.Context, s browser.Session, ref models.OrderRef, id string) models.OrderResult {
	result := models.OrderResult{Ref: ref, Identifier: id}
	log := d.logger.WithFields(map[string]interface{}{"order": string(ref), "id": id})

	if err := d.openDialog(ctx, s); err != nil {
		result.Err = err
		result.Reason = err.Error()
		log.WithError(err).Warn("Download dialog did not open")
		return result
	}

	for _, kind := range models.ArtifactKinds {
		selector := DownloadSelectors[kind]
		count, err := s.Count(ctx, selector)
		if err != nil {
			log.WithError(err).WarnWithFields("Could not count download buttons", map[string]interface{}{"kind": kind.String()})
			continue
		}
		for i := 0; i < count; i++ {
			if ctx.Err() != nil {
				result.Err = ctx.Err()
				result.Reason = ctx.Err().Error()
				return result
			}
			outcome := d.downloadOne(ctx, s, ref, id, kind, selector, i, count)
			result.Outcomes = append(result.Outcomes, outcome)
			if d.onArtifact != nil {
				d.onArtifact(outcome)
			}
		}
	}

	if result.SavedCount() == 0 {
		log.Warn("No files downloaded")
	}

	d.closeDialog(ctx, s)
	return result
}

func (d *Downloader) openDialog(ctx context.Context, s browser.Session) error {
	if err := s.WaitVisible(ctx, OpenTestsButton, d.timing.DialogTimeout); err != nil {
		return errs.New(errs.ErrorTypeOrder, "open dialog", "download button not found", err)
	}
	if err := s.Click(ctx, OpenTestsButton); err != nil {
		return errs.New(errs.ErrorTypeOrder, "open dialog", "", err)
	}
	if err := s.Pause(ctx, d.timing.DialogSettle); err != nil {
		return errs.New(errs.ErrorTypeOrder, "open dialog", "", err)
	}
	return nil
}

func (d *Downloader) downloadOne(ctx context.Context, s browser.Session, ref models.OrderRef, id string,
	kind models.ArtifactKind, selector string, index, count int) models.DownloadOutcome {
	started := time.Now()
	filename := models.ArtifactFilename(id, kind, index, count)
	outcome := models.DownloadOutcome{
		Order:      ref,
		Identifier: id,
		Kind:       kind,
		Index:      index,
		Filename:   filename,
	}

	fail := func(t errs.ErrorType, err error) models.DownloadOutcome {
		outcome.Err = errs.New(t, fmt.Sprintf("%s %d", kind, index+1), "", err)
		outcome.Reason = outcome.Err.Error()
		outcome.Duration = time.Since(started)
		logger.LogArtifact(d.logger, id, kind.String(), filename, 0, outcome.Err)
		return outcome
	}

	dl, err := s.Download(ctx, selector, index, d.timing.DownloadTimeout)
	_ = s.Pause(ctx, d.timing.ClickSettle)
	if err != nil {
		return fail(errs.ErrorTypeDownload, err)
	}
	if dl == nil {
		return fail(errs.ErrorTypeDownload, errs.ErrNoDownload)
	}

	if d.store.Exists(filename) {
		d.logger.WarnWithFields("Overwriting existing artifact", map[string]interface{}{"file": filename})
	}
	path, err := d.store.SaveArtifact(filename, dl.Data)
	if err != nil {
		return fail(errs.ErrorTypeSave, err)
	}

	outcome.Path = path
	outcome.Size = len(dl.Data)
	outcome.Duration = time.Since(started)
	logger.LogArtifact(d.logger, id, kind.String(), filename, outcome.Size, nil)
	return outcome
}

func (d *Downloader) closeDialog(ctx context.Context, s browser.Session) {
	for _, selector := range []string{CloseButton, CloseButtonText} {
		n, err := s.Count(ctx, selector)
		if err != nil || n == 0 {
			continue
		}
		if err := s.Click(ctx, selector); err != nil {
			d.logger.WithError(err).Debug("Closing dialog failed")
			return
		}
		_ = s.Pause(ctx, d.timing.CloseSettle)
		return
	}
}
