// Package retry runs an operation again with backoff when it fails with a
// retryable error. wyniki uses it around the browser launch, the one step
// where a transient failure (Chrome not yet reachable on its debugging port)
// is common and safe to repeat.
//
//	sess, err := retry.DoWithResult(ctx, func(ctx context.Context) (browser.Session, error) {
//		return launch(ctx)
//	}, &retry.Config{MaxAttempts: 3, Backoff: retry.DefaultExponentialBackoff()})
package retry
