package browser

import (
	"context"
	"time"
)

// CombineContext derives a context from ctx1, which carries the chromedp
// target, that is also cancelled when ctx2 is done
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(ctx1)

	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// boundedContext combines the session and caller contexts and applies timeout
// when it is positive
func boundedContext(session, caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	combined, cancelCombined := CombineContext(session, caller)
	if timeout <= 0 {
		return combined, cancelCombined
	}
	bounded, cancelBounded := context.WithTimeout(combined, timeout)
	return bounded, func() {
		cancelBounded()
		cancelCombined()
	}
}
