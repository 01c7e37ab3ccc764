package dom

import (
	"context"
	"time"
)

// Live is the narrow set of side-effecting operations a parser may perform
// on the page a Document was loaded from.
type Live interface {
	Click(ctx context.Context, selector string) error
	ScrollIntoView(ctx context.Context, selector string) error
	// HasChildren reports whether the first element matching selector has
	// at least one element child.
	HasChildren(ctx context.Context, selector string) (bool, error)
	// HTML returns the current serialized page, including form state.
	HTML(ctx context.Context) (string, error)
}

// WaitUntil polls cond every interval until it reports true, the timeout
// elapses or ctx is done. It returns true only when cond was satisfied. A
// timeout is not an error; a cond error stops polling and is returned as is,
// as is the error of a cancelled ctx.
func WaitUntil(ctx context.Context, cond func(context.Context) (bool, error), timeout, interval time.Duration) (bool, error) {
	if interval <= 0 {
		interval = 80 * time.Millisecond
	}
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, parent.Err()
		case <-ticker.C:
		}
	}
}
