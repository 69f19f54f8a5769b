package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks failures to reach a remote cache. Only these are
// retried when connecting.
var ErrUnavailable = errors.New("cache unavailable")

// backoff retries an operation with doubling delays.
type backoff struct {
	attempts int
	delay    time.Duration
}

// connectBackoff is used when a remote cache is first contacted.
var connectBackoff = backoff{attempts: 3, delay: time.Second}

// do calls fn until it succeeds or returns an error that is not
// ErrUnavailable, the attempts are used up, or ctx is done. It returns
// the last error from fn, or ctx.Err().
func (b backoff) do(ctx context.Context, fn func() error) error {
	delay := b.delay
	var err error
	for i := range b.attempts {
		if err = fn(); err == nil || !errors.Is(err, ErrUnavailable) {
			return err
		}
		if i == b.attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return err
}
