package backoff

import (
	"context"
	"time"
)

// maxShift caps the exponent so the delay stays inside int64 nanoseconds.
const maxShift = 32

// Delay returns 2^n seconds.
func Delay(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > maxShift {
		n = maxShift
	}
	return time.Duration(1<<uint(n)) * time.Second
}

// SleepFunc is the waiting primitive used by the retry loops. Production
// code uses Sleep; tests inject a recorder so no real time passes.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d or until ctx is canceled.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
