package sim

import (
	"context"
	"time"
)

// Clock supplies time to the scheduler loop. The simulator never calls
// time.Now or time.Sleep directly, so tests can drive the loop with a
// simulated clock and no real delays.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is cancelled, whichever comes
	// first. A cancelled context is reported as its error.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall-clock implementation used in production.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Still honor cancellation on zero-length sleeps.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
