package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/handlewatch/internal/domain"
)

// RetryProber retries a lookup that got no response: an unreachable host or
// an error from the inner prober. Outcomes that carry a response (even a
// throttled one) are returned as-is. When every attempt is unreachable the
// last outcome is returned so it can be classified.
type RetryProber struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
	// Sleep waits between attempts; nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (r *RetryProber) Probe(ctx context.Context, handle string) (domain.ProbeOutcome, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var (
		last domain.ProbeOutcome
		err  error
	)
	for i := 0; i < attempts; i++ {
		last, err = r.Inner.Probe(ctx, handle)
		if err == nil && !last.Unreachable {
			return last, nil
		}
		if ctx.Err() != nil {
			return last, ctx.Err()
		}
		if i < attempts-1 && r.Backoff > 0 {
			if serr := r.sleep(ctx, r.Backoff); serr != nil {
				return last, serr
			}
		}
	}
	if err == nil {
		return last, nil
	}
	return last, fmt.Errorf("after %d attempts: %w", attempts, err)
}

func (r *RetryProber) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
