package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter throttles outbound product lookups to at most limit admissions
// within a rolling window. Admission checks are strictly FIFO: each caller
// swaps in a fresh gate channel and waits on the previous caller's gate, so
// no two callers ever evaluate the timestamp window concurrently even though
// the work they gate runs in parallel after admission.
//
// Admit never rejects; at worst it delays (or honors context cancellation).
type Limiter struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	gate chan struct{}

	// timestamps of admitted calls, oldest first; touched only by the
	// current gate holder
	stamps []time.Time

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter admitting at most limit calls per window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Admit blocks until it is safe to proceed. It prunes timestamps older than
// the trailing window, waits out the oldest retained timestamp if the window
// is full, then records its own admission.
func (l *Limiter) Admit(ctx context.Context) error {
	gate := make(chan struct{})

	l.mu.Lock()
	prev := l.gate
	l.gate = gate
	l.mu.Unlock()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			// Keep the chain moving for callers queued behind us.
			go func() {
				<-prev
				close(gate)
			}()
			return ctx.Err()
		}
	}

	err := l.admit(ctx)
	close(gate)
	return err
}

func (l *Limiter) admit(ctx context.Context) error {
	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.stamps[:0]
	for _, ts := range l.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.stamps = kept

	if len(l.stamps) >= l.limit {
		wait := l.stamps[0].Add(l.window).Sub(now)
		if wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	l.stamps = append(l.stamps, l.now())
	return nil
}

// sleepContext sleeps for d or until the context is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
