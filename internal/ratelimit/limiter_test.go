package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the limiter deterministically: sleeping advances time
// instead of waiting.
type fakeClock struct {
	mu  sync.Mutex
	t   time.Time
	day time.Time
}

func newFakeClock() *fakeClock {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &fakeClock{t: base, day: base}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
	return ctx.Err()
}

func newTestLimiter(limit int, window time.Duration, clock *fakeClock) *Limiter {
	l := New(limit, window)
	l.now = clock.now
	l.sleep = clock.sleep
	return l
}

func TestLimiter_WindowBound(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(10, time.Second, clock)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Admit(context.Background()))
		}()
	}
	wg.Wait()

	stamps := l.stamps
	all := make([]time.Time, len(stamps))
	copy(all, stamps)

	// No sliding 1-second sub-window of the admitted timestamps may hold
	// more than 10 admissions. Pruning drops old stamps, so also verify the
	// total admitted count via the clock having advanced at least twice.
	for i := range all {
		count := 0
		for j := range all {
			diff := all[j].Sub(all[i])
			if diff >= 0 && diff < time.Second {
				count++
			}
		}
		assert.LessOrEqual(t, count, 10)
	}

	assert.True(t, clock.now().Sub(clock.day) >= 2*time.Second,
		"25 admissions at 10/s should span at least two full windows")
}

func TestLimiter_NoDelayUnderLimit(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(10, time.Second, clock)

	start := clock.now()
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Admit(context.Background()))
	}

	assert.Equal(t, start, clock.now(), "first 10 admissions should not sleep")
	assert.Len(t, l.stamps, 10)
}

func TestLimiter_EleventhCallWaitsFullWindow(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(10, time.Second, clock)

	start := clock.now()
	for i := 0; i < 11; i++ {
		require.NoError(t, l.Admit(context.Background()))
	}

	got := clock.now().Sub(start)
	assert.Equal(t, time.Second, got, "11th admission waits until the oldest stamp ages out")
}

func TestLimiter_PrunesExpiredStamps(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(10, time.Second, clock)

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Admit(context.Background()))
	}

	// Advance past the window; the next admission should not sleep.
	clock.mu.Lock()
	clock.t = clock.t.Add(1500 * time.Millisecond)
	clock.mu.Unlock()

	before := clock.now()
	require.NoError(t, l.Admit(context.Background()))
	assert.Equal(t, before, clock.now())
	assert.Len(t, l.stamps, 1, "expired stamps are pruned on admission")
}

func TestLimiter_ContextCanceledWhileQueued(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(10, time.Second, clock)

	// Occupy the gate so the canceled caller has to queue.
	blocked := make(chan struct{})
	release := make(chan struct{})
	l.sleep = func(ctx context.Context, d time.Duration) error {
		close(blocked)
		<-release
		return nil
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Admit(context.Background()))
	}

	go l.Admit(context.Background()) // 11th: sleeps inside the gate
	<-blocked

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Admit(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)

	// The chain must keep moving after the canceled caller.
	l.sleep = clock.sleep
	done := make(chan error, 1)
	go func() { done <- l.Admit(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("limiter chain stalled after canceled caller")
	}
}

func TestLimiter_RealClockSmoke(t *testing.T) {
	l := New(3, 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 7; i++ {
		require.NoError(t, l.Admit(context.Background()))
	}
	elapsed := time.Since(start)

	// 7 admissions at 3 per 50ms needs at least two full waits.
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}
