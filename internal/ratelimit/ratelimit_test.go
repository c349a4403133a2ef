package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func TestLimiter_RefusesAfterMaxAndRecovers(t *testing.T) {
	clock := newFakeClock()
	l := New(3, time.Minute, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		require.True(t, l.TryAcquire(), "request %d", i)
		clock.Advance(time.Second)
	}
	assert.False(t, l.TryAcquire())
	assert.Equal(t, 0, l.Remaining())

	// first stamp was at t0; window ends at t0+60s
	assert.Equal(t, 57*time.Second, l.RetryAfter())

	clock.Advance(57 * time.Second)
	assert.Equal(t, 1, l.Remaining())
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
}

func TestLimiter_RemainingDoesNotAdmit(t *testing.T) {
	l := New(2, time.Minute, WithClock(newFakeClock().Now))

	assert.Equal(t, 2, l.Remaining())
	assert.Equal(t, 2, l.Remaining())
	assert.True(t, l.TryAcquire())
	assert.Equal(t, 1, l.Remaining())
	assert.Zero(t, l.RetryAfter())
}

func TestLimiter_Defaults(t *testing.T) {
	l := New(0, 0)
	assert.Equal(t, DefaultMax, l.Max())
	assert.Equal(t, DefaultMax, l.Remaining())
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(50, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
			_ = l.Remaining()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, admitted)
	assert.Equal(t, 0, l.Remaining())
}
