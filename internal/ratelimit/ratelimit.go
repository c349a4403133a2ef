// Package ratelimit bounds how many oracle calls a conversation may make in
// a sliding time window.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultMax    = 15
	DefaultWindow = 60 * time.Second
)

// Limiter is a sliding-window admission counter. It is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	now    func() time.Time
	stamps []time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter admitting max requests per window. Non-positive
// values fall back to the defaults.
func New(max int, window time.Duration, opts ...Option) *Limiter {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{max: max, window: window, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TryAcquire records a request and reports whether it was admitted.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.stamps) >= l.max {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}

// Remaining reports how many requests would be admitted right now.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return l.max - len(l.stamps)
}

// RetryAfter is how long until the oldest admitted request leaves the
// window. Zero when a slot is free.
func (l *Limiter) RetryAfter() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.stamps) < l.max {
		return 0
	}
	return l.stamps[0].Add(l.window).Sub(now)
}

func (l *Limiter) Max() int { return l.max }

// prune drops timestamps at or before now-window. Timestamps are appended in
// clock order, so the expired ones form a prefix.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
