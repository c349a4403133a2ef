package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// floodConfig bounds raw HTTP traffic per client address. It sits in front
// of the oracle budget and also covers endpoints that never reach the
// oracle.
type floodConfig struct {
	RequestsPerMinute int
	Burst             int
	EntryTTL          time.Duration
	CleanupInterval   time.Duration
}

type floodEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type floodLimiter struct {
	mu              sync.Mutex
	limit           rate.Limit
	burst           int
	entries         map[string]*floodEntry
	entryTTL        time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time
}

func newFloodLimiter(cfg floodConfig) *floodLimiter {
	ttl := cfg.EntryTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = 5 * time.Minute
	}
	return &floodLimiter{
		limit:           rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:           cfg.Burst,
		entries:         make(map[string]*floodEntry),
		entryTTL:        ttl,
		cleanupInterval: cleanup,
		lastCleanup:     time.Now(),
	}
}

func (f *floodLimiter) allow(key string) bool {
	if f == nil || key == "" {
		return true
	}
	now := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	if now.Sub(f.lastCleanup) >= f.cleanupInterval {
		for k, e := range f.entries {
			if now.Sub(e.lastSeen) > f.entryTTL {
				delete(f.entries, k)
			}
		}
		f.lastCleanup = now
	}

	e, ok := f.entries[key]
	if !ok {
		e = &floodEntry{limiter: rate.NewLimiter(f.limit, f.burst)}
		f.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

func floodMiddleware(cfg floodConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerMinute <= 0 || cfg.Burst <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := newFloodLimiter(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(floodKey(r)) {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// floodKey ignores the session id, which the client chooses freely.
func floodKey(r *http.Request) string {
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
