package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of requests allowed per client per window.
	DefaultLimit = 10
	// DefaultWindow is the trailing interval requests are counted over.
	DefaultWindow = 60 * time.Second
)

// Limiter is a sliding-window request counter keyed by client identifier.
// All state lives in memory and resets on restart. Client keys are never
// removed once created; only their timestamp lists shrink as entries age
// out, so cardinality grows with the number of distinct clients seen over
// the process lifetime.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

// New constructs a Limiter. Non-positive limit or window fall back to the
// package defaults.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether clientID may issue a request now. Timestamps older
// than the window are pruned, then the request is recorded only if the
// remaining count is below the limit. The prune-check-append sequence runs
// under one lock so concurrent callers sharing a clientID cannot both sneak
// past the limit. Rejected calls still prune.
func (l *Limiter) Allow(clientID string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.hits[clientID][:0]
	for _, ts := range l.hits[clientID] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	if len(recent) >= l.limit {
		l.hits[clientID] = recent
		return false
	}
	l.hits[clientID] = append(recent, now)
	return true
}
