// Package limiter implements fixed-window request counting keyed by
// client identity. Windows are aligned to floor(now/window)*window, so
// bursts of up to twice the limit can straddle a window edge; that is
// the accepted cost of O(1) state per key.
package limiter

import (
	"sync"
	"time"

	"assistant/internal/domain"
)

type bucket struct {
	count       int
	windowStart int64
}

// FixedWindow is an in-memory, process-lifetime limiter. The whole
// check-and-increment runs under one lock so concurrent requests are
// never undercounted.
type FixedWindow struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (l *FixedWindow) Check(key string) (domain.RateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	nowMs := l.now().UnixMilli()
	winMs := l.window.Milliseconds()
	start := nowMs - nowMs%winMs

	b, ok := l.buckets[key]
	if !ok || b.windowStart != start {
		l.buckets[key] = &bucket{count: 1, windowStart: start}
		return domain.RateDecision{
			OK:          true,
			Limit:       l.limit,
			Remaining:   l.limit - 1,
			ResetMillis: start + winMs - nowMs,
		}, nil
	}

	b.count++
	remaining := l.limit - b.count
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateDecision{
		OK:          b.count <= l.limit,
		Limit:       l.limit,
		Remaining:   remaining,
		ResetMillis: start + winMs - nowMs,
	}, nil
}
