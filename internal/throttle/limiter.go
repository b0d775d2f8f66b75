package throttle

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum spacing between accepted location updates for a
// single session.
type Limiter interface {
	// Allow reports whether an update for sessionID may be accepted at now.
	// When it is denied, retryAfter is the remaining wait.
	Allow(ctx context.Context, sessionID string, now time.Time) (allowed bool, retryAfter time.Duration)
}

// MemoryLimiter keeps last-accepted timestamps in process memory.
type MemoryLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		window: window,
		last:   map[string]time.Time{},
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, sessionID string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.last[sessionID]; ok {
		elapsed := now.Sub(prev)
		if elapsed < l.window {
			return false, l.window - elapsed
		}
	}
	l.last[sessionID] = now
	return true, 0
}
