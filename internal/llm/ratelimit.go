package llm

import (
	"context"
	"sync"
	"time"
)

// rateLimiter spaces out calls so a grader's calls-per-minute ceiling is
// respected. One limiter exists per (provider, model) pair.
type rateLimiter struct {
	mu   sync.Mutex
	next time.Time
}

// wait blocks until the next call slot is free, or ctx is done. A
// callsPerMinute of 0 means unlimited.
func (l *rateLimiter) wait(ctx context.Context, callsPerMinute int) error {
	if callsPerMinute <= 0 {
		return ctx.Err()
	}
	interval := time.Minute / time.Duration(callsPerMinute)

	l.mu.Lock()
	now := time.Now()
	at := l.next
	if at.Before(now) {
		at = now
	}
	l.next = at.Add(interval)
	l.mu.Unlock()

	delay := time.Until(at)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
