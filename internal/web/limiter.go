package web

// limiter.go bounds how many uploads are parsed at once.
//
// Every parse holds a whole file in memory, so the API admits at most
// MaxConcurrent parses. A request waits up to MaxWait for a slot and is then
// rejected with 503 and Retry-After.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// errBusy is returned when no parse slot frees up within the wait window.
var errBusy = errors.New("too many concurrent uploads, please try again later")

// parseLimiter is a counting semaphore over parse slots.
type parseLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// LimiterStatus is a snapshot reported by /healthz.
type LimiterStatus struct {
	Active        int `json:"active"`
	MaxConcurrent int `json:"max_concurrent"`
}

func newParseLimiter(maxConcurrent int, maxWait time.Duration) *parseLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &parseLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire takes a slot. The caller must release it.
func (l *parseLimiter) acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	default:
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return errBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *parseLimiter) release() {
	l.active.Add(-1)
	<-l.slots
}

func (l *parseLimiter) status() LimiterStatus {
	return LimiterStatus{
		Active:        int(l.active.Load()),
		MaxConcurrent: cap(l.slots),
	}
}

// waitForDrain blocks until no parse is active or ctx ends.
func (l *parseLimiter) waitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.active.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
