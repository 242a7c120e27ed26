package redis

import (
	"sync"
	"time"
)

// breaker trips after trip consecutive failures and holds traffic off
// Redis for a cooldown. After the cooldown one probe call is let
// through; success closes the breaker, failure restarts the cooldown.
type breaker struct {
	mu        sync.Mutex
	trip      int
	cooldown  time.Duration
	failures  int
	openUntil time.Time
	probing   bool
}

func newBreaker(trip int, cooldown time.Duration) *breaker {
	return &breaker{trip: trip, cooldown: cooldown}
}

// allow reports whether a call may proceed.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openUntil.IsZero() {
		return true
	}
	if time.Now().Before(b.openUntil) {
		return false
	}
	// Cooldown elapsed: admit a single probe.
	if b.probing {
		return false
	}
	b.probing = true
	return true
}

// record feeds a call outcome back into the breaker.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err == nil {
		b.failures = 0
		b.openUntil = time.Time{}
		return
	}

	b.failures++
	if !b.openUntil.IsZero() || b.failures >= b.trip {
		b.openUntil = time.Now().Add(b.cooldown)
	}
}
