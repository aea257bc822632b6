package ratelimiter

import (
	"strings"
	"sync"
	"time"
)

// Backoff enforces an exponential cool-down per key after consecutive
// failures: the window doubles with each failure from base up to max.
// A nil Backoff never blocks.
type Backoff struct {
	base time.Duration
	max  time.Duration

	mu    sync.Mutex
	byKey map[string]*backoffState
}

type backoffState struct {
	failures int
	until    time.Time
}

// NewBackoff creates a per-key backoff; returns nil (no cool-down) when
// base is not positive.
func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		return nil
	}
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max, byKey: make(map[string]*backoffState)}
}

// Allow reports whether the key is outside its cool-down window at now.
func (b *Backoff) Allow(key string, now time.Time) bool {
	if b == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.byKey[key]
	if !ok {
		return true
	}
	return !now.Before(state.until)
}

// Fail registers one failure at now and extends the key's cool-down.
func (b *Backoff) Fail(key string, now time.Time) {
	if b == nil {
		return
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.byKey[key]
	if !ok {
		state = &backoffState{}
		b.byKey[key] = state
	}
	state.failures++
	state.until = now.Add(b.delay(state.failures))
}

// Failures returns the consecutive failure count for the key.
func (b *Backoff) Failures(key string) int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if state, ok := b.byKey[strings.TrimSpace(key)]; ok {
		return state.failures
	}
	return 0
}

// Reset clears the key's failure state.
func (b *Backoff) Reset(key string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byKey, strings.TrimSpace(key))
}

// delay grows base, 2*base, 4*base... capped at max.
func (b *Backoff) delay(failures int) time.Duration {
	d := b.base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= b.max {
			return b.max
		}
	}
	if d > b.max {
		return b.max
	}
	return d
}
