// If you are AI: This file implements the reconnect delay schedule.

package lifecycle

import (
	"sync"
	"time"
)

// Backoff yields base, 2*base, 4*base, ... and falls back to base once
// the doubled delay would exceed the ceiling.
type Backoff struct {
	mu      sync.Mutex
	base    time.Duration
	ceiling time.Duration
	current time.Duration
}

// NewBackoff creates a schedule starting at base. A ceiling below base is raised to base.
func NewBackoff(base, ceiling time.Duration) *Backoff {
	if ceiling < base {
		ceiling = base
	}
	return &Backoff{base: base, ceiling: ceiling, current: base}
}

// Next returns the delay to sleep now and advances the schedule.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.current
	b.current *= 2
	if b.current > b.ceiling {
		b.current = b.base
	}
	return d
}

// Peek returns the delay Next would return without advancing.
func (b *Backoff) Peek() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Reset returns the schedule to base after a successful connect.
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.current = b.base
	b.mu.Unlock()
}
