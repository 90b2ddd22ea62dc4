// Package testutil provides deterministic test doubles for the
// workflow's time and identity capabilities.
package testutil

import (
	"context"
	"sync"
	"time"
)

// VirtualTimer is a mailer.Timer that never really sleeps: Sleep
// advances the virtual clock to the requested instant and records the
// wait. Scenarios that would take minutes of wall time run instantly
// and produce identical transcripts on every run.
//
// Thread-safety: all methods are safe for concurrent use. The
// workflow schedules at most one delayed tick at a time, but Now may
// race with it from other goroutines.
type VirtualTimer struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

// NewVirtualTimer creates a timer frozen at start.
func NewVirtualTimer(start time.Time) *VirtualTimer {
	return &VirtualTimer{now: start}
}

// Now returns the current virtual time.
func (t *VirtualTimer) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

// Sleep advances the virtual clock to until and records the waited
// duration. A target in the past records a zero wait. Context
// cancellation is honored so aborted runs do not hang.
func (t *VirtualTimer) Sleep(ctx context.Context, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	d := until.Sub(t.now)
	if d < 0 {
		d = 0
	}
	t.waits = append(t.waits, d)
	if until.After(t.now) {
		t.now = until
	}
	return nil
}

// Waits returns a copy of every recorded sleep duration, in order.
func (t *VirtualTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]time.Duration, len(t.waits))
	copy(out, t.waits)
	return out
}
