package loop

import "sync/atomic"

// Clock is a monotonic logical clock stamping each drained event with
// a strictly increasing step number.
//
// Step numbers make traces deterministic: the same program with the
// same event order produces the same numbered transcript, with no
// wall-clock race conditions.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the single-writer drain phase means only one goroutine
// normally calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next step number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current step number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
