package engine

import "sync/atomic"

// Clock hands out the sequence numbers stamped on lifecycle events.
//
// Seq values are logical, never wall-clock: two runs over the same group
// with the same deltas produce identical sequences. A Clock may be shared
// between engines (for example by a player that restarts sessions) so that
// seq stays unique across sessions recorded to one store.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start. The first Next
// returns start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
