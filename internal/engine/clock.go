package engine

import "sync/atomic"

// Clock is the logical tick counter of an instance.
//
// Every committed tick is stamped with a strictly increasing seq number from
// this clock, starting at 1. Wall-clock time never enters a trace, so a
// replay produces the same seq numbers.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations), so
// Tick may be read while another goroutine owns the instance.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume numbering when a recorded run is continued.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
