package session

import "sync/atomic"

// Clock hands out monotonically increasing sequence numbers.
type Clock interface {
	Next() int64
	Current() int64
}

// LogicalClock is the default Clock. It is safe for concurrent use.
type LogicalClock struct {
	seq atomic.Int64
}

// NewLogicalClock returns a clock whose first Next() is 1.
func NewLogicalClock() *LogicalClock {
	return &LogicalClock{}
}

// NewLogicalClockAt returns a clock that resumes after start.
func NewLogicalClockAt(start int64) *LogicalClock {
	c := &LogicalClock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *LogicalClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *LogicalClock) Current() int64 {
	return c.seq.Load()
}
