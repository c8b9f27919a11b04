package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time of a FixedClock.
var Epoch = time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

// FixedClock is a deterministic wall clock for tests.
//
// Now returns the current instant and then moves the clock forward by Step,
// so consecutive timestamps differ while staying reproducible. A zero Step
// freezes time.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFixedClock creates a clock starting at start that advances by step on
// every call to Now. A zero start uses Epoch.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	if start.IsZero() {
		start = Epoch
	}
	return &FixedClock{now: start, step: step}
}

// Now returns the current instant and advances the clock by its step.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the current instant without advancing.
func (c *FixedClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
