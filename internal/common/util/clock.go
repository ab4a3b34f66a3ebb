package util

import "time"

// Clock is a source of time measurements. The default implementation reads the
// system clock; tests substitute a controllable one.
type Clock interface {
	Now() time.Time
}

type DefaultClock struct{}

func (c *DefaultClock) Now() time.Time { return time.Now() }

// DummyClock returns a fixed instant until advanced.
type DummyClock struct {
	T time.Time
}

func (c *DummyClock) Now() time.Time {
	return c.T
}

// Advance moves the clock forward by d.
func (c *DummyClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
