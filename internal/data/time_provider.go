package data

import "time"

// RealClock implements ports.Clock using real system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time { return time.Now() }

// FixedClock implements ports.Clock with a fixed time for testing.
type FixedClock struct {
	fixed time.Time
}

// NewFixedClock creates a FixedClock at the given time.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{fixed: t}
}

// Now returns the fixed time.
func (f *FixedClock) Now() time.Time { return f.fixed }

// SetTime updates the fixed time.
func (f *FixedClock) SetTime(t time.Time) { f.fixed = t }

// Advance adds a duration to the fixed time (useful for testing expiry).
func (f *FixedClock) Advance(d time.Duration) { f.fixed = f.fixed.Add(d) }
