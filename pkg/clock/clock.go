// Package clock abstracts the system clock so that time-derived file
// names can be produced deterministically in tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System reads the real system clock.
type System struct{}

// Now returns the current system time.
func (System) Now() time.Time {
	return time.Now()
}

// Fixed is a settable clock for tests.
type Fixed struct {
	current time.Time
}

// NewFixed creates a fixed clock starting at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{current: t}
}

// Now returns the configured time.
func (f *Fixed) Now() time.Time {
	return f.current
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.current = t
}

// Advance moves the clock forward by d and returns the new time.
func (f *Fixed) Advance(d time.Duration) time.Time {
	f.current = f.current.Add(d)
	return f.current
}
