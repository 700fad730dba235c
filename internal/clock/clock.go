// Package clock provides an abstraction for time operations to improve
// testability. Instead of calling time.Now() directly, code can use the
// Clock interface which can be mocked in tests to control time-dependent
// behavior such as todo scheduling and uptime reporting.
package clock

import "time"

// Clock is an interface for time operations.
// This allows code to be tested with mock clocks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Ensure RealClock implements Clock.
var _ Clock = RealClock{}

// Mock is a Clock implementation for tests. The current time starts at
// Start and can be moved forward with Advance.
type Mock struct {
	current time.Time
}

// NewMock returns a Mock clock frozen at the given time.
func NewMock(start time.Time) *Mock {
	return &Mock{current: start}
}

// Now returns the mock's current time.
func (m *Mock) Now() time.Time {
	return m.current
}

// Advance moves the mock's current time forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.current = m.current.Add(d)
}

// Ensure Mock implements Clock.
var _ Clock = (*Mock)(nil)
