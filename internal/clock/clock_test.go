package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	c := RealClock{}

	before := time.Now()
	got := c.Now()
	after := time.Now()

	assert.False(t, got.Before(before), "clock.Now() should not return time before actual time.Now()")
	assert.False(t, got.After(after), "clock.Now() should not return time after actual time.Now()")
}

func TestMock_Now(t *testing.T) {
	start := time.Date(2025, 6, 15, 10, 30, 0, 0, time.Local)
	m := NewMock(start)

	assert.Equal(t, start, m.Now())

	// Frozen until advanced.
	assert.Equal(t, start, m.Now())
}

func TestMock_Advance(t *testing.T) {
	start := time.Date(2025, 6, 15, 10, 30, 0, 0, time.Local)
	m := NewMock(start)

	m.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), m.Now())

	m.Advance(24 * time.Hour)
	assert.Equal(t, start.Add(90*time.Second+24*time.Hour), m.Now())
}
