package todo

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homelink/internal/bus"
	"homelink/internal/clock"
	"homelink/internal/errors"
)

// logCollector gathers bus log lines so tests can assert on the
// plugin's output.
type logCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *logCollector) add(msg bus.Msg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, msg.Text)
}

func (c *logCollector) contains(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func (c *logCollector) count(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

func newTestPlugin(t *testing.T, clk clock.Clock) (*Plugin, *logCollector) {
	t.Helper()
	col := &logCollector{}
	b := bus.New(zerolog.Nop(), clock.RealClock{})
	b.AddSink(col.add)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = b.Run(ctx) }()
	return New(b, clk, time.Minute), col
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, what)
}

// TestReminderFiresOnce verifies the reminder note fires exactly once
// as the clock crosses time-minus-reminder, and the due note follows
// at the scheduled time.
func TestReminderFiresOnce(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 8, 28, 18, 0, 0, 0, time.Local))
	p, col := newTestPlugin(t, clk)

	require.NoError(t, p.Handle(context.Background(), "add",
		[]string{"water plants", "once", "2026/08/28-18:30", "10"}))

	p.check()
	assert.False(t, col.contains("reminder:"))

	clk.Advance(21 * time.Minute) // 18:21, within the 10m window
	p.check()
	p.check()
	waitFor(t, func() bool { return col.count("reminder: water plants") == 1 }, "reminder note")

	clk.Advance(10 * time.Minute) // 18:31, past due
	p.check()
	waitFor(t, func() bool { return col.contains("due: water plants") }, "due note")

	occs := p.Occurrences()
	require.Len(t, occs, 1)
	assert.True(t, occs[0].Reminded)
	assert.True(t, occs[0].Due)
}

// TestDoneSilencesNotes verifies a done occurrence is still marked due
// but produces no notes.
func TestDoneSilencesNotes(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 8, 28, 18, 0, 0, 0, time.Local))
	p, col := newTestPlugin(t, clk)

	require.NoError(t, p.Handle(context.Background(), "add",
		[]string{"water plants", "once", "2026/08/28-18:30"}))
	require.NoError(t, p.Handle(context.Background(), "done", []string{"0"}))

	clk.Advance(time.Hour)
	p.check()
	time.Sleep(100 * time.Millisecond) // let any note drain through the bus

	occs := p.Occurrences()
	require.Len(t, occs, 1)
	assert.True(t, occs[0].Due)
	assert.False(t, col.contains("due:"))

	require.NoError(t, p.Handle(context.Background(), "undone", []string{"0"}))
	p.check()
	waitFor(t, func() bool { return col.contains("due: water plants") }, "due after undone")
}

// TestAddSortsOccurrencesByTime verifies the occurrence list stays
// time-ordered across definitions.
func TestAddSortsOccurrencesByTime(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 8, 28, 9, 0, 0, 0, time.Local))
	p, _ := newTestPlugin(t, clk)

	require.NoError(t, p.Handle(context.Background(), "add",
		[]string{"late", "once", "2026/08/28-20:00"}))
	require.NoError(t, p.Handle(context.Background(), "add",
		[]string{"early", "once", "2026/08/28-10:00"}))

	occs := p.Occurrences()
	require.Len(t, occs, 2)
	assert.Equal(t, "early", occs[0].Name)
	assert.Equal(t, "late", occs[1].Name)
}

// TestBadCommands covers argument validation.
func TestBadCommands(t *testing.T) {
	p, _ := newTestPlugin(t, clock.RealClock{})
	ctx := context.Background()

	tests := []struct {
		name   string
		action string
		args   []string
		want   error
	}{
		{"missing args", "add", []string{"x", "once"}, errors.ErrInvalidCommand},
		{"bad frequency", "add", []string{"x", "hourly", "10:00"}, errors.ErrInvalidFrequency},
		{"bad schedule", "add", []string{"x", "once", "10:00"}, errors.ErrInvalidSchedule},
		{"bad reminder", "add", []string{"x", "daily", "10:00", "soon"}, errors.ErrInvalidCommand},
		{"done no index", "done", nil, errors.ErrInvalidCommand},
		{"done out of range", "done", []string{"5"}, errors.ErrOccurrenceNotFound},
		{"unknown action", "remind", nil, errors.ErrInvalidCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, p.Handle(ctx, tt.action, tt.args), tt.want)
		})
	}
}
