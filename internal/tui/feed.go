package tui

import (
	"fmt"
	"sync"

	"homelink/internal/bus"
)

// DefaultFeedCapacity bounds the dashboard's scrollback.
const DefaultFeedCapacity = 200

// Feed retains the most recent bus log lines for the dashboard. Its
// Add method is registered as a bus sink, so it must stay cheap and
// lock-bounded.
type Feed struct {
	mu      sync.Mutex
	cap     int
	entries []string
}

// NewFeed creates a feed retaining at most capacity lines.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	return &Feed{cap: capacity}
}

// Add appends a bus message, evicting the oldest line when full.
// Warnings carry a visible tag so they stand out in the scrollback.
func (f *Feed) Add(msg bus.Msg) {
	text := msg.Text
	if msg.Level == bus.LevelWarn {
		text = "[warn] " + text
	}
	line := fmt.Sprintf("%s %-8s %s", msg.TS.Format("15:04:05"), msg.Source, text)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, line)
	if len(f.entries) > f.cap {
		f.entries = f.entries[len(f.entries)-f.cap:]
	}
}

// Last returns up to n most recent lines, oldest first.
func (f *Feed) Last(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.entries) {
		n = len(f.entries)
	}
	out := make([]string, n)
	copy(out, f.entries[len(f.entries)-n:])
	return out
}

// Len returns the number of retained lines.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
