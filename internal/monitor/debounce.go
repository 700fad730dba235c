package monitor

import (
	"sync"
	"time"
)

// debounceKey coalesces events per path and change class, so a slow
// copy into the share fires one sync instead of hundreds.
type debounceKey struct {
	path string
	kind string
}

// debouncer delays a callback per key, restarting the delay every time
// the key fires again.
type debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	timers map[debounceKey]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[debounceKey]*time.Timer),
	}
}

// trigger (re)arms the timer for key. fn runs once the key has been
// quiet for the full delay.
func (d *debouncer) trigger(key debounceKey, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

// stop cancels all pending timers.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
