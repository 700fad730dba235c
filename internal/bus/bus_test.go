package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homelink/internal/clock"
)

// runBus starts b.Run in the background and returns a stop func that
// cancels and waits for it.
func runBus(t *testing.T, b *Bus) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("bus did not stop")
		}
	}
}

// TestBusDispatchesCommands verifies command lines reach the dispatcher.
func TestBusDispatchesCommands(t *testing.T) {
	b := New(zerolog.Nop(), clock.RealClock{})

	got := make(chan Command, 1)
	b.SetDispatcher(func(_ context.Context, cmd Command) error {
		got <- cmd
		return nil
	})

	stop := runBus(t, b)
	defer stop()

	b.Cmdf("test", "p system %s", "publish")

	select {
	case cmd := <-got:
		assert.Equal(t, "system", cmd.Plugin)
		assert.Equal(t, "publish", cmd.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("command was not dispatched")
	}
}

// TestBusExitTriggersShutdown verifies each exit spelling fires the
// shutdown hook.
func TestBusExitTriggersShutdown(t *testing.T) {
	for _, line := range []string{"exit", "quit", "q"} {
		t.Run(line, func(t *testing.T) {
			b := New(zerolog.Nop(), clock.RealClock{})

			fired := make(chan struct{}, 1)
			b.SetShutdown(func() { fired <- struct{}{} })

			stop := runBus(t, b)
			defer stop()

			b.Cmdf("test", "%s", line)

			select {
			case <-fired:
			case <-time.After(2 * time.Second):
				t.Fatal("shutdown hook did not fire")
			}
		})
	}
}

// TestBusFansOutLogs verifies log messages reach every sink with the
// publish timestamp stamped by the clock.
func TestBusFansOutLogs(t *testing.T) {
	mock := clock.NewMock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	b := New(zerolog.Nop(), mock)

	var mu sync.Mutex
	var seen []Msg
	sink := func(m Msg) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, m)
	}
	b.AddSink(sink)
	b.AddSink(sink)

	stop := runBus(t, b)

	b.Logf("weather", "clear sky, %d°C", 21)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 10*time.Millisecond)
	stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "weather", seen[0].Source)
	assert.Equal(t, "clear sky, 21°C", seen[0].Text)
	assert.Equal(t, mock.Now(), seen[0].TS)
	assert.Equal(t, KindLog, seen[0].Kind)
}

// TestBusDispatchErrorLogged verifies a failing dispatch turns into a
// bus log entry instead of being lost.
func TestBusDispatchErrorLogged(t *testing.T) {
	b := New(zerolog.Nop(), clock.RealClock{})
	b.SetDispatcher(func(context.Context, Command) error {
		return assert.AnError
	})

	logs := make(chan Msg, 4)
	b.AddSink(func(m Msg) { logs <- m })

	stop := runBus(t, b)
	defer stop()

	b.Cmdf("test", "p nas sync")

	select {
	case m := <-logs:
		assert.Equal(t, "bus", m.Source)
		assert.Contains(t, m.Text, "nas.sync failed")
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch error was not logged")
	}
}

// TestBusUnknownVerbLogged verifies malformed commands are reported.
func TestBusUnknownVerbLogged(t *testing.T) {
	b := New(zerolog.Nop(), clock.RealClock{})

	logs := make(chan Msg, 4)
	b.AddSink(func(m Msg) { logs <- m })

	stop := runBus(t, b)
	defer stop()

	b.Cmdf("test", "frobnicate everything")

	select {
	case m := <-logs:
		assert.Contains(t, m.Text, "bad command")
	case <-time.After(2 * time.Second):
		t.Fatal("parse error was not logged")
	}
}

// TestBusFullBufferDeliversExit verifies nothing is lost on a full
// buffer: an exit command published behind a flood still reaches the
// shutdown hook once the bus drains.
func TestBusFullBufferDeliversExit(t *testing.T) {
	b := New(zerolog.Nop(), clock.RealClock{})

	fired := make(chan struct{}, 1)
	b.SetShutdown(func() { fired <- struct{}{} })

	// Fill the entire buffer before the bus runs.
	for i := 0; i < cap(b.ch); i++ {
		b.Logf("flood", "msg %d", i)
	}

	published := make(chan struct{})
	go func() {
		defer close(published)
		b.Cmdf("console", "exit")
	}()

	stop := runBus(t, b)
	defer stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("exit behind a full buffer never fired the shutdown hook")
	}
	<-published
	assert.Equal(t, int64(0), b.Dropped())
}

// TestBusHandlerPublishDoesNotWedge verifies a plugin logging from
// inside its handler makes progress even when the buffer is full.
func TestBusHandlerPublishDoesNotWedge(t *testing.T) {
	b := New(zerolog.Nop(), clock.RealClock{})
	b.SetDispatcher(func(_ context.Context, _ Command) error {
		// Handlers run on the dispatch loop and publish back onto it.
		b.Logf("echo", "handled")
		return nil
	})

	handled := make(chan struct{}, 1)
	b.AddSink(func(m Msg) {
		if m.Text == "handled" {
			select {
			case handled <- struct{}{}:
			default:
			}
		}
	})

	for i := 0; i < cap(b.ch); i++ {
		b.Logf("flood", "msg %d", i)
	}
	go b.Cmdf("console", "p nas sync")

	stop := runBus(t, b)
	defer stop()

	select {
	case <-handled:
	case <-time.After(3 * time.Second):
		t.Fatal("handler publish never made it through a full buffer")
	}
}

// TestBusDropsOnlyAfterStop verifies publishes racing shutdown are
// counted instead of hanging the publisher forever.
func TestBusDropsOnlyAfterStop(t *testing.T) {
	b := New(zerolog.Nop(), clock.RealClock{})
	stop := runBus(t, b)
	stop()

	for i := 0; i < 10; i++ {
		b.Logf("late", "msg %d", i)
	}
	assert.Equal(t, int64(10), b.Dropped())
}

// TestBusWarningLevel verifies failed dispatches surface as warnings.
func TestBusWarningLevel(t *testing.T) {
	b := New(zerolog.Nop(), clock.RealClock{})
	b.SetDispatcher(func(context.Context, Command) error {
		return assert.AnError
	})

	logs := make(chan Msg, 4)
	b.AddSink(func(m Msg) { logs <- m })

	stop := runBus(t, b)
	defer stop()

	b.Logf("weather", "clear sky")
	b.Cmdf("test", "p nas sync")

	seen := map[Level]int{}
	for i := 0; i < 2; i++ {
		select {
		case m := <-logs:
			seen[m.Level]++
		case <-time.After(2 * time.Second):
			t.Fatal("log not delivered")
		}
	}
	assert.Equal(t, 1, seen[LevelInfo])
	assert.Equal(t, 1, seen[LevelWarn])
	assert.Equal(t, "warn", LevelWarn.String())
}
