// Package bus implements the central message bus every plugin hangs off.
//
// Plugins publish two kinds of messages: log entries, which are fanned
// out to the structured logger and any registered sinks (the dashboard
// feed), and command lines, which are parsed and dispatched back into
// the plugin registry. The bus is the only coupling point between
// plugins; a plugin never calls another plugin directly.
//
// IMPORTANT: This package may import internal/clock, internal/constants
// and internal/errors, but MUST NOT import internal/plugin (the registry
// is handed in as a DispatchFunc to avoid the cycle).
package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"homelink/internal/clock"
	"homelink/internal/constants"
)

// Kind discriminates the two message payloads.
type Kind int

const (
	// KindLog is a human-readable log entry from a plugin.
	KindLog Kind = iota

	// KindCmd is a command line to parse and dispatch.
	KindCmd
)

// Level grades a log entry. Warnings reach the structured logger at
// warn level and are tagged in the dashboard feed.
type Level int

const (
	// LevelInfo is the default for plugin chatter.
	LevelInfo Level = iota

	// LevelWarn marks failures the operator should see: bad commands,
	// unknown plugins, failed dispatches.
	LevelWarn
)

// String returns the level name.
func (l Level) String() string {
	if l == LevelWarn {
		return "warn"
	}
	return "info"
}

func (l Level) zerologLevel() zerolog.Level {
	if l == LevelWarn {
		return zerolog.WarnLevel
	}
	return zerolog.InfoLevel
}

// Msg is a single bus message.
type Msg struct {
	// TS is when the message was published.
	TS time.Time

	// Source names the publishing plugin (or "bus" for internal events).
	Source string

	// Kind selects how Text is interpreted.
	Kind Kind

	// Level grades log entries; ignored for commands.
	Level Level

	// Text is the log line or the raw command line.
	Text string
}

// DispatchFunc routes a parsed command to its plugin. Returned errors
// are logged on the bus, not propagated to the publisher.
type DispatchFunc func(ctx context.Context, cmd Command) error

// Sink receives every log message after it has been written to the
// structured logger. Sinks must not block.
type Sink func(Msg)

// Bus is the central message dispatcher. Construct with New, wire the
// dispatcher, shutdown hook and sinks, then call Run.
type Bus struct {
	ch     chan Msg
	done   chan struct{}
	clk    clock.Clock
	logger zerolog.Logger

	mu       sync.RWMutex
	dispatch DispatchFunc
	shutdown func()
	sinks    []Sink

	closeOnce sync.Once
	dropped   atomic.Int64
}

// New creates a Bus with the standard buffer size.
func New(logger zerolog.Logger, clk clock.Clock) *Bus {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Bus{
		ch:     make(chan Msg, constants.BusBuffer),
		done:   make(chan struct{}),
		clk:    clk,
		logger: logger.With().Str("component", "bus").Logger(),
	}
}

// SetDispatcher installs the command dispatcher. Commands published
// before a dispatcher is set are logged and discarded.
func (b *Bus) SetDispatcher(fn DispatchFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dispatch = fn
}

// SetShutdown installs the hook invoked when an exit command arrives.
func (b *Bus) SetShutdown(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shutdown = fn
}

// AddSink registers a log sink. Safe to call before Run only.
func (b *Bus) AddSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Publish enqueues a message. Messages are never dropped while the bus
// runs: when the buffer is full the send blocks until the intake frees
// a slot or the bus stops. Only messages published after Run has
// returned are discarded (and counted).
func (b *Bus) Publish(msg Msg) {
	if msg.TS.IsZero() {
		msg.TS = b.clk.Now()
	}
	select {
	case <-b.done:
		b.dropped.Add(1)
		return
	default:
	}
	select {
	case b.ch <- msg:
	case <-b.done:
		b.dropped.Add(1)
	}
}

// Logf publishes a formatted log entry from source.
func (b *Bus) Logf(source, format string, args ...any) {
	b.Publish(Msg{Source: source, Kind: KindLog, Text: fmt.Sprintf(format, args...)})
}

// Warnf publishes a formatted warning from source.
func (b *Bus) Warnf(source, format string, args ...any) {
	b.Publish(Msg{Source: source, Kind: KindLog, Level: LevelWarn, Text: fmt.Sprintf(format, args...)})
}

// Cmdf publishes a formatted command line from source.
func (b *Bus) Cmdf(source, format string, args ...any) {
	b.Publish(Msg{Source: source, Kind: KindCmd, Text: fmt.Sprintf(format, args...)})
}

// Dropped returns the number of messages discarded because they were
// published after the bus had stopped.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Run consumes messages until ctx is canceled; message order is the
// publish order. An intake goroutine keeps draining the channel while
// a handler runs, so a handler publishing onto its own bus can never
// wedge the loop even with the buffer full.
func (b *Bus) Run(ctx context.Context) error {
	b.logger.Debug().Msg("bus started")
	defer b.closeOnce.Do(func() { close(b.done) })

	var (
		qmu   sync.Mutex
		queue []Msg
	)
	wake := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-b.ch:
				qmu.Lock()
				queue = append(queue, msg)
				qmu.Unlock()
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}
	}()

	for {
		qmu.Lock()
		batch := queue
		queue = nil
		qmu.Unlock()
		for _, msg := range batch {
			b.handle(ctx, msg)
		}

		select {
		case <-ctx.Done():
			b.logger.Debug().Msg("bus stopped")
			return ctx.Err()
		case <-wake:
		}
	}
}

// handle processes one message.
func (b *Bus) handle(ctx context.Context, msg Msg) {
	switch msg.Kind {
	case KindLog:
		b.logger.WithLevel(msg.Level.zerologLevel()).
			Str("source", msg.Source).
			Time("msg_ts", msg.TS).
			Msg(msg.Text)
		b.fanOut(msg)
	case KindCmd:
		b.handleCommand(ctx, msg)
	}
}

// handleCommand parses and routes one command line.
func (b *Bus) handleCommand(ctx context.Context, msg Msg) {
	cmd, ok, err := ParseCommand(msg.Text)
	if err != nil {
		b.Warnf("bus", "bad command from %s: %v", msg.Source, err)
		return
	}
	if !ok {
		// Blank line or comment.
		return
	}

	if cmd.Exit {
		b.logger.Info().Str("source", msg.Source).Msg("exit command received")
		b.mu.RLock()
		shutdown := b.shutdown
		b.mu.RUnlock()
		if shutdown != nil {
			shutdown()
		}
		return
	}

	b.mu.RLock()
	dispatch := b.dispatch
	b.mu.RUnlock()
	if dispatch == nil {
		b.Warnf("bus", "no dispatcher for command %q", strings.TrimSpace(msg.Text))
		return
	}
	if err := dispatch(ctx, cmd); err != nil {
		b.Warnf("bus", "command %s.%s failed: %v", cmd.Plugin, cmd.Action, err)
	}
}

// fanOut delivers a log message to every sink.
func (b *Bus) fanOut(msg Msg) {
	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()
	for _, s := range sinks {
		s(msg)
	}
}
