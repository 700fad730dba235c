// Package signal provides graceful shutdown handling for the homelink daemon.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler manages graceful shutdown. It wraps a context and cancels it
// when SIGINT or SIGTERM is received, or when shutdown is requested
// programmatically (the bus `exit` command).
type Handler struct {
	ctx         context.Context //nolint:containedctx // intentional: handler manages context lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{} // signals listen() to exit cleanly
	once        sync.Once
	stopOnce    sync.Once
	sigChan     chan os.Signal
}

// NewHandler creates a signal handler that listens for SIGINT and SIGTERM.
// When a signal is received, the handler cancels the context and closes
// the interrupted channel.
//
// Usage:
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	ctx = h.Context()
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		// Buffer of 1 ensures signal.Notify doesn't drop signals if
		// the handler is busy.
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the cancellable context.
// Use this context for all operations that should be interruptible.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel that closes when shutdown was triggered,
// either by a signal or by RequestShutdown.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// RequestShutdown triggers the same teardown path as an interrupt signal.
// The bus routes `exit`/`quit` commands here.
func (h *Handler) RequestShutdown() {
	h.trigger()
}

// Stop cleans up the signal handler and stops listening for signals.
// Always call this when done to prevent resource leaks.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done) // Signal listen() to exit before closing sigChan
		h.cancel()
	})
}

// trigger cancels the context and closes the interrupted channel exactly once.
func (h *Handler) trigger() {
	h.once.Do(func() {
		h.cancel()
		close(h.interrupted)
	})
}

// listen waits for signals and handles them. It loops until Stop() is
// called or the context is canceled; only the first signal has effect.
func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case <-h.sigChan:
			h.trigger()
		}
	}
}
