// Package plugin defines the plugin contract and the registry that
// routes bus commands to plugins.
//
// A plugin is addressed on the bus as `p <name> <action> [args...]`.
// Plugins with background work additionally implement Runner and are
// started by the daemon under a shared errgroup.
package plugin

import (
	"context"

	"homelink/internal/bus"
)

// Plugin handles commands addressed to it on the bus.
type Plugin interface {
	// Name is the registry key and the bus address.
	Name() string

	// Handle executes one action. Unknown actions return an error and
	// end up as a bus log entry.
	Handle(ctx context.Context, action string, args []string) error
}

// Runner is implemented by plugins with a background loop. Run blocks
// until ctx is canceled and returns the cancel cause or nil.
type Runner interface {
	Run(ctx context.Context) error
}

// Base provides the bus plumbing shared by all plugins: a name and
// publish helpers. Embed by value.
type Base struct {
	name string
	bus  *bus.Bus
}

// NewBase creates the shared plumbing for a plugin called name.
func NewBase(name string, b *bus.Bus) Base {
	return Base{name: name, bus: b}
}

// Name returns the plugin's registry key.
func (b Base) Name() string { return b.name }

// Infof publishes a log entry attributed to this plugin.
func (b Base) Infof(format string, args ...any) {
	b.bus.Logf(b.name, format, args...)
}

// Warnf publishes a warning attributed to this plugin.
func (b Base) Warnf(format string, args ...any) {
	b.bus.Warnf(b.name, format, args...)
}

// Cmdf publishes a command line attributed to this plugin. Plugins
// never call each other directly; they go through the bus.
func (b Base) Cmdf(format string, args ...any) {
	b.bus.Cmdf(b.name, format, args...)
}
