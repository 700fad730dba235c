package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"homelink/internal/bus"
	"homelink/internal/errors"
)

// Registry holds the installed plugins and dispatches bus commands to
// them. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register installs a plugin under its name. Registering the same name
// twice is a wiring bug and returns ErrPluginExists.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[p.Name()]; ok {
		return fmt.Errorf("%w: %s", errors.ErrPluginExists, p.Name())
	}
	r.plugins[p.Name()] = p
	return nil
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownPlugin, name)
	}
	return p, nil
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Runners returns the plugins that carry a background loop, in name
// order so startup is deterministic.
func (r *Registry) Runners() []Runner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)

	var runners []Runner
	for _, name := range names {
		if runner, ok := r.plugins[name].(Runner); ok {
			runners = append(runners, runner)
		}
	}
	return runners
}

// Dispatch routes a parsed bus command to its plugin.
func (r *Registry) Dispatch(ctx context.Context, cmd bus.Command) error {
	p, err := r.Get(cmd.Plugin)
	if err != nil {
		return err
	}
	return p.Handle(ctx, cmd.Action, cmd.Args)
}
