package plugin

import (
	"context"
	"fmt"
	"strings"

	"homelink/internal/bus"
	"homelink/internal/errors"
)

// ListPluginName is the bus address of the registry listing plugin.
const ListPluginName = "plugins"

// List answers `p plugins show` with the registered plugin names, so
// an operator at the console can discover what is wired in.
type List struct {
	Base
	reg *Registry
}

// NewList creates the listing plugin over reg.
func NewList(b *bus.Bus, reg *Registry) *List {
	return &List{Base: NewBase(ListPluginName, b), reg: reg}
}

// Handle implements Plugin.
//
// Actions:
//
//	show  list the registered plugins
func (l *List) Handle(_ context.Context, action string, _ []string) error {
	if action != "show" {
		return fmt.Errorf("%w: plugins %s", errors.ErrInvalidCommand, action)
	}
	l.Infof("registered: %s", strings.Join(l.reg.Names(), " "))
	return nil
}
