// Package script replays bootstrap scripts onto the bus.
//
// A script is a plain text file with one bus command per line; `#`
// starts a comment. The daemon runs the configured script once at
// startup; `p script init <path>` replays another file and remembers
// it, `p script run` replays the remembered one again, and
// `p script show` prints its contents without executing anything.
package script

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"homelink/internal/bus"
	"homelink/internal/errors"
	"homelink/internal/plugin"
)

// PluginName is the bus address of the script plugin.
const PluginName = "script"

// Plugin replays script files line by line onto the bus.
type Plugin struct {
	plugin.Base

	mu       sync.Mutex
	lastPath string
}

// New creates the script plugin. defaultPath is the configured
// bootstrap script, replayed until another path is named.
func New(b *bus.Bus, defaultPath string) *Plugin {
	return &Plugin{
		Base:     plugin.NewBase(PluginName, b),
		lastPath: defaultPath,
	}
}

// Handle implements plugin.Plugin.
//
// Actions:
//
//	init <path>  replay a script file and remember its path
//	run [path]   replay a file (default: the remembered one)
//	show         print the remembered file without executing it
func (p *Plugin) Handle(_ context.Context, action string, args []string) error {
	switch action {
	case "init":
		if len(args) != 1 {
			return fmt.Errorf("%w: want init <path>", errors.ErrInvalidCommand)
		}
		p.setPath(args[0])
		return p.runFile(args[0])
	case "run":
		path := p.path()
		if len(args) > 0 {
			path = args[0]
			p.setPath(path)
		}
		return p.runFile(path)
	case "show":
		return p.showFile(p.path())
	default:
		return fmt.Errorf("%w: script %s", errors.ErrInvalidCommand, action)
	}
}

func (p *Plugin) path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPath
}

func (p *Plugin) setPath(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPath = path
}

// runFile publishes every command line of the file onto the bus. A
// missing file is normal on a fresh node and only warned about.
func (p *Plugin) runFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // operator-supplied script path
	if err != nil {
		if os.IsNotExist(err) {
			p.Warnf("no script at %s", path)
			return nil
		}
		return errors.Wrapf(err, "failed to open script %s", path)
	}
	defer func() { _ = f.Close() }()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p.Cmdf("%s", line)
		count++
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "failed to read script %s", path)
	}

	p.Infof("replayed %d commands from %s", count, path)
	return nil
}

// showFile prints the file to the feed verbatim, comments included.
func (p *Plugin) showFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // operator-supplied script path
	if err != nil {
		return errors.Wrapf(err, "failed to open script %s", path)
	}
	defer func() { _ = f.Close() }()

	p.Infof("-- %s --", path)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		p.Infof("%s", scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "failed to read script %s", path)
	}
	return nil
}
