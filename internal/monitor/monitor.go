// Package monitor watches the share folder and reports settled file
// changes to the sync plugin.
//
// Raw notify events are too chatty to act on directly: one file copy
// produces a burst of writes. Events are debounced per path, and only
// the settled modify/remove is forwarded as a bus command with the
// share-relative path base64-encoded (paths may contain spaces and
// shell metacharacters).
package monitor

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"homelink/internal/bus"
	"homelink/internal/errors"
	"homelink/internal/plugin"
)

// PluginName is the bus address of the monitor plugin.
const PluginName = "monitor"

const (
	kindModify = "modify"
	kindRemove = "remove"
)

// Plugin is the share folder watcher. Watching starts when the
// bootstrap script sends `p monitor start`.
type Plugin struct {
	plugin.Base
	root     string
	debounce *debouncer

	start chan struct{}
}

// New creates the monitor plugin for one share root.
func New(b *bus.Bus, root string, debounceDelay time.Duration) *Plugin {
	return &Plugin{
		Base:     plugin.NewBase(PluginName, b),
		root:     filepath.Clean(root),
		debounce: newDebouncer(debounceDelay),
		start:    make(chan struct{}),
	}
}

// Handle implements plugin.Plugin.
//
// Actions:
//
//	start  begin watching the share folder
func (p *Plugin) Handle(_ context.Context, action string, _ []string) error {
	switch action {
	case "start":
		select {
		case <-p.start:
			// already started
		default:
			close(p.start)
		}
		return nil
	default:
		return fmt.Errorf("%w: monitor %s", errors.ErrInvalidCommand, action)
	}
}

// Run waits for the start command, then watches until ctx is canceled.
func (p *Plugin) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.start:
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer func() { _ = watcher.Close() }()
	defer p.debounce.stop()

	if err := p.watchTree(watcher, p.root); err != nil {
		return err
	}
	p.Infof("watching %s", p.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			p.handleEvent(watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.Infof("watch error: %v", err)
		}
	}
}

// watchTree adds watches for dir and every directory below it. The
// notify API is per-directory; recursion is ours to maintain.
func (p *Plugin) watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		return errors.Wrapf(watcher.Add(path), "failed to watch %s", path)
	})
}

func (p *Plugin) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Has(fsnotify.Create):
		// New directories must be added to the watch set immediately;
		// their contents are only seen through them. New files are
		// reported via the write events that follow.
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := p.watchTree(watcher, path); err != nil {
				p.Infof("failed to watch new directory %s: %v", path, err)
			}
		}
	case event.Has(fsnotify.Write):
		p.debounce.trigger(debounceKey{path: path, kind: kindModify}, func() {
			p.emit("file_modify", path)
		})
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		p.debounce.trigger(debounceKey{path: path, kind: kindRemove}, func() {
			p.emit("file_remove", path)
		})
	}
}

// emit forwards one settled change to the sync plugin.
func (p *Plugin) emit(action, path string) {
	rel, err := filepath.Rel(p.root, path)
	if err != nil || rel == "." {
		return
	}
	p.Infof("%s: %s", action, rel)
	p.Cmdf("p nas %s %s", action, base64.StdEncoding.EncodeToString([]byte(rel)))
}
