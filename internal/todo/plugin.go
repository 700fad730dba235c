package todo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"homelink/internal/bus"
	"homelink/internal/clock"
	"homelink/internal/errors"
	"homelink/internal/plugin"
)

// PluginName is the bus address of the todo plugin.
const PluginName = "todo"

// Plugin keeps reminder definitions and their expanded occurrences and
// scans them periodically for reminders coming up and items falling
// due.
type Plugin struct {
	plugin.Base

	clk      clock.Clock
	interval time.Duration

	mu   sync.Mutex
	defs []*Definition
	occs []*Occurrence
}

// New creates the todo plugin. interval is the check period.
func New(b *bus.Bus, clk clock.Clock, interval time.Duration) *Plugin {
	return &Plugin{
		Base:     plugin.NewBase(PluginName, b),
		clk:      clk,
		interval: interval,
	}
}

// Run implements plugin.Runner: it triggers a check immediately, then
// every interval, until the context ends.
func (p *Plugin) Run(ctx context.Context) error {
	p.Cmdf("p %s check", PluginName)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Cmdf("p %s check", PluginName)
		}
	}
}

// Handle implements plugin.Plugin.
//
// Actions:
//
//	add <name> <once|daily|weekdays> <time> [reminder-mins]
//	done <idx>      mark an occurrence done
//	undone <idx>    revert an occurrence to pending
//	check           scan for reminders and due items
//	show            print definitions and occurrences
func (p *Plugin) Handle(_ context.Context, action string, args []string) error {
	switch action {
	case "add":
		return p.handleAdd(args)
	case "done":
		return p.handleDone(args, true)
	case "undone":
		return p.handleDone(args, false)
	case "check":
		p.check()
		return nil
	case "show":
		p.handleShow()
		return nil
	default:
		return fmt.Errorf("%w: todo %s", errors.ErrInvalidCommand, action)
	}
}

func (p *Plugin) handleAdd(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: todo add needs name, frequency and time", errors.ErrInvalidCommand)
	}
	freq, err := ParseFrequency(args[1])
	if err != nil {
		return err
	}
	var reminder time.Duration
	if len(args) > 3 {
		mins, err := strconv.Atoi(args[3])
		if err != nil || mins < 0 {
			return fmt.Errorf("%w: bad reminder %q", errors.ErrInvalidCommand, args[3])
		}
		reminder = time.Duration(mins) * time.Minute
	}

	def := &Definition{
		ID:        uuid.New(),
		Name:      args[0],
		Frequency: freq,
		At:        args[2],
		Reminder:  reminder,
	}
	occs, err := def.Expand(p.clk.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.defs = append(p.defs, def)
	p.occs = append(p.occs, occs...)
	sort.SliceStable(p.occs, func(i, j int) bool { return p.occs[i].Time.Before(p.occs[j].Time) })
	p.mu.Unlock()

	p.Infof("added %s %s %s, reminder %d mins",
		def.Name, def.Frequency, def.At, int(reminder.Minutes()))
	return nil
}

func (p *Plugin) handleDone(args []string, done bool) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: todo done needs an index", errors.ErrInvalidCommand)
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: bad index %q", errors.ErrInvalidCommand, args[0])
	}

	p.mu.Lock()
	if idx < 0 || idx >= len(p.occs) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d", errors.ErrOccurrenceNotFound, idx)
	}
	occ := p.occs[idx]
	occ.Done = done
	name := occ.Name
	p.mu.Unlock()

	if done {
		p.Infof("marked done: %s", name)
	} else {
		p.Infof("marked pending: %s", name)
	}
	return nil
}

// check marks occurrences due and fires reminders. Items already done
// are kept for the listing but stay silent.
func (p *Plugin) check() {
	now := p.clk.Now()
	var notes []string

	p.mu.Lock()
	for _, occ := range p.occs {
		if !occ.Time.After(now) {
			occ.Due = true
		}
		if occ.Done {
			continue
		}
		if !occ.Reminded && !occ.Time.Add(-occ.Reminder).After(now) {
			occ.Reminded = true
			notes = append(notes, fmt.Sprintf("reminder: %s at %s",
				occ.Name, occ.Time.Format(layoutOnce)))
		}
		if occ.Due {
			notes = append(notes, fmt.Sprintf("due: %s at %s",
				occ.Name, occ.Time.Format(layoutOnce)))
		}
	}
	p.mu.Unlock()

	for _, n := range notes {
		p.Infof("%s", n)
	}
}

func (p *Plugin) handleShow() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Infof("%-3s %-16s %-9s %-16s %s", "idx", "name", "freq", "time", "reminder")
	for i, d := range p.defs {
		p.Infof("%-3d %-16s %-9s %-16s %dm", i, d.Name, d.Frequency, d.At, int(d.Reminder.Minutes()))
	}
	p.Infof("%-3s %-4s %-4s %-4s %-16s %s", "idx", "done", "rem", "due", "name", "time")
	for i, o := range p.occs {
		p.Infof("%-3d %-4s %-4s %-4s %-16s %s",
			i, mark(o.Done), mark(o.Reminded), mark(o.Due), o.Name, o.Time.Format(layoutOnce))
	}
}

// Occurrences returns a snapshot sorted by time, for the dashboard.
func (p *Plugin) Occurrences() []Occurrence {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Occurrence, 0, len(p.occs))
	for _, o := range p.occs {
		out = append(out, *o)
	}
	return out
}

func mark(b bool) string {
	if b {
		return "y"
	}
	return "-"
}
