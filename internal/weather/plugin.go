package weather

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"homelink/internal/bus"
	"homelink/internal/errors"
	"homelink/internal/plugin"
)

// PluginName is the bus address of the weather plugin.
const PluginName = "weather"

// City is one watched place and its latest forecast.
type City struct {
	Name      string
	Latitude  float64
	Longitude float64

	// Forecast is nil until the first successful poll.
	Forecast *Forecast
}

// Plugin polls forecasts for the configured cities.
type Plugin struct {
	plugin.Base
	getter   Getter
	interval time.Duration

	startOnce sync.Once
	start     chan struct{}

	mu     sync.RWMutex
	cities []*City
}

// New creates the weather plugin.
func New(b *bus.Bus, getter Getter, interval time.Duration) *Plugin {
	return &Plugin{
		Base:     plugin.NewBase(PluginName, b),
		getter:   getter,
		interval: interval,
		start:    make(chan struct{}),
	}
}

// Run waits for `init`, then polls every interval until ctx is
// canceled. The first poll runs immediately so the dashboard is not
// empty for fifteen minutes.
func (p *Plugin) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.start:
	}

	p.update(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.update(ctx)
		}
	}
}

// Handle implements plugin.Plugin.
//
// Actions:
//
//	add <name> <latitude> <longitude>  watch a city
//	init                               start the poll loop
//	update                             poll now
//	show                               log current conditions
func (p *Plugin) Handle(ctx context.Context, action string, args []string) error {
	switch action {
	case "add":
		return p.handleAdd(args)
	case "init":
		p.startOnce.Do(func() { close(p.start) })
		p.Infof("polling every %s", p.interval)
		return nil
	case "update":
		p.update(ctx)
		return nil
	case "show":
		p.handleShow()
		return nil
	default:
		return fmt.Errorf("%w: weather %s", errors.ErrInvalidCommand, action)
	}
}

func (p *Plugin) handleAdd(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: want add <name> <latitude> <longitude>", errors.ErrInvalidCommand)
	}
	lat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%w: latitude %q", errors.ErrInvalidCommand, args[1])
	}
	lon, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("%w: longitude %q", errors.ErrInvalidCommand, args[2])
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.cities {
		if c.Name == args[0] {
			return nil
		}
	}
	p.cities = append(p.cities, &City{Name: args[0], Latitude: lat, Longitude: lon})
	p.Infof("watching %s (%.4f, %.4f)", args[0], lat, lon)
	return nil
}

// update polls every city concurrently and waits for all of them.
// Failures are warned per city so one broken coordinate does not hide
// the rest.
func (p *Plugin) update(ctx context.Context) {
	p.mu.RLock()
	cities := make([]*City, len(p.cities))
	copy(cities, p.cities)
	p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, c := range cities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := p.getter.Get(ctx, c.Latitude, c.Longitude)
			if err != nil {
				p.Warnf("poll failed for %s: %v", c.Name, err)
				return
			}
			p.mu.Lock()
			c.Forecast = f
			p.mu.Unlock()
			p.Infof("%s: %.1f°C, %s", c.Name, f.Current.Temperature, CodeString(f.Current.Code))
		}()
	}
	wg.Wait()
}

func (p *Plugin) handleShow() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.cities) == 0 {
		p.Infof("no cities watched")
		return
	}
	p.Infof("%-12s %-7s %s", "Name", "Temp", "Sky")
	for _, c := range p.cities {
		if c.Forecast == nil {
			p.Infof("%-12s %-7s", c.Name, "n/a")
			continue
		}
		p.Infof("%-12s %-7s %s", c.Name,
			fmt.Sprintf("%.1f°C", c.Forecast.Current.Temperature),
			CodeString(c.Forecast.Current.Code))
	}
}

// Cities returns a snapshot for read-side consumers.
func (p *Plugin) Cities() []City {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]City, 0, len(p.cities))
	for _, c := range p.cities {
		cp := *c
		if c.Forecast != nil {
			f := *c.Forecast
			f.Daily = append([]Daily(nil), c.Forecast.Daily...)
			cp.Forecast = &f
		}
		out = append(out, cp)
	}
	return out
}
