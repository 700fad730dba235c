package cli

import (
	"context"
	stderrors "errors"
	"net"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"homelink/internal/bus"
	"homelink/internal/clock"
	"homelink/internal/config"
	"homelink/internal/constants"
	"homelink/internal/device"
	"homelink/internal/errors"
	"homelink/internal/media"
	"homelink/internal/monitor"
	"homelink/internal/mqtt"
	"homelink/internal/nas"
	"homelink/internal/plugin"
	"homelink/internal/script"
	"homelink/internal/signal"
	"homelink/internal/sysinfo"
	"homelink/internal/todo"
	"homelink/internal/tui"
	"homelink/internal/weather"
	"homelink/internal/web"
)

// daemon wires the bus, the plugin registry, and the HTTP server into
// one runnable unit shared by `run` and `dashboard`.
type daemon struct {
	cfg      *config.Config
	logger   zerolog.Logger
	bus      *bus.Bus
	registry *plugin.Registry
	feed     *tui.Feed

	devices *device.Registry
	nas     *nas.Plugin
	weather *weather.Plugin
	todos   *todo.Plugin
	web     *web.Server
}

// newDaemon builds every component from the configuration.
func newDaemon(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*daemon, error) {
	clk := clock.RealClock{}

	b := bus.New(logger, clk)
	reg := plugin.NewRegistry()
	b.SetDispatcher(reg.Dispatch)

	feed := tui.NewFeed(tui.DefaultFeedCapacity)
	b.AddSink(feed.Add)

	store, err := nas.NewStore(cfg.Share.Folder)
	if err != nil {
		return nil, err
	}
	webPort, err := portOf(cfg.Web.Addr)
	if err != nil {
		return nil, err
	}
	nasPlug := nas.New(b, store, nas.NewTransport(constants.SyncRequestTimeout), cfg.Node.Name, webPort)

	devReg := device.NewRegistry(clk)
	weatherPlug := weather.New(b, weather.NewClient(cfg.Weather), cfg.Intervals.Weather)
	todoPlug := todo.New(b, clk, cfg.Intervals.TodoCheck)

	broker := mqtt.NewBroker(cfg.MQTT, cfg.Node.Name, logger)

	plugins := []plugin.Plugin{
		script.New(b, cfg.Node.Script),
		mqtt.New(b, broker, cfg.MQTT.TopicPrefix),
		device.New(b, devReg),
		sysinfo.NewSystem(ctx, b, sysinfo.Host{}, cfg.Intervals.Publish),
		nasPlug,
		monitor.New(b, cfg.Share.Folder, cfg.Intervals.Debounce),
		media.New(b, cfg.Media, media.ExecRunner{}),
		weatherPlug,
		todoPlug,
		plugin.NewList(b, reg),
	}
	for _, p := range plugins {
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}

	d := &daemon{
		cfg:      cfg,
		logger:   logger,
		bus:      b,
		registry: reg,
		feed:     feed,
		devices:  devReg,
		nas:      nasPlug,
		weather:  weatherPlug,
		todos:    todoPlug,
	}
	if cfg.Web.Enabled {
		d.web = web.New(cfg.Web.Addr, cfg.Node.Name, constants.Version,
			nasPlug, logger, clk)
	}
	return d, nil
}

// run supervises the bus, the plugin background loops, and the web
// server until the context is canceled or a component fails.
func (d *daemon) run(parent context.Context) error {
	handler := signal.NewHandler(parent)
	defer handler.Stop()
	defer func() { _ = d.nas.Store().Close() }()
	ctx := handler.Context()

	// `exit` on the bus takes the whole daemon down.
	d.bus.SetShutdown(handler.RequestShutdown)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.bus.Run(ctx) })
	for _, r := range d.registry.Runners() {
		g.Go(func() error { return r.Run(ctx) })
	}
	if d.web != nil {
		g.Go(func() error { return d.web.Run(ctx) })
	}

	// Replay the bootstrap script once everything is listening.
	d.bus.Cmdf(constants.AppName, "p script run")

	if err := g.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// snapshot feeds the dashboard's refresh.
func (d *daemon) snapshot() tui.Snapshot {
	return tui.Snapshot{
		Devices: d.devices.List(),
		State:   d.nas.State(),
		Peers:   d.nas.Peers(),
		Cities:  d.weather.Cities(),
		Todos:   d.todos.Occurrences(),
	}
}

func portOf(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, errors.Wrapf(err, "bad web address %q", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, errors.Wrapf(err, "bad web port %q", portStr)
	}
	return port, nil
}
