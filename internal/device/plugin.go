package device

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"homelink/internal/bus"
	"homelink/internal/constants"
	"homelink/internal/errors"
	"homelink/internal/plugin"
	"homelink/internal/sysinfo"
)

// PluginName is the bus address of the device plugin.
const PluginName = "device"

// Plugin maintains the fleet registry from incoming broker messages and
// fans peer changes out to the share sync plugin.
type Plugin struct {
	plugin.Base
	registry *Registry
}

// New creates the device plugin around a shared registry.
func New(b *bus.Bus, registry *Registry) *Plugin {
	return &Plugin{
		Base:     plugin.NewBase(PluginName, b),
		registry: registry,
	}
}

// Registry exposes the table for read-side consumers (dashboard, web).
func (p *Plugin) Registry() *Registry { return p.registry }

// Handle implements plugin.Plugin.
//
// Fact actions arrive from the mqtt plugin as
// `p device <key> <node> <payload>`:
//
//	onboard <node> <0|1>
//	version <node> <semver>
//	tailscale_ip <node> <ip>
//	temperature <node> <celsius>
//	app_uptime <node> <seconds>
//	show               log the whole fleet
func (p *Plugin) Handle(_ context.Context, action string, args []string) error {
	if action == "show" {
		p.handleShow()
		return nil
	}

	if len(args) < 2 {
		return fmt.Errorf("%w: device %s wants <node> <value>", errors.ErrInvalidCommand, action)
	}
	name, value := args[0], args[1]

	switch action {
	case constants.KeyOnboard:
		p.handleOnboard(name, value)
	case constants.KeyVersion:
		p.registry.SetVersion(name, value)
	case constants.KeyTailscaleIP:
		if p.registry.SetTailscaleIP(name, value) {
			p.Cmdf("p nas peer %s %s %s", constants.KeyTailscaleIP, name, value)
		}
	case constants.KeyTemperature:
		t, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: temperature %q", errors.ErrInvalidCommand, value)
		}
		p.registry.SetTemperature(name, t)
	case constants.KeyAppUptime:
		secs, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: app_uptime %q", errors.ErrInvalidCommand, value)
		}
		p.registry.SetAppUptime(name, time.Duration(secs)*time.Second)
	default:
		return fmt.Errorf("%w: device %s", errors.ErrInvalidCommand, action)
	}
	return nil
}

// handleOnboard upserts the peer and, when a peer just came up, pushes
// our own state immediately so it does not wait a full publish cycle.
func (p *Plugin) handleOnboard(name, value string) {
	onboard := value == "1"
	if p.registry.SetOnboard(name, onboard) {
		p.Infof("%s is %s", name, sysinfo.OnboardString(onboard))
		if onboard {
			p.Cmdf("p system publish")
		}
	}
	p.Cmdf("p nas peer %s %s %s", constants.KeyOnboard, name, value)
}

func (p *Plugin) handleShow() {
	devices := p.registry.List()
	if len(devices) == 0 {
		p.Infof("no devices seen yet")
		return
	}
	for _, d := range devices {
		flag := ""
		if d.Stale(constants.Version) {
			flag = " (stale)"
		}
		p.Infof("%s%s", d.Name, flag)
		p.Infof("    last update: %s", d.TS.Format(time.RFC3339))
		p.Infof("    onboard: %s", sysinfo.OnboardString(d.Onboard))
		p.Infof("    version: %s", orNA(d.Version))
		p.Infof("    ip: %s", orNA(d.TailscaleIP))
		if d.Temperature != nil {
			p.Infof("    temperature: %s", sysinfo.TemperatureString(*d.Temperature, true))
		} else {
			p.Infof("    temperature: %s", sysinfo.NotAvailable)
		}
		if d.AppUptime != nil {
			p.Infof("    app uptime: %s", sysinfo.UptimeString(*d.AppUptime))
		} else {
			p.Infof("    app uptime: %s", sysinfo.NotAvailable)
		}
	}
}

func orNA(s string) string {
	if s == "" {
		return sysinfo.NotAvailable
	}
	return s
}
