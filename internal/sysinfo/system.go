package sysinfo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"homelink/internal/bus"
	"homelink/internal/constants"
	"homelink/internal/errors"
	"homelink/internal/plugin"
)

// PluginName is the bus address of the system plugin.
const PluginName = "system"

// SystemPlugin publishes this node's facts to the fleet and republishes
// them on an interval so peers that missed a message catch up.
type SystemPlugin struct {
	plugin.Base
	provider Provider
	interval time.Duration

	version     string
	tailscaleIP string
	hasIP       bool
	startUptime time.Duration
}

// NewSystem creates the system plugin. The tailnet address and the
// start-of-process uptime are captured once here; the address does not
// move while the daemon runs.
func NewSystem(ctx context.Context, b *bus.Bus, provider Provider, interval time.Duration) *SystemPlugin {
	p := &SystemPlugin{
		Base:     plugin.NewBase(PluginName, b),
		provider: provider,
		interval: interval,
		version:  constants.Version,
	}
	p.tailscaleIP, p.hasIP = provider.TailscaleIP()
	if up, err := provider.Uptime(ctx); err == nil {
		p.startUptime = up
	}
	return p
}

// Run republishes node state every interval until ctx is canceled.
func (p *SystemPlugin) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Cmdf("p %s publish", PluginName)
		}
	}
}

// Handle implements plugin.Plugin.
//
// Actions:
//
//	show     log this node's facts
//	publish  push every fact to the broker
func (p *SystemPlugin) Handle(ctx context.Context, action string, _ []string) error {
	switch action {
	case "show":
		p.handleShow(ctx)
		return nil
	case "publish":
		p.handlePublish(ctx)
		return nil
	default:
		return fmt.Errorf("%w: system %s", errors.ErrInvalidCommand, action)
	}
}

func (p *SystemPlugin) handleShow(ctx context.Context) {
	p.Infof("version: v%s", p.version)
	p.Infof("tailscale ip: %s", p.ipString())
	temp, ok := p.provider.CPUTemperature(ctx)
	p.Infof("temperature: %s", TemperatureString(temp, ok))
	p.Infof("app uptime: %s", UptimeString(p.appUptime(ctx)))
}

// handlePublish pushes every fact through the mqtt plugin. Payloads are
// unretained; the retained onboard flag is owned by the mqtt session
// itself (connect message and last will).
func (p *SystemPlugin) handlePublish(ctx context.Context) {
	p.Cmdf("p mqtt publish false %s 1", constants.KeyOnboard)
	p.Cmdf("p mqtt publish false %s %s", constants.KeyVersion, p.version)
	p.Cmdf("p mqtt publish false %s %s", constants.KeyTailscaleIP, p.ipString())

	temp, ok := p.provider.CPUTemperature(ctx)
	if !ok {
		temp = 0
	}
	p.Cmdf("p mqtt publish false %s %s", constants.KeyTemperature,
		strconv.FormatFloat(temp, 'f', 1, 64))

	p.Cmdf("p mqtt publish false %s %d", constants.KeyAppUptime,
		int64(p.appUptime(ctx).Seconds()))
}

// appUptime is how long this daemon has been running, measured against
// host uptime so a suspended laptop does not inflate it.
func (p *SystemPlugin) appUptime(ctx context.Context) time.Duration {
	up, err := p.provider.Uptime(ctx)
	if err != nil || up < p.startUptime {
		return 0
	}
	return up - p.startUptime
}

func (p *SystemPlugin) ipString() string {
	if !p.hasIP {
		return NotAvailable
	}
	return p.tailscaleIP
}
