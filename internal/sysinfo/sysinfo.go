// Package sysinfo reads host facts (uptime, CPU temperature, tailscale
// address) and publishes them to the fleet via the system plugin.
package sysinfo

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/sensors"
)

// Provider reads host facts. The daemon uses Host; tests substitute a
// stub.
type Provider interface {
	// Uptime returns how long the host has been up.
	Uptime(ctx context.Context) (time.Duration, error)

	// CPUTemperature returns the CPU package temperature in °C. The
	// bool is false when the host exposes no usable sensor.
	CPUTemperature(ctx context.Context) (float64, bool)

	// TailscaleIP returns the node's tailnet IPv4 address, if any.
	TailscaleIP() (string, bool)
}

// Host is the Provider backed by the real machine.
type Host struct{}

// Uptime implements Provider.
func (Host) Uptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil //nolint:gosec // uptime fits
}

// CPUTemperature implements Provider. The first sensor whose key
// mentions the CPU wins; boards disagree wildly on sensor naming.
func (Host) CPUTemperature(ctx context.Context) (float64, bool) {
	stats, err := sensors.TemperaturesWithContext(ctx)
	if err != nil {
		return 0, false
	}
	for _, s := range stats {
		if strings.Contains(strings.ToLower(s.SensorKey), "cpu") {
			return s.Temperature, true
		}
	}
	return 0, false
}

// netInterface is the slice of net.Interface the detection needs,
// decoupled so tests can feed synthetic interfaces.
type netInterface struct {
	Name  string
	Addrs []net.Addr
}

// TailscaleIP implements Provider. Linux exposes a tailscale*
// interface; macOS hides it behind a utun* device, where the 100.x
// CGNAT first octet identifies the tailnet address.
func (Host) TailscaleIP() (string, bool) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", false
	}
	list := make([]netInterface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		list = append(list, netInterface{Name: iface.Name, Addrs: addrs})
	}
	return tailscaleIPFrom(list)
}

func tailscaleIPFrom(ifaces []netInterface) (string, bool) {
	for _, iface := range ifaces {
		named := strings.HasPrefix(iface.Name, "tailscale")
		tunnel := strings.HasPrefix(iface.Name, "utun")
		if !named && !tunnel {
			continue
		}

		for _, addr := range iface.Addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			if named || ip4[0] == 100 {
				return ip4.String(), true
			}
		}
	}
	return "", false
}
