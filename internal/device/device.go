// Package device tracks the fleet: every node seen on the broker and
// the facts it last reported.
package device

import (
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"homelink/internal/clock"
)

// Device is one fleet node's last known state. Pointer fields are nil
// until the node reports that fact.
type Device struct {
	// TS is when any fact last changed.
	TS time.Time

	// Name is the node name from the topic.
	Name string

	// Onboard is whether the node is currently connected.
	Onboard bool

	// Version is the node's reported release, empty until seen.
	Version string

	// TailscaleIP is the node's tailnet address, empty until seen.
	TailscaleIP string

	// Temperature is the CPU temperature in °C.
	Temperature *float64

	// AppUptime is how long the node's daemon has been running.
	AppUptime *time.Duration
}

// Stale reports whether the device runs an older release than ours.
// Unknown or unparsable versions are not flagged; a node that never
// reported is not necessarily behind.
func (d *Device) Stale(current string) bool {
	if d.Version == "" {
		return false
	}
	have, err := semver.NewVersion(d.Version)
	if err != nil {
		return false
	}
	want, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return have.LessThan(want)
}

// Registry is the concurrent device table. The plugin writes it from
// bus commands; the dashboard reads snapshots.
type Registry struct {
	mu      sync.RWMutex
	clk     clock.Clock
	devices map[string]*Device
}

// NewRegistry creates an empty Registry.
func NewRegistry(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Registry{clk: clk, devices: make(map[string]*Device)}
}

// SetOnboard upserts a device's onboard state. The bool reports whether
// the state actually changed (first sighting counts as a change).
func (r *Registry) SetOnboard(name string, onboard bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		r.devices[name] = &Device{TS: r.clk.Now(), Name: name, Onboard: onboard}
		return true
	}
	changed := d.Onboard != onboard
	d.TS = r.clk.Now()
	d.Onboard = onboard
	return changed
}

// update mutates an existing device. Facts for unknown devices are
// dropped; a node announces itself via onboard first.
func (r *Registry) update(name string, fn func(*Device)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok {
		return false
	}
	d.TS = r.clk.Now()
	fn(d)
	return true
}

// SetVersion records a device's reported release.
func (r *Registry) SetVersion(name, version string) bool {
	return r.update(name, func(d *Device) { d.Version = version })
}

// SetTailscaleIP records a device's tailnet address.
func (r *Registry) SetTailscaleIP(name, ip string) bool {
	return r.update(name, func(d *Device) { d.TailscaleIP = ip })
}

// SetTemperature records a device's CPU temperature.
func (r *Registry) SetTemperature(name string, t float64) bool {
	return r.update(name, func(d *Device) { d.Temperature = &t })
}

// SetAppUptime records a device's daemon uptime.
func (r *Registry) SetAppUptime(name string, up time.Duration) bool {
	return r.update(name, func(d *Device) { d.AppUptime = &up })
}

// Get returns a copy of one device.
func (r *Registry) Get(name string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[name]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// List returns copies of all devices, sorted by name.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
