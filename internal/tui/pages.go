package tui

import (
	"fmt"
	"strings"
	"time"

	"homelink/internal/device"
	"homelink/internal/nas"
	"homelink/internal/sysinfo"
	"homelink/internal/todo"
	"homelink/internal/weather"
)

// Page identifies one dashboard view.
type Page int

const (
	PageDevices Page = iota
	PageNAS
	PageWeather
	PageTodos

	pageCount
)

// String returns the tab label.
func (p Page) String() string {
	switch p {
	case PageDevices:
		return "Devices"
	case PageNAS:
		return "NAS"
	case PageWeather:
		return "Weather"
	case PageTodos:
		return "Todos"
	}
	return "?"
}

// Snapshot is one refresh worth of fleet data.
type Snapshot struct {
	Devices []device.Device
	State   nas.State
	Peers   []nas.Peer
	Cities  []weather.City
	Todos   []todo.Occurrence
}

// renderDevices renders the fleet table.
func renderDevices(b *strings.Builder, snap *Snapshot, version string, now time.Time) {
	if len(snap.Devices) == 0 {
		b.WriteString(styleMuted.Render("no devices seen yet") + "\n")
		return
	}
	fmt.Fprintf(b, "%-16s %-8s %-10s %-16s %-8s %-10s %s\n",
		"name", "onboard", "version", "tailscale ip", "temp", "uptime", "seen")
	for i := range snap.Devices {
		d := snap.Devices[i]

		onboard := styleBad.Render("off")
		if d.Onboard {
			onboard = styleGood.Render("on")
		}
		ver := d.Version
		if d.Stale(version) {
			ver = styleWarn.Render(ver + "!")
		}
		temp := sysinfo.NotAvailable
		if d.Temperature != nil {
			temp = sysinfo.TemperatureString(*d.Temperature, true)
		}
		uptime := sysinfo.NotAvailable
		if d.AppUptime != nil {
			uptime = sysinfo.UptimeString(*d.AppUptime)
		}
		fmt.Fprintf(b, "%-16s %-8s %-10s %-16s %-8s %-10s %s\n",
			d.Name, onboard, ver, orDash(d.TailscaleIP), temp, uptime,
			now.Sub(d.TS).Round(time.Second))
	}
}

// renderNAS renders our sync state and every peer's.
func renderNAS(b *strings.Builder, snap *Snapshot) {
	fmt.Fprintf(b, "state: %s\n\n", renderState(snap.State))
	if len(snap.Peers) == 0 {
		b.WriteString(styleMuted.Render("no peers") + "\n")
		return
	}
	fmt.Fprintf(b, "%-16s %-8s %-16s %s\n", "peer", "onboard", "tailscale ip", "state")
	for _, p := range snap.Peers {
		onboard := styleBad.Render("off")
		if p.Onboard {
			onboard = styleGood.Render("on")
		}
		fmt.Fprintf(b, "%-16s %-8s %-16s %s\n",
			p.Name, onboard, orDash(p.TailscaleIP), renderState(p.State))
	}
}

func renderState(s nas.State) string {
	switch s {
	case nas.StateSynced:
		return styleGood.Render(s.String())
	case nas.StateError:
		return styleBad.Render(s.String())
	case nas.StateSyncing:
		return styleWarn.Render(s.String())
	default:
		return styleMuted.Render(s.String())
	}
}

// renderWeather renders one line per city plus the daily outlook of
// the first city with a forecast.
func renderWeather(b *strings.Builder, snap *Snapshot) {
	if len(snap.Cities) == 0 {
		b.WriteString(styleMuted.Render("no cities, try `p weather add <name> <lat> <lon>`") + "\n")
		return
	}
	for i := range snap.Cities {
		c := snap.Cities[i]
		if c.Forecast == nil {
			fmt.Fprintf(b, "%-16s %s\n", c.Name, styleMuted.Render("pending"))
			continue
		}
		cur := c.Forecast.Current
		fmt.Fprintf(b, "%-16s %5.1f°C  %s\n", c.Name, cur.Temperature, weather.CodeString(cur.Code))
	}
	for i := range snap.Cities {
		c := snap.Cities[i]
		if c.Forecast == nil || len(c.Forecast.Daily) == 0 {
			continue
		}
		fmt.Fprintf(b, "\n%s\n", styleTitle.Render(c.Name))
		for _, d := range c.Forecast.Daily {
			fmt.Fprintf(b, "%-12s %5.1f / %5.1f°C  %3d%%  %s\n",
				d.Time, d.TempMin, d.TempMax, d.PrecipChance, weather.CodeString(d.Code))
		}
		break
	}
}

// renderTodos renders pending occurrences first.
func renderTodos(b *strings.Builder, snap *Snapshot) {
	if len(snap.Todos) == 0 {
		b.WriteString(styleMuted.Render("nothing scheduled") + "\n")
		return
	}
	fmt.Fprintf(b, "%-3s %-4s %-16s %s\n", "idx", "done", "time", "name")
	for i, o := range snap.Todos {
		done := styleMuted.Render("-")
		name := o.Name
		switch {
		case o.Done:
			done = styleGood.Render("y")
		case o.Due:
			name = styleBad.Render(name)
		case o.Reminded:
			name = styleWarn.Render(name)
		}
		fmt.Fprintf(b, "%-3d %-4s %-16s %s\n", i, done, o.Time.Format("2006/01/02-15:04"), name)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
