package sysinfo

import (
	"fmt"
	"time"
)

// NotAvailable is shown for facts the node never reported.
const NotAvailable = "n/a"

// UptimeString renders a duration as "2d 03:04:05".
func UptimeString(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	secs -= days * 86400
	hours := secs / 3600
	secs -= hours * 3600
	minutes := secs / 60
	seconds := secs % 60
	return fmt.Sprintf("%dd %02d:%02d:%02d", days, hours, minutes, seconds)
}

// TemperatureString renders a temperature as "45.2°C", or n/a.
func TemperatureString(t float64, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f°C", t)
}

// OnboardString renders onboard state as on/off.
func OnboardString(onboard bool) string {
	if onboard {
		return "on"
	}
	return "off"
}
