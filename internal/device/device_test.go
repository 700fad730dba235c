package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homelink/internal/clock"
)

func newTestRegistry() (*Registry, *clock.Mock) {
	mock := clock.NewMock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewRegistry(mock), mock
}

// TestSetOnboard verifies upsert and change detection.
func TestSetOnboard(t *testing.T) {
	r, mock := newTestRegistry()

	assert.True(t, r.SetOnboard("attic", true), "first sighting is a change")
	assert.False(t, r.SetOnboard("attic", true), "same state is not a change")
	assert.True(t, r.SetOnboard("attic", false))

	d, ok := r.Get("attic")
	require.True(t, ok)
	assert.False(t, d.Onboard)
	assert.Equal(t, mock.Now(), d.TS)
}

// TestFactsNeedOnboardFirst verifies fact updates for unseen devices
// are dropped.
func TestFactsNeedOnboardFirst(t *testing.T) {
	r, _ := newTestRegistry()

	assert.False(t, r.SetVersion("ghost", "3.0.5"))
	assert.False(t, r.SetTailscaleIP("ghost", "100.64.0.8"))
	assert.False(t, r.SetTemperature("ghost", 44.0))
	assert.False(t, r.SetAppUptime("ghost", time.Hour))
	_, ok := r.Get("ghost")
	assert.False(t, ok)
}

// TestFactUpdates verifies all fact setters and timestamp bumping.
func TestFactUpdates(t *testing.T) {
	r, mock := newTestRegistry()
	require.True(t, r.SetOnboard("attic", true))

	mock.Advance(time.Minute)
	assert.True(t, r.SetVersion("attic", "3.0.6"))
	assert.True(t, r.SetTailscaleIP("attic", "100.64.0.7"))
	assert.True(t, r.SetTemperature("attic", 45.5))
	assert.True(t, r.SetAppUptime("attic", 90*time.Second))

	d, ok := r.Get("attic")
	require.True(t, ok)
	assert.Equal(t, "3.0.6", d.Version)
	assert.Equal(t, "100.64.0.7", d.TailscaleIP)
	require.NotNil(t, d.Temperature)
	assert.InDelta(t, 45.5, *d.Temperature, 0.001)
	require.NotNil(t, d.AppUptime)
	assert.Equal(t, 90*time.Second, *d.AppUptime)
	assert.Equal(t, mock.Now(), d.TS)
}

// TestListSorted verifies List is sorted by name and returns copies.
func TestListSorted(t *testing.T) {
	r, _ := newTestRegistry()
	for _, name := range []string{"zulu", "attic", "mid"} {
		r.SetOnboard(name, true)
	}

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "attic", list[0].Name)
	assert.Equal(t, "mid", list[1].Name)
	assert.Equal(t, "zulu", list[2].Name)

	// Mutating the copy must not touch the registry.
	list[0].Onboard = false
	d, _ := r.Get("attic")
	assert.True(t, d.Onboard)
}

// TestStale verifies semver comparison against the running release.
func TestStale(t *testing.T) {
	tests := []struct {
		version string
		current string
		want    bool
	}{
		{"3.0.5", "3.0.6", true},
		{"3.0.6", "3.0.6", false},
		{"3.1.0", "3.0.6", false},
		{"", "3.0.6", false},
		{"not-a-version", "3.0.6", false},
		{"3.0.5", "garbage", false},
	}
	for _, tt := range tests {
		d := Device{Version: tt.version}
		assert.Equal(t, tt.want, d.Stale(tt.current),
			"version=%q current=%q", tt.version, tt.current)
	}
}
