package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homelink/internal/errors"
)

// TestValidateNilConfig verifies a nil config is rejected.
func TestValidateNilConfig(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigNil)
}

// TestValidateNode verifies node identity checks.
func TestValidateNode(t *testing.T) {
	tests := []struct {
		name    string
		node    string
		wantErr error
	}{
		{name: "valid name", node: "attic"},
		{name: "underscores allowed", node: "living_room"},
		{name: "empty name", node: "", wantErr: errors.ErrConfigInvalidNode},
		{name: "whitespace only", node: "   ", wantErr: errors.ErrConfigInvalidNode},
		{name: "slash", node: "a/b", wantErr: errors.ErrConfigInvalidNode},
		{name: "plus wildcard", node: "a+b", wantErr: errors.ErrConfigInvalidNode},
		{name: "hash wildcard", node: "a#b", wantErr: errors.ErrConfigInvalidNode},
		{name: "space", node: "a b", wantErr: errors.ErrConfigInvalidNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Node.Name = tt.node
			err := Validate(cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestValidateMQTT verifies broker setting checks.
func TestValidateMQTT(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MQTTConfig)
	}{
		{name: "empty broker", mutate: func(m *MQTTConfig) { m.Broker = "" }},
		{name: "port zero", mutate: func(m *MQTTConfig) { m.Port = 0 }},
		{name: "port too large", mutate: func(m *MQTTConfig) { m.Port = 70000 }},
		{name: "negative port", mutate: func(m *MQTTConfig) { m.Port = -1 }},
		{name: "empty prefix", mutate: func(m *MQTTConfig) { m.TopicPrefix = "" }},
		{name: "prefix with slash", mutate: func(m *MQTTConfig) { m.TopicPrefix = "tln/x" }},
		{name: "zero keepalive", mutate: func(m *MQTTConfig) { m.KeepAlive = 0 }},
		{name: "negative reconnect", mutate: func(m *MQTTConfig) { m.ReconnectDelay = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg.MQTT)
			err := Validate(cfg)
			assert.ErrorIs(t, err, errors.ErrConfigInvalidMQTT)
		})
	}
}

// TestValidateWeb verifies listener checks only apply when enabled.
func TestValidateWeb(t *testing.T) {
	t.Run("empty addr rejected when enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Web.Addr = ""
		assert.ErrorIs(t, Validate(cfg), errors.ErrConfigInvalidWeb)
	})

	t.Run("empty addr ignored when disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Web.Addr = ""
		cfg.Web.Enabled = false
		assert.NoError(t, Validate(cfg))
	})
}

// TestValidateIntervals verifies every loop period must be positive.
func TestValidateIntervals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IntervalsConfig)
	}{
		{name: "zero publish", mutate: func(i *IntervalsConfig) { i.Publish = 0 }},
		{name: "zero weather", mutate: func(i *IntervalsConfig) { i.Weather = 0 }},
		{name: "zero todo check", mutate: func(i *IntervalsConfig) { i.TodoCheck = 0 }},
		{name: "negative debounce", mutate: func(i *IntervalsConfig) { i.Debounce = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg.Intervals)
			assert.ErrorIs(t, Validate(cfg), errors.ErrValueOutOfRange)
		})
	}
}
