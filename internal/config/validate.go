package config

import (
	"fmt"
	"strings"

	"homelink/internal/errors"
)

// Validate checks a Config for invalid values. It returns the first
// problem found, wrapped around the matching sentinel error so callers
// can categorize with errors.Is().
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateNode(&cfg.Node); err != nil {
		return err
	}
	if err := validateMQTT(&cfg.MQTT); err != nil {
		return err
	}
	if err := validateWeb(&cfg.Web); err != nil {
		return err
	}
	return validateIntervals(&cfg.Intervals)
}

// validateNode checks the node identity section.
func validateNode(n *NodeConfig) error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: node.name: %w", errors.ErrConfigInvalidNode, errors.ErrEmptyValue)
	}
	// The name becomes a topic segment; separators would corrupt the
	// fleet topic scheme.
	if strings.ContainsAny(n.Name, "/+# ") {
		return fmt.Errorf("%w: node.name %q contains topic separators", errors.ErrConfigInvalidNode, n.Name)
	}
	return nil
}

// validateMQTT checks broker settings.
func validateMQTT(m *MQTTConfig) error {
	if strings.TrimSpace(m.Broker) == "" {
		return fmt.Errorf("%w: mqtt.broker: %w", errors.ErrConfigInvalidMQTT, errors.ErrEmptyValue)
	}
	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("%w: mqtt.port %d: %w", errors.ErrConfigInvalidMQTT, m.Port, errors.ErrValueOutOfRange)
	}
	if strings.TrimSpace(m.TopicPrefix) == "" {
		return fmt.Errorf("%w: mqtt.topic_prefix: %w", errors.ErrConfigInvalidMQTT, errors.ErrEmptyValue)
	}
	if strings.ContainsAny(m.TopicPrefix, "/+# ") {
		return fmt.Errorf("%w: mqtt.topic_prefix %q contains topic separators", errors.ErrConfigInvalidMQTT, m.TopicPrefix)
	}
	if m.KeepAlive <= 0 {
		return fmt.Errorf("%w: mqtt.keep_alive must be positive: %w", errors.ErrConfigInvalidMQTT, errors.ErrValueOutOfRange)
	}
	if m.ReconnectDelay <= 0 {
		return fmt.Errorf("%w: mqtt.reconnect_delay must be positive: %w", errors.ErrConfigInvalidMQTT, errors.ErrValueOutOfRange)
	}
	return nil
}

// validateWeb checks the HTTP listener settings.
func validateWeb(w *WebConfig) error {
	if !w.Enabled {
		return nil
	}
	if strings.TrimSpace(w.Addr) == "" {
		return fmt.Errorf("%w: web.addr: %w", errors.ErrConfigInvalidWeb, errors.ErrEmptyValue)
	}
	return nil
}

// validateIntervals checks that all loop periods are positive.
func validateIntervals(i *IntervalsConfig) error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"intervals.publish", i.Publish > 0},
		{"intervals.weather", i.Weather > 0},
		{"intervals.todo_check", i.TodoCheck > 0},
		{"intervals.debounce", i.Debounce > 0},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%s must be positive: %w", c.name, errors.ErrValueOutOfRange)
		}
	}
	return nil
}
