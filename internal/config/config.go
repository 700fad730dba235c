// Package config provides configuration management for homelink with
// layered precedence.
//
// Configuration sources are loaded in the following order (highest
// precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (HOMELINK_* prefix)
//  3. Project config (.homelink/config.yaml)
//  4. Global config (~/.homelink/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import "time"

// Config is the root configuration structure for homelink.
// It contains all configuration sections for the daemon.
type Config struct {
	// Node contains this node's identity and fleet roles.
	Node NodeConfig `yaml:"node" mapstructure:"node"`

	// MQTT contains broker connection settings.
	MQTT MQTTConfig `yaml:"mqtt" mapstructure:"mqtt"`

	// Web contains HTTP listener settings for the sync endpoints.
	Web WebConfig `yaml:"web" mapstructure:"web"`

	// Share contains the synchronized folder settings.
	Share ShareConfig `yaml:"share" mapstructure:"share"`

	// Media contains music download and library settings.
	Media MediaConfig `yaml:"media" mapstructure:"media"`

	// Weather contains forecast polling settings.
	Weather WeatherConfig `yaml:"weather" mapstructure:"weather"`

	// Intervals contains background loop periods.
	Intervals IntervalsConfig `yaml:"intervals" mapstructure:"intervals"`
}

// NodeConfig identifies this node within the fleet.
type NodeConfig struct {
	// Name is the unique node name used as the MQTT client ID and topic
	// segment. Default: "homelink_default"
	Name string `yaml:"name" mapstructure:"name"`

	// Script is the bootstrap script replayed onto the bus at startup.
	// One command per line, `#` starts a comment.
	// Default: "./init.script"
	Script string `yaml:"script" mapstructure:"script"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	// Broker is the broker hostname.
	// Default: "broker.emqx.io"
	Broker string `yaml:"broker" mapstructure:"broker"`

	// Port is the broker TCP port.
	// Default: 1883
	Port int `yaml:"port" mapstructure:"port"`

	// TopicPrefix is the fleet topic prefix. Topics follow
	// <prefix>/<node>/<key>. All nodes in a fleet must share it.
	// Default: "tln"
	TopicPrefix string `yaml:"topic_prefix" mapstructure:"topic_prefix"`

	// KeepAlive is the MQTT keepalive interval.
	// Default: 5m
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive"`

	// ReconnectDelay is the pause before re-dialing a dropped connection.
	// Default: 1m
	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay"`

	// Username and Password are optional broker credentials.
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
}

// WebConfig contains HTTP listener settings.
type WebConfig struct {
	// Addr is the listen address for the health and sync endpoints.
	// Default: ":8080"
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Enabled controls whether the HTTP server starts at all.
	// Default: true
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// ShareConfig contains the synchronized folder settings.
type ShareConfig struct {
	// Folder is the share root watched and synchronized between nodes.
	// Default: "./nas"
	Folder string `yaml:"folder" mapstructure:"folder"`
}

// MediaConfig contains music download and library settings.
type MediaConfig struct {
	// MusicFolder is where downloaded audio lands inside the share.
	// Default: "./nas/music"
	MusicFolder string `yaml:"music_folder" mapstructure:"music_folder"`

	// LibraryFolder is the media server's library directory. When this
	// node holds the library role, new music files are copied here.
	// Default: "~/media/music"
	LibraryFolder string `yaml:"library_folder" mapstructure:"library_folder"`
}

// WeatherConfig contains forecast polling settings.
type WeatherConfig struct {
	// BaseURL is the forecast API endpoint. Overridable for tests.
	// Default: "https://api.open-meteo.com"
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a single forecast request.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// IntervalsConfig contains background loop periods.
type IntervalsConfig struct {
	// Publish is the fleet state republish period.
	// Default: 5m
	Publish time.Duration `yaml:"publish" mapstructure:"publish"`

	// Weather is the forecast polling period.
	// Default: 15m
	Weather time.Duration `yaml:"weather" mapstructure:"weather"`

	// TodoCheck is the todo due/reminder scan period.
	// Default: 1m
	TodoCheck time.Duration `yaml:"todo_check" mapstructure:"todo_check"`

	// Debounce coalesces file watcher events per path.
	// Default: 10s
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}
