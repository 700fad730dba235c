// Package constants centralizes shared constant values for homelink.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: other internal packages
package constants

import "time"

// Version is the application version published to the fleet.
// Overridden at build time via ldflags.
const Version = "3.0.6"

// AppName is the binary and default node name prefix.
const AppName = "homelink"

// HomeDirName is the per-user state directory (~/.homelink).
const HomeDirName = ".homelink"

// HomeEnvVar overrides the state directory location when set.
const HomeEnvVar = "HOMELINK_HOME"

// ConfigFileName is the YAML configuration file name.
const ConfigFileName = "config.yaml"

// ProjectConfigDir is the per-directory config dir (.homelink).
const ProjectConfigDir = ".homelink"

// Logging constants.
const (
	// LogsDir is the directory under the homelink home for log files.
	LogsDir = "logs"

	// LogFileName is the rotating daemon log file name.
	LogFileName = "homelink.log"

	// LogMaxSizeMB is the maximum log file size before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age of rotated files.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated files.
	LogCompress = true
)

// Messaging defaults.
const (
	// DefaultTopicPrefix is the MQTT topic prefix shared by the fleet.
	// Topics follow <prefix>/<node>/<key>.
	DefaultTopicPrefix = "tln"

	// DefaultBroker is the MQTT broker host.
	DefaultBroker = "broker.emqx.io"

	// DefaultBrokerPort is the MQTT broker TCP port.
	DefaultBrokerPort = 1883

	// DefaultKeepAlive is the MQTT keepalive interval.
	DefaultKeepAlive = 5 * time.Minute

	// DefaultReconnectDelay is the pause before re-dialing a dropped
	// MQTT connection.
	DefaultReconnectDelay = time.Minute

	// BusBuffer is the message bus channel capacity.
	BusBuffer = 4096
)

// Fleet state keys carried as the last topic segment and as device
// plugin actions.
const (
	KeyOnboard     = "onboard"
	KeyVersion     = "version"
	KeyTailscaleIP = "tailscale_ip"
	KeyTemperature = "temperature"
	KeyAppUptime   = "app_uptime"
)

// Interval defaults for background loops.
const (
	// DefaultPublishInterval is how often the system plugin republishes
	// node state. Peers that miss a retained message catch up here.
	DefaultPublishInterval = 5 * time.Minute

	// DefaultWeatherInterval is the weather polling period.
	DefaultWeatherInterval = 15 * time.Minute

	// DefaultTodoCheckInterval is the todo due/reminder scan period.
	DefaultTodoCheckInterval = time.Minute

	// DefaultDebounceDelay coalesces file watcher events per path.
	DefaultDebounceDelay = 10 * time.Second
)

// Folder defaults, relative to the working directory as in the
// deployment layout.
const (
	// DefaultNasFolder is the synchronized share root.
	DefaultNasFolder = "./nas"

	// DefaultMusicFolder is the music library inside the share.
	DefaultMusicFolder = "./nas/music"

	// DefaultScriptFile is the bootstrap script replayed at startup.
	DefaultScriptFile = "./init.script"
)

// Web defaults.
const (
	// DefaultWebAddr is the HTTP listen address for the sync endpoints.
	DefaultWebAddr = ":8080"

	// WebShutdownTimeout bounds graceful HTTP shutdown.
	WebShutdownTimeout = 5 * time.Second

	// SyncRequestTimeout bounds a single sync request to a peer.
	SyncRequestTimeout = 30 * time.Second
)
