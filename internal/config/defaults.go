package config

import (
	"time"

	"github.com/spf13/viper"

	"homelink/internal/constants"
)

// DefaultNodeName is used when no node name is configured. Every real
// deployment overrides it; the default keeps a fresh checkout runnable.
const DefaultNodeName = "homelink_default"

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			Name:   DefaultNodeName,
			Script: constants.DefaultScriptFile,
		},
		MQTT: MQTTConfig{
			Broker:         constants.DefaultBroker,
			Port:           constants.DefaultBrokerPort,
			TopicPrefix:    constants.DefaultTopicPrefix,
			KeepAlive:      constants.DefaultKeepAlive,
			ReconnectDelay: constants.DefaultReconnectDelay,
		},
		Web: WebConfig{
			Addr:    constants.DefaultWebAddr,
			Enabled: true,
		},
		Share: ShareConfig{
			Folder: constants.DefaultNasFolder,
		},
		Media: MediaConfig{
			MusicFolder:   constants.DefaultMusicFolder,
			LibraryFolder: "~/media/music",
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.open-meteo.com",
			Timeout: 10 * time.Second,
		},
		Intervals: IntervalsConfig{
			Publish:   constants.DefaultPublishInterval,
			Weather:   constants.DefaultWeatherInterval,
			TodoCheck: constants.DefaultTodoCheckInterval,
			Debounce:  constants.DefaultDebounceDelay,
		},
	}
}

// setDefaults registers the default configuration values on a Viper
// instance. Keys mirror the mapstructure tags in Config.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("node.name", def.Node.Name)
	v.SetDefault("node.script", def.Node.Script)

	v.SetDefault("mqtt.broker", def.MQTT.Broker)
	v.SetDefault("mqtt.port", def.MQTT.Port)
	v.SetDefault("mqtt.topic_prefix", def.MQTT.TopicPrefix)
	v.SetDefault("mqtt.keep_alive", def.MQTT.KeepAlive)
	v.SetDefault("mqtt.reconnect_delay", def.MQTT.ReconnectDelay)

	v.SetDefault("web.addr", def.Web.Addr)
	v.SetDefault("web.enabled", def.Web.Enabled)

	v.SetDefault("share.folder", def.Share.Folder)

	v.SetDefault("media.music_folder", def.Media.MusicFolder)
	v.SetDefault("media.library_folder", def.Media.LibraryFolder)

	v.SetDefault("weather.base_url", def.Weather.BaseURL)
	v.SetDefault("weather.timeout", def.Weather.Timeout)

	v.SetDefault("intervals.publish", def.Intervals.Publish)
	v.SetDefault("intervals.weather", def.Intervals.Weather)
	v.SetDefault("intervals.todo_check", def.Intervals.TodoCheck)
	v.SetDefault("intervals.debounce", def.Intervals.Debounce)
}
