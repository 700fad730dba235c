package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"homelink/internal/errors"
)

// newViperInstance creates a new Viper instance with standard homelink
// configuration: defaults, HOMELINK_ env prefix, and key replacer.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("HOMELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file
// not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// viperDecoderOption configures mapstructure to handle time.Duration
// conversion from strings like "15m".
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}

// Overrides carries CLI flag values that take precedence over every
// config source. Zero values mean "not set".
type Overrides struct {
	// NodeName overrides node.name.
	NodeName string
	// Script overrides node.script.
	Script string
	// WebDisabled forces web.enabled to false (--no-web).
	WebDisabled bool
}

// Load reads configuration from all available sources with proper
// precedence:
//  1. Environment variables (HOMELINK_* prefix)
//  2. Project config (.homelink/config.yaml)
//  3. Global config (~/.homelink/config.yaml)
//  4. Built-in defaults
//
// Missing config files are expected and skipped silently; only genuine
// read or parse problems return an error.
func Load(ctx context.Context) (*Config, error) {
	return LoadWithOverrides(ctx, Overrides{})
}

// LoadWithOverrides is Load with CLI flag overrides applied on top.
func LoadWithOverrides(ctx context.Context, o Overrides) (*Config, error) {
	v := newViperInstance()

	// Global config first (lower precedence), then project config
	// merged over it.
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	if o.NodeName != "" {
		v.Set("node.name", o.NodeName)
	}
	if o.Script != "" {
		v.Set("node.script", o.Script)
	}
	if o.WebDisabled {
		v.Set("web.enabled", false)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("node", cfg.Node.Name).
		Str("broker", cfg.MQTT.Broker).
		Dur("intervals.publish", cfg.Intervals.Publish).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// loadGlobalConfig attempts to load ~/.homelink/config.yaml.
// Missing file or unavailable home directory is skipped silently.
func loadGlobalConfig(v *viper.Viper) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return nil //nolint:nilerr // no home dir means no global config
	}
	if !fileExists(path) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig attempts to load .homelink/config.yaml from the
// working directory, merging over the global config.
func loadProjectConfig(v *viper.Viper) error {
	path := ProjectConfigPath()
	if !fileExists(path) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
