package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"homelink/internal/errors"
)

// configFileHeader is written above the YAML document so a fresh config
// explains itself.
const configFileHeader = `# homelink configuration.
#
# Precedence (highest first): flags, HOMELINK_* environment variables,
# .homelink/config.yaml in the working directory, this file, defaults.
`

// WriteDefault writes the default configuration to path, creating parent
// directories as needed. An existing file is only replaced when force is
// set; otherwise ErrConfigExists is returned.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", errors.ErrConfigExists, path)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return errors.Wrap(err, "failed to marshal default config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	out := append([]byte(configFileHeader), data...)
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}
