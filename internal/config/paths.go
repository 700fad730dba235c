package config

import (
	"os"
	"path/filepath"

	"homelink/internal/constants"
	"homelink/internal/errors"
)

// HomeDir returns the homelink state directory.
// If the HOMELINK_HOME environment variable is set, it is used as-is.
// Otherwise the default is ~/.homelink.
func HomeDir() (string, error) {
	if home := os.Getenv(constants.HomeEnvVar); home != "" {
		return home, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.HomeDirName), nil
}

// GlobalConfigPath returns the full path to the global configuration file,
// typically ~/.homelink/config.yaml.
func GlobalConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// ProjectConfigPath returns the relative path to the project configuration
// file, always .homelink/config.yaml relative to the working directory.
func ProjectConfigPath() string {
	return filepath.Join(constants.ProjectConfigDir, constants.ConfigFileName)
}

// LogDir returns the directory for rotating log files.
func LogDir() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.LogsDir), nil
}
