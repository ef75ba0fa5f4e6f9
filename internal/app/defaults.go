package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables that relocate merovingian's files.
const (
	EnvConfigPath = "MEROVINGIAN_CONFIG_PATH"
	EnvHome       = "MEROVINGIAN_HOME"
)

// Defaults holds the locations used before any config file is read.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - MEROVINGIAN_CONFIG_PATH: config file location (default: ~/.config/merovingian.toml)
//   - MEROVINGIAN_HOME: base directory for merovingian data (default: ~/.local/share/merovingian)
func GetDefaults() (Defaults, error) {
	configPath, err := fromEnvOrHome(EnvConfigPath, ".config", "merovingian.toml")
	if err != nil {
		return Defaults{}, err
	}

	baseDir, err := fromEnvOrHome(EnvHome, ".local", "share", "merovingian")
	if err != nil {
		return Defaults{}, err
	}

	return Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns the value of env if set, else the path elems joined
// under the user's home directory.
func fromEnvOrHome(env string, elems ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elems...)...), nil
}
