package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Udev backend: "database" (default) or "libudev"
	UdevBackend string `yaml:"udev_backend,omitempty"`

	// Data dirs searched for media-player-info; $XDG_DATA_DIRS if empty
	MPIDirs []string `yaml:"mpi_dirs,omitempty"`

	// SQLite file holding device settings and event history
	Database string `yaml:"database,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`

	// Device classes to enable; all built-in classes if empty
	Classes []string `yaml:"classes,omitempty"`

	// Eject behavior
	Eject Eject `yaml:"eject"`
}

type Eject struct {
	// Seconds to wait for unmount+eject before giving up
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// defaultConfig provides baseline settings
var defaultConfig = Config{
	UdevBackend: "database",
	LogLevel:    "info",
	Eject: Eject{
		TimeoutSeconds: 30,
	},
}

// Default returns a copy of the built-in defaults
func Default() *Config {
	cfg := defaultConfig
	cfg.Database = DefaultDatabasePath()
	return &cfg
}

// DefaultDatabasePath is $XDG_DATA_HOME/playerdock/devices.db
func DefaultDatabasePath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "share")
	}
	return filepath.Join(base, "playerdock", "devices.db")
}

// Load reads the config at path, or the first of the default locations
// that exists. With no file at all the defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		// Try default locations
		candidates := []string{
			"/etc/playerdock/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/playerdock/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	var cfg Config
	if path == "" {
		cfg = defaultConfig
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// Apply defaults for missing settings
	if cfg.UdevBackend == "" {
		cfg.UdevBackend = defaultConfig.UdevBackend
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultConfig.LogLevel
	}
	if cfg.Eject.TimeoutSeconds <= 0 {
		cfg.Eject.TimeoutSeconds = defaultConfig.Eject.TimeoutSeconds
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabasePath()
	}

	return &cfg, nil
}
