package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig supplies defaults for run flags from an optional TOML file.
// Flags always win over file values.
type fileConfig struct {
	Host         string `toml:"host"`
	User         string `toml:"user"`
	APIKey       string `toml:"api_key"`
	ComposeDir   string `toml:"compose_dir"`
	CatalogDir   string `toml:"catalog_dir"`
	PollInterval string `toml:"poll_interval"`
	Insecure     bool   `toml:"insecure"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "reefctl", "config.toml")
}

// loadFileConfig reads the config file. A missing default file is fine; a
// missing explicitly requested file is an error.
func loadFileConfig(path string) (fileConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return fileConfig{}, nil
		}
	}

	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// pollInterval parses the config file's poll_interval, if set.
func (c fileConfig) pollInterval() (time.Duration, error) {
	if c.PollInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("parse poll_interval: %w", err)
	}
	return d, nil
}
