// Package config loads the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config errors.
var (
	ErrConfigInvalid = errors.New("invalid config file")
)

// Defaults.
const (
	DefaultListen         = "127.0.0.1:9146"
	DefaultPollIntervalMS = 100
)

// Config holds the runtime settings. All fields have working
// defaults; a missing config file is not an error.
type Config struct {
	DataDir        string `yaml:"data_dir"`
	Listen         string `yaml:"listen"`
	PollIntervalMS int    `yaml:"poll_interval_ms"`
}

// Default returns the built-in configuration: data under the user
// config dir, loopback listener, 100ms tail interval.
func Default() Config {
	dataDir := "stash-data"
	if base, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(base, "stash")
	}
	return Config{
		DataDir:        dataDir,
		Listen:         DefaultListen,
		PollIntervalMS: DefaultPollIntervalMS,
	}
}

// Load reads the config file at path, filling unset fields with
// defaults. A missing file yields the defaults; an unreadable or
// malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, path, err)
	}

	if cfg.DataDir == "" {
		return Config{}, fmt.Errorf("%w: data_dir cannot be empty", ErrConfigInvalid)
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = DefaultPollIntervalMS
	}

	return cfg, nil
}

// PollInterval returns the tailer interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// LogDir is where the frame log lives under the data dir.
func (c Config) LogDir() string {
	return filepath.Join(c.DataDir, "stream")
}

// CacheDir is where the blob cache lives under the data dir.
func (c Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}
