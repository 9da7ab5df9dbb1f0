// Package loader handles configuration file loading for heatmapd.
//
// This package is responsible for:
//   - Loading the YAML configuration file
//   - Expanding environment variables
//   - Applying defaults for anything left unset
package loader

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AJ-SIM/heat-map/config"
)

// Config is the root configuration structure for heatmapd.
type Config struct {
	// Listen is the HTTP listen address.
	// Format: "host:port" or ":port"
	// Default: "0.0.0.0:8000"
	Listen string `yaml:"listen"`

	// DataDir is the base directory for per-device series files.
	DataDir string `yaml:"data_dir"`

	// Log configures structured logging output.
	Log LogConfig `yaml:"log"`

	// Display configures the read-side reconstruction defaults.
	Display DisplayConfig `yaml:"display"`

	// Archive configures Parquet snapshots of rotated-out series.
	Archive ArchiveConfig `yaml:"archive"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON selects JSON output instead of text.
	JSON bool `yaml:"json"`
}

// DisplayConfig configures the read-side defaults.
type DisplayConfig struct {
	// WindowMins is the default trailing window in minutes.
	WindowMins int `yaml:"window_mins"`
}

// ArchiveConfig configures the archive tier.
type ArchiveConfig struct {
	// Enabled turns on Parquet snapshots before rotation.
	Enabled bool `yaml:"enabled"`

	// Dir is the snapshot root directory.
	Dir string `yaml:"dir"`

	// Retention is the maximum snapshot age, e.g. "2160h" or a number
	// of seconds. Zero disables pruning.
	Retention Duration `yaml:"retention"`

	// Compression is the Parquet codec: snappy, zstd, lz4, gzip, none.
	Compression string `yaml:"compression"`
}

// Duration is a time.Duration that can be unmarshaled from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		// Try as int (seconds)
		var i int
		if err := unmarshal(&i); err != nil {
			return err
		}
		*d = Duration(time.Duration(i) * time.Second)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a config populated with defaults.
func DefaultConfig() *Config {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = config.DefaultDataDir
	}

	return &Config{
		Listen:  config.DefaultListenAddress,
		DataDir: dataDir,
		Log: LogConfig{
			Level: "info",
		},
		Display: DisplayConfig{
			WindowMins: config.DefaultWindowMins,
		},
		Archive: ArchiveConfig{
			Dir:         config.DefaultArchiveDir,
			Retention:   Duration(config.DefaultArchiveRetention),
			Compression: config.DefaultArchiveCompression,
		},
	}
}

// Load loads configuration from a YAML file. Values not present in the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run
// with.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.Display.WindowMins <= 0 {
		return fmt.Errorf("display.window_mins must be positive, got %d", c.Display.WindowMins)
	}
	if c.Archive.Enabled && c.Archive.Dir == "" {
		return fmt.Errorf("archive.dir cannot be empty when archiving is enabled")
	}
	return nil
}
