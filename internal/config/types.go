package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads and writes "1m30s" style YAML
// values instead of raw nanosecond counts.
type Duration time.Duration

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler, accepting both duration
// strings and integer nanosecond counts.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var nanos int64
	if err := value.Decode(&nanos); err == nil {
		*d = Duration(nanos)
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Settings represents the application configuration
type Settings struct {
	// Version
	Version string `yaml:"version"`

	// Shared container the enforcement process reads rule files from
	SharedDir string `yaml:"shared_dir"`

	// Platform hooks
	ReloadCommand string `yaml:"reload_command"` // Invoked with the filter identifier after a publish
	StatusCommand string `yaml:"status_command"` // Queries whether a filter identifier is enabled
	NotifyCommand string `yaml:"notify_command"` // Invoked with title and body to deliver a notification

	// Maintenance sweep
	SweepInterval Duration `yaml:"sweep_interval"` // How often the agent loop sweeps

	// Logging
	LoggingEnabled bool   `yaml:"logging_enabled"` // Whether to enable file logging
	LogLevel       string `yaml:"log_level"`       // debug, info, warn, error

	// Paths
	ConfigPath   string `yaml:"-"` // Path to config file (not stored in config)
	DatabasePath string `yaml:"database_path"`
	LogPath      string `yaml:"log_path"`
}

// DefaultSettings returns the default configuration
func DefaultSettings() *Settings {
	base := baseDir()
	return &Settings{
		Version: "1.0",

		SharedDir: filepath.Join(base, "shared"),

		ReloadCommand: "",
		StatusCommand: "",
		NotifyCommand: "",

		SweepInterval: Duration(time.Minute),

		LoggingEnabled: false,
		LogLevel:       "info",

		DatabasePath: filepath.Join(base, "quietweb.db"),
		LogPath:      filepath.Join(base, "logs"),
	}
}

// baseDir returns the per-user application directory
func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/lib/quietweb"
	}
	return filepath.Join(home, ".local", "share", "quietweb")
}
