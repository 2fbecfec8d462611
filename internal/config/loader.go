package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath locates the user config file
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/quietweb/config.yaml"
	}
	return filepath.Join(home, ".config", "quietweb", "config.yaml")
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(configPath string) (*Settings, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	// Load default settings
	config := DefaultSettings()
	config.ConfigPath = configPath

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create default config file
		if err := SaveConfig(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		// Load from file
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	applyEnvironmentOverrides(config)

	return config, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(config *Settings, configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	// Ensure directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config
func applyEnvironmentOverrides(config *Settings) {
	if sharedDir := os.Getenv("QUIETWEB_SHARED_DIR"); sharedDir != "" {
		config.SharedDir = sharedDir
	}

	if reloadCmd := os.Getenv("QUIETWEB_RELOAD_COMMAND"); reloadCmd != "" {
		config.ReloadCommand = reloadCmd
	}
	if statusCmd := os.Getenv("QUIETWEB_STATUS_COMMAND"); statusCmd != "" {
		config.StatusCommand = statusCmd
	}
	if notifyCmd := os.Getenv("QUIETWEB_NOTIFY_COMMAND"); notifyCmd != "" {
		config.NotifyCommand = notifyCmd
	}

	if interval := os.Getenv("QUIETWEB_SWEEP_INTERVAL"); interval != "" {
		if duration, err := time.ParseDuration(interval); err == nil {
			config.SweepInterval = Duration(duration)
		}
	}

	if loggingEnabled := os.Getenv("QUIETWEB_LOGGING_ENABLED"); loggingEnabled != "" {
		config.LoggingEnabled = loggingEnabled == "true" || loggingEnabled == "1" || loggingEnabled == "yes"
	}
	if logLevel := os.Getenv("QUIETWEB_LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}

	if dbPath := os.Getenv("QUIETWEB_DATABASE_PATH"); dbPath != "" {
		config.DatabasePath = dbPath
	}
	if logPath := os.Getenv("QUIETWEB_LOG_PATH"); logPath != "" {
		config.LogPath = logPath
	}
}
