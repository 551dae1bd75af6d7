package config

import (
	"fmt"
	"os"

	"mt5-bridge/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills zero values that have a sane bridge-wide default.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 18812
	}
	if c.RingCapacity == 0 {
		c.RingCapacity = 20
	}
	if c.ShutdownGraceSeconds == 0 {
		c.ShutdownGraceSeconds = 5
	}
	if c.Console.RefreshMs == 0 {
		c.Console.RefreshMs = 250
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.IdleTimeoutSeconds < 0 {
		return fmt.Errorf("idle timeout cannot be negative")
	}
	if c.ShutdownGraceSeconds <= 0 {
		return fmt.Errorf("shutdown grace period must be greater than 0")
	}
	if c.RingCapacity <= 0 {
		return fmt.Errorf("ring capacity must be greater than 0")
	}

	// Validate Console configuration
	if c.Console.Enabled && c.Console.RefreshMs <= 0 {
		return fmt.Errorf("console refresh interval must be greater than 0")
	}

	// Validate Platform configuration
	if !c.Platform.Simulated {
		if c.Platform.Login <= 0 {
			return fmt.Errorf("platform login must be set for a live terminal")
		}
		if c.Platform.Server == "" {
			return fmt.Errorf("platform server cannot be empty for a live terminal")
		}
	}
	if c.Platform.ExpirationSkewSeconds < 0 {
		return fmt.Errorf("expiration skew cannot be negative")
	}

	// Validate Storage configuration
	if c.Storage.DBType != "" {
		if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
		if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
