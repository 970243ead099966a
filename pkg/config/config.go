/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the lwes tools configuration
type Config struct {
	Transport Transport `yaml:"transport"`
	Schema    Schema    `yaml:"schema"`
	Journal   Journal   `yaml:"journal"`
	Archive   Archive   `yaml:"archive"`
	Metrics   Metrics   `yaml:"metrics"`
	Logging   Logging   `yaml:"logging"`
}

// Transport describes where events are sent and received
type Transport struct {
	Address        string        `yaml:"address"`   // unicast or multicast group
	Port           int           `yaml:"port"`
	Interface      string        `yaml:"interface"` // multicast interface name, empty for the default
	TTL            int           `yaml:"ttl"`       // multicast hop limit
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`
	HeartbeatFreq  time.Duration `yaml:"heartbeat_frequency"` // 0 disables heartbeats
	BufferSize     int           `yaml:"buffer_size"`         // socket receive buffer, 0 for the system default
}

// Schema points at an optional ESF file
type Schema struct {
	Path   string `yaml:"path"`
	Strict bool   `yaml:"strict"` // reject events that fail validation instead of logging them
}

// Journal configures the on-disk journal written by the listener
type Journal struct {
	Path          string        `yaml:"path"` // empty disables the journal
	Gzip          bool          `yaml:"gzip"`
	FsyncInterval time.Duration `yaml:"fsync_interval"`
	BufferSize    int           `yaml:"buffer_size"`
	SiteID        uint16        `yaml:"site_id"`
}

// Archive configures the pebble event archive
type Archive struct {
	DataDir string `yaml:"data_dir"` // empty disables the archive
}

// Metrics configures the stats HTTP server
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Defaults match the conventional lwes multicast setup
const (
	DefaultAddress = "224.1.1.11"
	DefaultPort    = 12345
)

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Transport: Transport{
			Address:        DefaultAddress,
			Port:           DefaultPort,
			TTL:            1,
			ReceiveTimeout: time.Second,
		},
		Journal: Journal{
			FsyncInterval: time.Second,
			BufferSize:    64 * 1024,
		},
		Metrics: Metrics{
			Bind: "127.0.0.1",
			Port: 9191,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for values the tools cannot use
func (c *Config) Validate() error {
	var errs []error
	if _, err := netip.ParseAddr(c.Transport.Address); err != nil {
		errs = append(errs, fmt.Errorf("transport.address: %w", err))
	}
	if c.Transport.Port <= 0 || c.Transport.Port > 65535 {
		errs = append(errs, fmt.Errorf("transport.port %d out of range", c.Transport.Port))
	}
	if c.Transport.TTL < 0 || c.Transport.TTL > 255 {
		errs = append(errs, fmt.Errorf("transport.ttl %d out of range", c.Transport.TTL))
	}
	if c.Transport.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("transport.buffer_size %d is negative", c.Transport.BufferSize))
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		errs = append(errs, fmt.Errorf("metrics.port %d out of range", c.Metrics.Port))
	}
	return errors.Join(errs...)
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./lwes.yaml"
	}

	// ~/.config/lwes/config.yaml on Linux and macOS
	return filepath.Join(homeDir, ".config", "lwes", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
