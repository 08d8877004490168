// Package config provides configuration loading for the svcbind CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvComposeFile overrides the compose file path from the environment.
	EnvComposeFile = "SVCBIND_COMPOSE_FILE"

	// EnvProject overrides the project name from the environment.
	EnvProject = "SVCBIND_PROJECT"

	defaultProbeTimeout  = 5 * time.Second
	defaultProbeAttempts = 3
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Project is the name used in reports. Defaults to the compose project
	// name when empty.
	Project string `yaml:"project,omitempty"`

	Compose *ComposeConfig `yaml:"compose,omitempty"`
	Env     *EnvConfig     `yaml:"env,omitempty"`
	Probe   *ProbeConfig   `yaml:"probe,omitempty"`
}

// ComposeConfig defines the compose source settings
type ComposeConfig struct {
	// File is the path to the compose file to resolve services from
	File string `yaml:"file"`
}

// EnvConfig defines the environment variable source settings
type EnvConfig struct {
	// Enabled turns on resolution from connection URL environment variables
	Enabled bool `yaml:"enabled"`
}

// ProbeConfig defines reachability probe settings
type ProbeConfig struct {
	// Timeout is the per-attempt dial timeout (e.g. "5s")
	Timeout string `yaml:"timeout,omitempty"`

	// MaxAttempts is the number of dial attempts per endpoint
	MaxAttempts int `yaml:"maxAttempts,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Compose: &ComposeConfig{File: "docker-compose.yaml"},
		Env:     &EnvConfig{Enabled: true},
	}
}

// GetComposeFile returns the compose file path, honoring the environment
// override.
func (c *Config) GetComposeFile() string {
	if path := os.Getenv(EnvComposeFile); path != "" {
		return path
	}
	if c.Compose == nil {
		return ""
	}
	return c.Compose.File
}

// GetProject returns the configured project name, honoring the environment
// override. Empty means "derive from the compose file".
func (c *Config) GetProject() string {
	if name := os.Getenv(EnvProject); name != "" {
		return name
	}
	return c.Project
}

// EnvEnabled reports whether environment variable resolution is on.
func (c *Config) EnvEnabled() bool {
	return c.Env != nil && c.Env.Enabled
}

// ProbeTimeout returns the per-attempt probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	if c.Probe == nil || c.Probe.Timeout == "" {
		return defaultProbeTimeout
	}
	d, err := time.ParseDuration(c.Probe.Timeout)
	if err != nil {
		return defaultProbeTimeout
	}
	return d
}

// ProbeAttempts returns the number of dial attempts per endpoint.
func (c *Config) ProbeAttempts() int {
	if c.Probe == nil || c.Probe.MaxAttempts <= 0 {
		return defaultProbeAttempts
	}
	return c.Probe.MaxAttempts
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if (c.Compose == nil || c.Compose.File == "") && !c.EnvEnabled() {
		return fmt.Errorf("at least one source must be configured: compose.file or env.enabled")
	}

	if c.Probe != nil && c.Probe.Timeout != "" {
		if _, err := time.ParseDuration(c.Probe.Timeout); err != nil {
			return fmt.Errorf("probe.timeout is not a valid duration: %w", err)
		}
	}
	if c.Probe != nil && c.Probe.MaxAttempts < 0 {
		return fmt.Errorf("probe.maxAttempts cannot be negative")
	}

	return nil
}
