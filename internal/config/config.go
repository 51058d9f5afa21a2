package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/revolution/boost-copilot/internal/fs"
	"github.com/revolution/boost-copilot/internal/mcpconfig"
)

// ConfigFile is the optional per-project configuration file.
const ConfigFile = "boost.yaml"

// Config represents the installer configuration
type Config struct {
	Agent       string       `yaml:"agent"`
	Server      ServerConfig `yaml:"server"`
	ParsePolicy string       `yaml:"parse_policy,omitempty"`
}

// ServerConfig describes the MCP server the installer registers
type ServerConfig struct {
	Key     string            `yaml:"key"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Agent: "copilot-cli",
		Server: ServerConfig{
			Key:     "laravel-boost",
			Command: "php",
		},
		ParsePolicy: mcpconfig.PolicyLenient.String(),
	}
}

// Path returns the config file location inside root
func Path(root string) string {
	return filepath.Join(root, ConfigFile)
}

// Exists checks if root has a config file
func Exists(root string) bool {
	return fs.FileExists(Path(root))
}

// Load reads boost.yaml from root. A missing file yields the defaults;
// fields left out of the file are filled from the defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if strings.Contains(c.Server.Key, ".") {
		return fmt.Errorf("invalid server key %q: must not contain '.'", c.Server.Key)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy returns the configured parse policy
func (c *Config) Policy() (mcpconfig.Policy, error) {
	return mcpconfig.ParsePolicy(c.ParsePolicy)
}

// Save writes the configuration to root/boost.yaml
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fs.WriteFileAtomic(Path(root), data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
