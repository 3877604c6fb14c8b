// Package config handles CLI configuration loading.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvModel           = "OPENAI_MODEL"
	EnvReasoningEffort = "OPENAI_REASONING_EFFORT"
)

// Config represents the CLI configuration.
type Config struct {
	// Model overrides the scenario's default model when set.
	Model string `yaml:"model"`

	// ReasoningEffort overrides the scenario's default effort when set.
	ReasoningEffort string `yaml:"reasoning_effort"`

	// OutputDir is where stores and snapshots are written. Default: "output".
	OutputDir string `yaml:"output_dir"`
}

// DefaultConfigPath returns the default configuration file path for the
// current platform.
// - macOS/Linux: ~/.cfgbench/config.yaml
// - Windows: %USERPROFILE%\.cfgbench\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		// Fallback to current directory
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".cfgbench", "config.yaml")
}

// LoadConfig loads configuration from the specified path and applies
// environment overrides. If the file doesn't exist, returns a config built
// from the environment alone. Returns an error only if the file exists but
// cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file is not an error
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets environment variables beat file values.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvReasoningEffort); v != "" {
		c.ReasoningEffort = v
	}
}
