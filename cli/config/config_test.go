package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(EnvModel, "")
	t.Setenv(EnvReasoningEffort, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Model != "" || cfg.ReasoningEffort != "" || cfg.OutputDir != "" {
		t.Errorf("cfg = %+v, want zero config for missing file", cfg)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv(EnvModel, "")
	t.Setenv(EnvReasoningEffort, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "model: gpt-5\nreasoning_effort: high\noutput_dir: /tmp/bench\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Model != "gpt-5" {
		t.Errorf("Model = %q, want gpt-5", cfg.Model)
	}
	if cfg.ReasoningEffort != "high" {
		t.Errorf("ReasoningEffort = %q, want high", cfg.ReasoningEffort)
	}
	if cfg.OutputDir != "/tmp/bench" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: gpt-5\nreasoning_effort: high\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvModel, "gpt-5-mini")
	t.Setenv(EnvReasoningEffort, "minimal")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Model != "gpt-5-mini" {
		t.Errorf("Model = %q, want env override gpt-5-mini", cfg.Model)
	}
	if cfg.ReasoningEffort != "minimal" {
		t.Errorf("ReasoningEffort = %q, want env override minimal", cfg.ReasoningEffort)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want parse error")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join(".cfgbench", "config.yaml")) && path != "config.yaml" {
		t.Errorf("DefaultConfigPath() = %q", path)
	}
}
