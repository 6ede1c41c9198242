package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantlab/signalcore/internal/core"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidate_Labeling(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative threshold", func(c *Config) { c.Labeling.Threshold = -0.01 }},
		{"zero wait", func(c *Config) { c.Labeling.MinWaitDays = 0 }},
		{"zero horizon", func(c *Config) { c.Labeling.HorizonSessions = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, core.ErrConfigInvalid) {
				t.Errorf("expected CONFIG_INVALID, got %v", err)
			}
		})
	}
}

func TestValidate_RedisNeedsAddr(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.Type = "redis"

	err := cfg.Validate()
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected CONFIG_MISSING, got %v", err)
	}
}

func TestValidate_Retention(t *testing.T) {
	cfg := Defaults()
	cfg.Trainer.Retention = "forever"
	if err := cfg.Validate(); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID for unknown retention, got %v", err)
	}

	cfg = Defaults()
	cfg.Trainer.Retention = "window"
	cfg.Trainer.RetentionDays = 0
	if err := cfg.Validate(); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID for window without days, got %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
labeling:
  threshold: 0.02
  min_wait_days: 10
trainer:
  retention: none
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Labeling.Threshold != 0.02 {
		t.Errorf("threshold = %f, want 0.02", cfg.Labeling.Threshold)
	}
	if cfg.Labeling.MinWaitDays != 10 {
		t.Errorf("min_wait_days = %d, want 10", cfg.Labeling.MinWaitDays)
	}
	// Unset keys fall back to defaults
	if cfg.Labeling.HorizonSessions != 3 {
		t.Errorf("horizon_sessions = %d, want default 3", cfg.Labeling.HorizonSessions)
	}
	if cfg.Trainer.Retention != "none" {
		t.Errorf("retention = %q, want none", cfg.Trainer.Retention)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}
