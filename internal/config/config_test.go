package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pcdash/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddr != "localhost:8080" {
		t.Errorf("expected listen addr localhost:8080, got %q", cfg.ListenAddr)
	}
	if cfg.SampleInterval != time.Second {
		t.Errorf("expected 1s sample interval, got %v", cfg.SampleInterval)
	}
	if cfg.Capacity != 3600 {
		t.Errorf("expected capacity 3600, got %d", cfg.Capacity)
	}
	if cfg.DefaultLookback != 60 {
		t.Errorf("expected default lookback 60, got %d", cfg.DefaultLookback)
	}
	if cfg.AlertCooldown != 10*time.Second {
		t.Errorf("expected 10s cooldown, got %v", cfg.AlertCooldown)
	}

	th := cfg.ThresholdDefaults()
	for _, m := range []models.Metric{models.CPU, models.GPU, models.Memory} {
		if th[m] != 100 {
			t.Errorf("expected default threshold 100 for %s, got %v", m, th[m])
		}
	}
	if _, ok := th[models.Download]; ok {
		t.Error("expected no default download threshold")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PCDASH_CAPACITY", "120")
	t.Setenv("PCDASH_SAMPLE_INTERVAL", "2s")
	t.Setenv("PCDASH_LOG_LEVEL", "debug")

	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capacity != 120 {
		t.Errorf("expected capacity 120, got %d", cfg.Capacity)
	}
	if cfg.SampleInterval != 2*time.Second {
		t.Errorf("expected 2s interval, got %v", cfg.SampleInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.LogLevel)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"lookback below range", "PCDASH_DEFAULT_LOOKBACK", "10"},
		{"lookback above range", "PCDASH_DEFAULT_LOOKBACK", "7200"},
		{"capacity too small", "PCDASH_CAPACITY", "5"},
		{"unknown log level", "PCDASH_LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := NewLoader("").Load(); err == nil {
				t.Errorf("expected validation error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("capacity: 600\nthresholds:\n  cpu: 80\n  download: 50\nconsole: true\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loader.ConfigFileUsed() != path {
		t.Errorf("expected config file %q, got %q", path, loader.ConfigFileUsed())
	}
	if cfg.Capacity != 600 {
		t.Errorf("expected capacity 600, got %d", cfg.Capacity)
	}
	if !cfg.Console {
		t.Error("expected console enabled")
	}

	th := cfg.ThresholdDefaults()
	if th[models.CPU] != 80 {
		t.Errorf("expected cpu threshold 80, got %v", th[models.CPU])
	}
	if th[models.Download] != 50 {
		t.Errorf("expected download threshold 50, got %v", th[models.Download])
	}
	if th[models.Memory] != 100 {
		t.Errorf("expected memory threshold to keep default 100, got %v", th[models.Memory])
	}
}

func TestLoad_UnknownThresholdMetric(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("thresholds:\n  disk: 90\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(path).Load(); err == nil {
		t.Fatal("expected error for unknown threshold metric")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestWatch_NoFile(t *testing.T) {
	loader := NewLoader("")
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}
	if loader.Watch(func(*Config, error) {}) {
		t.Error("expected Watch to report false without a config file")
	}
}
