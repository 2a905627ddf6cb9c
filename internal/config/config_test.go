package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Chart.Function != nil || cfg.Render.Width != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[chart]
function = "cosine"
x-min = -5.0
x-max = 5.5
steps = 400
phase = 0
show = ["derivative", "area"]

[render]
width = 1024.0

[animation]
target = "amplitude"
interval-ms = 50
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chart.Function == nil || *cfg.Chart.Function != "cosine" {
		t.Fatalf("unexpected function: %v", cfg.Chart.Function)
	}
	if cfg.Chart.XMin == nil || *cfg.Chart.XMin != -5 || *cfg.Chart.XMax != 5.5 {
		t.Fatalf("unexpected domain: %v %v", cfg.Chart.XMin, cfg.Chart.XMax)
	}
	if cfg.Chart.Phase == nil || *cfg.Chart.Phase != 0 {
		t.Fatalf("expected explicit zero phase to be set")
	}
	if cfg.Chart.Amplitude != nil {
		t.Fatalf("expected unset amplitude")
	}
	if cfg.Chart.Show == nil || len(*cfg.Chart.Show) != 2 {
		t.Fatalf("unexpected show list: %v", cfg.Chart.Show)
	}
	if cfg.Render.Width == nil || *cfg.Render.Width != 1024 {
		t.Fatalf("unexpected width: %v", cfg.Render.Width)
	}
	if cfg.Animation.IntervalMs == nil || *cfg.Animation.IntervalMs != 50 {
		t.Fatalf("unexpected interval: %v", cfg.Animation.IntervalMs)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[chart]\ncolour = \"red\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestDefaultPathsHonorXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "calcviz", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "calcviz", "calcviz.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultExportDir(); got != filepath.Join("/tmp/data", "calcviz", "exports") {
		t.Fatalf("unexpected export dir %q", got)
	}
}
