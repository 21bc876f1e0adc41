package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(&Config{}, cfg); diff != "" {
		t.Errorf("expected zero config (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dockctl", "config.json")

	want := &Config{BaseURL: "http://nas:12712", RequestTimeout: "45s", LogLevel: "debug", Output: "json"}
	if err := want.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "config.json")

	cfg := &Config{BaseURL: "http://localhost:12712"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestSetPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	SetPath(path)
	t.Cleanup(ResetPath)

	got, err := Path()
	if err != nil || got != path {
		t.Fatalf("Path() = (%q, %v), want %q", got, err, path)
	}

	if err := (&Config{Output: "yaml"}).Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	cfg, err := Load()
	if err != nil || cfg.Output != "yaml" {
		t.Errorf("Load() = (%+v, %v)", cfg, err)
	}
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 30 * time.Second},
		{"5s", 5 * time.Second},
		{"garbage", 30 * time.Second},
		{"-1s", 30 * time.Second},
	}
	for _, tt := range tests {
		cfg := &Config{RequestTimeout: tt.value}
		if got := cfg.Timeout(30 * time.Second); got != tt.want {
			t.Errorf("Timeout(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
	var nilCfg *Config
	if got := nilCfg.Timeout(time.Second); got != time.Second {
		t.Errorf("nil config Timeout() = %v", got)
	}
}
