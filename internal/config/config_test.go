package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "classes:\n  - storage\n  - ipod\nmpi_dirs:\n  - /opt/share\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UdevBackend != "database" || cfg.LogLevel != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Eject.TimeoutSeconds != 30 {
		t.Fatalf("expected default eject timeout, got %d", cfg.Eject.TimeoutSeconds)
	}
	if cfg.Database != "/data/playerdock/devices.db" {
		t.Fatalf("unexpected database path %q", cfg.Database)
	}
	if !reflect.DeepEqual(cfg.Classes, []string{"storage", "ipod"}) {
		t.Fatalf("unexpected classes %v", cfg.Classes)
	}
	if !reflect.DeepEqual(cfg.MPIDirs, []string{"/opt/share"}) {
		t.Fatalf("unexpected mpi dirs %v", cfg.MPIDirs)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "udev_backend: libudev\nlog_level: debug\ndatabase: /tmp/x.db\neject:\n  timeout_seconds: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{
		UdevBackend: "libudev",
		LogLevel:    "debug",
		Database:    "/tmp/x.db",
		Eject:       Eject{TimeoutSeconds: 5},
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("classes: [storage\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("expected parse error")
	}
}
