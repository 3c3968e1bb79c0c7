package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := Load(home)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("Load(missing) = %+v, want %+v", cfg, want)
	}
}

func TestLoadOverlaysPartialFile(t *testing.T) {
	home := t.TempDir()
	body := []byte("default_distribution = \"corretto\"\n\n[cache]\nttl_hours = 24\n")
	if err := os.WriteFile(filepath.Join(home, FileName), body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(home)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultDistribution != "corretto" {
		t.Fatalf("DefaultDistribution = %q", cfg.DefaultDistribution)
	}
	if cfg.Cache.TTLHours != 24 {
		t.Fatalf("Cache.TTLHours = %d", cfg.Cache.TTLHours)
	}
	// Untouched keys keep their defaults.
	if cfg.Storage.MinDiskSpaceMB != 500 {
		t.Fatalf("Storage.MinDiskSpaceMB = %d, want default 500", cfg.Storage.MinDiskSpaceMB)
	}
	if !cfg.AutoInstall.Enabled {
		t.Fatalf("AutoInstall.Enabled should keep its default of true")
	}
}

func TestValidateRejectsBadLockingMode(t *testing.T) {
	cfg := Default()
	cfg.Locking.Mode = "sometimes"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid locking.mode")
	}
}

func TestValidateRejectsZeroAutoInstallTimeout(t *testing.T) {
	cfg := Default()
	cfg.AutoInstall.TimeoutSecs = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero auto_install.timeout_secs")
	}
}

func TestLockingDurationInfinite(t *testing.T) {
	l := Locking{Timeout: "infinite"}
	d, err := l.Duration()
	if err != nil || d != 0 {
		t.Fatalf("Duration() = %v, %v, want 0, nil", d, err)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	home := t.TempDir()
	cfg := Default()
	cfg.DefaultDistribution = "liberica"
	cfg.Shims.AdditionalTools = []string{"jshell", "jpackage"}

	if err := Save(home, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(home)
	if err != nil {
		t.Fatal(err)
	}
	if got.DefaultDistribution != "liberica" {
		t.Fatalf("DefaultDistribution = %q", got.DefaultDistribution)
	}
	if len(got.Shims.AdditionalTools) != 2 {
		t.Fatalf("AdditionalTools = %v", got.Shims.AdditionalTools)
	}
}

func TestForcedBackend(t *testing.T) {
	cfg := Default()
	cfg.Locking.Mode = LockingAuto
	if _, ok := cfg.ForcedBackend(); ok {
		t.Fatal("auto mode should not force a backend")
	}

	cfg.Locking.Mode = LockingAdvisory
	if _, ok := cfg.ForcedBackend(); !ok {
		t.Fatal("advisory mode should force a backend")
	}
}
