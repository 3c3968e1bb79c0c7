package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/shim"
)

func TestSetupCommandCreatesLayoutAndConfig(t *testing.T) {
	home := filepath.Join(t.TempDir(), "kopi-home")
	ctx := &Ctx{Home: home}
	cmd := &setupCommand{}

	captureStdout(t, func() {
		if err := cmd.Run(ctx, nil); err != nil {
			t.Fatal(err)
		}
	})

	for _, dir := range []string{"jdks", "jres", "cache", shim.ShimsDir, "locks"} {
		if info, err := os.Stat(filepath.Join(home, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s to exist as a directory: %v", dir, err)
		}
	}

	if _, err := os.Stat(config.Path(home)); err != nil {
		t.Fatalf("expected config.toml to be written: %v", err)
	}

	// Re-running setup must not clobber an edited config.
	if err := os.WriteFile(config.Path(home), []byte("default_distribution = \"corretto\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	captureStdout(t, func() {
		if err := cmd.Run(ctx, nil); err != nil {
			t.Fatal(err)
		}
	})
	cfg, err := config.Load(home)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultDistribution != "corretto" {
		t.Fatalf("expected setup to preserve existing config, got %+v", cfg)
	}
}
