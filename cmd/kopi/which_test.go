package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/version"
)

// installFakeJdk fabricates an activated <dist>-<ver> installation directly
// under home/jdks, skipping the fetch pipeline — this package only needs a
// store.List()-visible entry with a real java binary underneath it.
func installFakeJdk(t *testing.T, home, distribution, ver string) {
	t.Helper()
	store := storage.NewStore(home, version.Jdk)
	binDir := filepath.Join(store.InstallPath(distribution, ver), "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "java"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestWhichCommandResolvesToolPath(t *testing.T) {
	home := t.TempDir()
	cwd := t.TempDir()
	installFakeJdk(t, home, "temurin", "21.0.1")
	t.Setenv("KOPI_JAVA_VERSION", "temurin@21")

	ctx := &Ctx{Home: home, Cwd: cwd, Cfg: config.Default()}
	cmd := &whichCommand{}

	out := captureStdout(t, func() {
		if err := cmd.Run(ctx, nil); err != nil {
			t.Fatal(err)
		}
	})
	if !strings.Contains(out, filepath.Join("temurin-21.0.1", "bin", "java")) {
		t.Fatalf("expected resolved java path, got %q", out)
	}
}

func TestWhichCommandNoMatchReturnsJdkNotInstalled(t *testing.T) {
	home := t.TempDir()
	cwd := t.TempDir()
	t.Setenv("KOPI_JAVA_VERSION", "temurin@21")

	ctx := &Ctx{Home: home, Cwd: cwd, Cfg: config.Default()}
	cmd := &whichCommand{}

	err := cmd.Run(ctx, nil)
	if err == nil {
		t.Fatal("expected an error when no matching JDK is installed")
	}
	if _, ok := err.(*kopierr.JdkNotInstalled); !ok {
		t.Fatalf("expected *kopierr.JdkNotInstalled, got %T: %v", err, err)
	}
}
