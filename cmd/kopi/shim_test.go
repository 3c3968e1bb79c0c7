package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kopi-vm/kopi/internal/shim"
)

func TestShimCommandListAddRemoveVerify(t *testing.T) {
	home := t.TempDir()
	shimBin := filepath.Join(t.TempDir(), "kopi-shim")
	if err := os.WriteFile(shimBin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	ctx := &Ctx{Home: home, ShimPath: shimBin}
	cmd := &shimCommand{}

	out := captureStdout(t, func() {
		if err := cmd.Run(ctx, []string{"list"}); err != nil {
			t.Fatal(err)
		}
	})
	if !strings.Contains(out, "no shims yet") {
		t.Fatalf("expected no-shims message, got %q", out)
	}

	if err := cmd.Run(ctx, []string{"add", "java", "javac"}); err != nil {
		t.Fatal(err)
	}

	out = captureStdout(t, func() {
		if err := cmd.Run(ctx, []string{"list"}); err != nil {
			t.Fatal(err)
		}
	})
	if !strings.Contains(out, "java") || !strings.Contains(out, "javac") {
		t.Fatalf("expected both shims listed, got %q", out)
	}

	out = captureStdout(t, func() {
		if err := cmd.Run(ctx, []string{"verify"}); err != nil {
			t.Fatal(err)
		}
	})
	if !strings.Contains(out, "java: ok") {
		t.Fatalf("expected java shim to verify ok, got %q", out)
	}

	if err := cmd.Run(ctx, []string{"remove", "java"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Lstat(filepath.Join(home, shim.ShimsDir, "java")); !os.IsNotExist(err) {
		t.Fatalf("expected java shim removed, stat err = %v", err)
	}
}
