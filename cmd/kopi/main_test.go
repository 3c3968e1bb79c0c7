package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantCmd      string
		wantCmdUsage bool
		wantExit     bool
	}{
		{name: "no args", args: []string{"kopi"}, wantExit: true},
		{name: "bare help", args: []string{"kopi", "-h"}, wantExit: true},
		{name: "help word", args: []string{"kopi", "help"}, wantExit: true},
		{name: "single command", args: []string{"kopi", "install"}, wantCmd: "install"},
		{name: "command with args", args: []string{"kopi", "install", "21"}, wantCmd: "install"},
		{name: "help for command", args: []string{"kopi", "help", "install"}, wantCmd: "install", wantCmdUsage: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, cmdUsage, exit := parseArgs(tt.args)
			if cmd != tt.wantCmd || cmdUsage != tt.wantCmdUsage || exit != tt.wantExit {
				t.Fatalf("parseArgs(%v) = (%q, %v, %v), want (%q, %v, %v)",
					tt.args, cmd, cmdUsage, exit, tt.wantCmd, tt.wantCmdUsage, tt.wantExit)
			}
		})
	}
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	code := run([]string{"kopi"}, w)
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "Usage: kopi <command>") {
		t.Fatalf("expected usage banner, got %q", buf.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	code := run([]string{"kopi", "frobnicate"}, w)
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "no such command") {
		t.Fatalf("expected no-such-command message, got %q", buf.String())
	}
}

func TestRunVersionCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("KOPI_HOME", home)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	code := run([]string{"kopi", "version"}, w)
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)

	if code != 0 {
		t.Fatalf("exit code = %d, want 0: %s", code, buf.String())
	}
}

func TestShimBinaryName(t *testing.T) {
	name := shimBinaryName()
	if name != "kopi-shim" && name != "kopi-shim.exe" {
		t.Fatalf("unexpected shim binary name %q", name)
	}
}

func TestKopiHomeHonorsEnv(t *testing.T) {
	t.Setenv("KOPI_HOME", "/tmp/kopi-home-test")
	home, err := kopiHome()
	if err != nil {
		t.Fatal(err)
	}
	if home != "/tmp/kopi-home-test" {
		t.Fatalf("kopiHome() = %q, want /tmp/kopi-home-test", home)
	}
}
