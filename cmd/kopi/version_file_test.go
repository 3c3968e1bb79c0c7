package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// captureStdout redirects os.Stdout for the duration of fn and returns what
// was written, for commands that fmt.Print straight to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestGlobalCommandRoundTrip(t *testing.T) {
	ctx := &Ctx{Home: t.TempDir()}
	cmd := &globalCommand{}

	out := captureStdout(t, func() {
		if err := cmd.Run(ctx, nil); err != nil {
			t.Fatal(err)
		}
	})
	if !strings.Contains(out, "no global default set") {
		t.Fatalf("expected no-default message, got %q", out)
	}

	if err := cmd.Run(ctx, []string{"temurin@21"}); err != nil {
		t.Fatal(err)
	}

	out = captureStdout(t, func() {
		if err := cmd.Run(ctx, nil); err != nil {
			t.Fatal(err)
		}
	})
	if strings.TrimSpace(out) != "temurin@21" {
		t.Fatalf("expected %q, got %q", "temurin@21", out)
	}
}

func TestLocalCommandRoundTrip(t *testing.T) {
	ctx := &Ctx{Cwd: t.TempDir()}
	cmd := &localCommand{}

	out := captureStdout(t, func() {
		if err := cmd.Run(ctx, nil); err != nil {
			t.Fatal(err)
		}
	})
	if !strings.Contains(out, "no local version set") {
		t.Fatalf("expected no-local message, got %q", out)
	}

	if err := cmd.Run(ctx, []string{"17"}); err != nil {
		t.Fatal(err)
	}

	out = captureStdout(t, func() {
		if err := cmd.Run(ctx, nil); err != nil {
			t.Fatal(err)
		}
	})
	if strings.TrimSpace(out) != "17" {
		t.Fatalf("expected %q, got %q", "17", out)
	}
}
