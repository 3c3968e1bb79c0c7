package main

import (
	"strings"
	"testing"
)

func TestListCommandReportsInstalledJdks(t *testing.T) {
	home := t.TempDir()
	ctx := &Ctx{Home: home}
	cmd := &listCommand{}

	out := captureStdout(t, func() {
		if err := cmd.Run(ctx, nil); err != nil {
			t.Fatal(err)
		}
	})
	if !strings.Contains(out, "no JDKs installed") {
		t.Fatalf("expected empty-store message, got %q", out)
	}

	installFakeJdk(t, home, "temurin", "21.0.1")

	out = captureStdout(t, func() {
		if err := cmd.Run(ctx, nil); err != nil {
			t.Fatal(err)
		}
	})
	if !strings.Contains(out, "temurin-21.0.1") {
		t.Fatalf("expected installed jdk listed, got %q", out)
	}
}
