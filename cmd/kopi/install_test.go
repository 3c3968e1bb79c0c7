package main

import (
	"testing"

	"github.com/kopi-vm/kopi/internal/config"
)

func TestRequestFromArgsExplicitCoordinate(t *testing.T) {
	ctx := &Ctx{Cfg: config.Default()}
	ctx.Cfg.DefaultDistribution = "temurin"

	req, err := requestFromArgs(ctx, []string{"21"})
	if err != nil {
		t.Fatal(err)
	}
	if req.Distribution != "temurin" {
		t.Fatalf("expected default distribution to fill in, got %q", req.Distribution)
	}
}

func TestRequestFromArgsExplicitDistributionOverridesDefault(t *testing.T) {
	ctx := &Ctx{Cfg: config.Default()}
	ctx.Cfg.DefaultDistribution = "temurin"

	req, err := requestFromArgs(ctx, []string{"corretto@17"})
	if err != nil {
		t.Fatal(err)
	}
	if req.Distribution != "corretto" {
		t.Fatalf("expected explicit distribution to win, got %q", req.Distribution)
	}
}

func TestRequestFromArgsFallsBackToResolve(t *testing.T) {
	home := t.TempDir()
	cwd := t.TempDir()
	t.Setenv("KOPI_JAVA_VERSION", "21")

	ctx := &Ctx{Cfg: config.Default(), Home: home, Cwd: cwd}
	req, err := requestFromArgs(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.Raw() != "21" {
		t.Fatalf("expected resolved request \"21\", got %q", req.Raw())
	}
}
