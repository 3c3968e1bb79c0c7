package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kopi-vm/kopi/internal/config"
)

func TestResolveEnvironmentWins(t *testing.T) {
	t.Setenv(EnvVar, "temurin@21")
	home := t.TempDir()
	req, src, err := Resolve(t.TempDir(), home, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if src.Kind != Environment {
		t.Fatalf("source = %v, want Environment", src.Kind)
	}
	if req.Distribution != "temurin" {
		t.Fatalf("distribution = %q", req.Distribution)
	}
}

func TestResolveKopiVersionFile(t *testing.T) {
	os.Unsetenv(EnvVar)
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ".kopi-version"), []byte("jre@corretto@17\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	req, src, err := Resolve(project, t.TempDir(), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if src.Kind != ProjectKopiVersion || src.Path != project {
		t.Fatalf("source = %+v", src)
	}
	if req.Distribution != "corretto" {
		t.Fatalf("distribution = %q", req.Distribution)
	}
}

func TestResolveKopiVersionFileSkipsCommentLines(t *testing.T) {
	os.Unsetenv(EnvVar)
	project := t.TempDir()
	content := "# pinned for the release branch\n\njre@corretto@17\n"
	if err := os.WriteFile(filepath.Join(project, ".kopi-version"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	req, src, err := Resolve(project, t.TempDir(), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if src.Kind != ProjectKopiVersion || src.Path != project {
		t.Fatalf("source = %+v", src)
	}
	if req.Distribution != "corretto" {
		t.Fatalf("distribution = %q", req.Distribution)
	}
}

func TestResolveJavaVersionFileAppliesDefaultDistribution(t *testing.T) {
	os.Unsetenv(EnvVar)
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ".java-version"), []byte("21.0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.DefaultDistribution = "liberica"
	req, src, err := Resolve(project, t.TempDir(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if src.Kind != ProjectJavaVersion {
		t.Fatalf("source = %+v", src)
	}
	if req.Distribution != "liberica" {
		t.Fatalf("distribution = %q, want liberica default applied", req.Distribution)
	}
}

func TestResolveWalksUpToParent(t *testing.T) {
	os.Unsetenv(EnvVar)
	parent := t.TempDir()
	if err := os.WriteFile(filepath.Join(parent, ".kopi-version"), []byte("temurin@11\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	child := filepath.Join(parent, "nested", "deeper")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	req, src, err := Resolve(child, t.TempDir(), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if src.Path != parent {
		t.Fatalf("source path = %q, want %q", src.Path, parent)
	}
	if req.Distribution != "temurin" {
		t.Fatalf("distribution = %q", req.Distribution)
	}
}

func TestResolveGlobalDefault(t *testing.T) {
	os.Unsetenv(EnvVar)
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "version"), []byte("temurin@21\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	req, src, err := Resolve(t.TempDir(), home, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if src.Kind != GlobalDefault {
		t.Fatalf("source = %+v", src)
	}
	if req.Distribution != "temurin" {
		t.Fatalf("distribution = %q", req.Distribution)
	}
}

func TestResolveNoLocalVersion(t *testing.T) {
	os.Unsetenv(EnvVar)
	_, _, err := Resolve(t.TempDir(), t.TempDir(), config.Default())
	if err == nil {
		t.Fatal("expected NoLocalVersion error")
	}
}

func TestResolveJavaVersionRejectsAtSign(t *testing.T) {
	os.Unsetenv(EnvVar)
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ".java-version"), []byte("temurin@21\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := Resolve(project, t.TempDir(), config.Default())
	if err == nil {
		t.Fatal("expected rejection of '@' in .java-version")
	}
}
