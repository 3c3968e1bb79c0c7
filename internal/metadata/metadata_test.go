package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kopi-vm/kopi/internal/lock"
)

func TestCacheSaveLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	c := NewCache(home)

	doc := Document{
		GeneratedAt: time.Now(),
		Source:      "dir:/tmp/idx",
		Packages: []Package{
			{Distribution: "temurin", JavaVersion: "21.0.5", IsComplete: true},
		},
	}
	if err := c.Save(doc); err != nil {
		t.Fatal(err)
	}

	loaded, ok, err := c.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if len(loaded.Packages) != 1 || loaded.Packages[0].Distribution != "temurin" {
		t.Fatalf("unexpected doc: %+v", loaded)
	}
	if _, err := os.Stat(c.path() + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected tmp file cleaned up after rename")
	}
}

func TestCacheLoadMissingIsNotError(t *testing.T) {
	home := t.TempDir()
	c := NewCache(home)
	_, ok, err := c.Load()
	if err != nil || ok {
		t.Fatalf("Load(missing): ok=%v err=%v", ok, err)
	}
}

func TestCacheLoadCorruptTreatedAsAbsent(t *testing.T) {
	home := t.TempDir()
	c := NewCache(home)
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path(), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Load()
	if err != nil || ok {
		t.Fatalf("Load(corrupt): ok=%v err=%v", ok, err)
	}
}

func TestDocumentIsStale(t *testing.T) {
	d := Document{GeneratedAt: time.Now().Add(-25 * time.Hour)}
	if !d.IsStale(24 * time.Hour) {
		t.Fatal("expected stale")
	}
	d2 := Document{GeneratedAt: time.Now()}
	if d2.IsStale(24 * time.Hour) {
		t.Fatal("expected fresh")
	}
}

func TestDirSourceFiltersByPlatform(t *testing.T) {
	dir := t.TempDir()
	entries := []indexEntry{
		{Path: "a.tar.gz", Distribution: "temurin", JavaVersion: "21", OperatingSystems: []string{"linux", "macos"}, Architectures: []string{"x64", "aarch64"}},
		{Path: "b.tar.gz", Distribution: "temurin", JavaVersion: "21", OperatingSystems: []string{"windows"}, Architectures: []string{"x64"}},
	}
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewDirSource(dir)
	if !src.IsAvailable() {
		t.Fatal("expected dir source available")
	}
	pkgs, err := src.FetchAll()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range pkgs {
		if p.OS == "windows" {
			t.Fatalf("windows entry should have been filtered on a non-windows test runner: %+v", p)
		}
	}
}

func TestDirSourceThreadsDistributionVersionAndReleaseFields(t *testing.T) {
	dir := t.TempDir()
	entries := []indexEntry{
		{
			Path: "a.tar.gz", Distribution: "temurin", JavaVersion: "21.0.5",
			DistributionVersion: "21.0.5+11", LTS: true, GaOrEa: "ga",
			OperatingSystems: []string{"linux"}, Architectures: []string{"x64"},
		},
		{
			Path: "b.tar.gz", Distribution: "temurin", JavaVersion: "23",
			OperatingSystems: []string{"linux"}, Architectures: []string{"x64"},
		},
	}
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	pkgs, err := NewDirSource(dir).FetchAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(pkgs))
	}

	byVersion := map[string]Package{}
	for _, p := range pkgs {
		byVersion[p.JavaVersion] = p
	}

	withDist := byVersion["21.0.5"]
	if withDist.DistributionVersion != "21.0.5+11" || !withDist.LTS || withDist.GaOrEa != "ga" {
		t.Fatalf("unexpected package: %+v", withDist)
	}

	withoutDist := byVersion["23"]
	if withoutDist.DistributionVersion != "23" {
		t.Fatalf("expected DistributionVersion to fall back to JavaVersion, got %+v", withoutDist)
	}
	if withoutDist.LTS || withoutDist.GaOrEa != "" {
		t.Fatalf("expected zero-value release fields when the index omits them, got %+v", withoutDist)
	}
}

func TestProviderFallsThroughUnavailableSources(t *testing.T) {
	dir := t.TempDir()
	entries := []indexEntry{{Path: "a.tar.gz", Distribution: "corretto", JavaVersion: "17", OperatingSystems: []string{"linux"}, Architectures: []string{"x64"}}}
	data, _ := json.Marshal(entries)
	os.WriteFile(filepath.Join(dir, "index.json"), data, 0o644)

	missing := NewDirSource(filepath.Join(dir, "does-not-exist"))
	present := NewDirSource(dir)
	p := NewProvider(missing, present)

	pkgs, err := p.FetchAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) == 0 {
		t.Fatal("expected the second source's packages")
	}
}

func TestRefreshAcquiresCacheLock(t *testing.T) {
	home := t.TempDir()
	controller := lock.NewController(home, nil, nil)
	cache := NewCache(home)

	dir := t.TempDir()
	entries := []indexEntry{{Path: "a.tar.gz", Distribution: "zulu", JavaVersion: "17", OperatingSystems: []string{"linux"}, Architectures: []string{"x64"}}}
	data, _ := json.Marshal(entries)
	os.WriteFile(filepath.Join(dir, "index.json"), data, 0o644)
	provider := NewProvider(NewDirSource(dir))

	doc, err := Refresh(controller, 2*time.Second, cache, provider, "dir:"+dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Packages) == 0 {
		t.Fatal("expected refreshed packages")
	}

	reloaded, ok, err := cache.Load()
	if err != nil || !ok {
		t.Fatalf("reload: ok=%v err=%v", ok, err)
	}
	if len(reloaded.Packages) != len(doc.Packages) {
		t.Fatalf("reloaded packages mismatch")
	}
}
