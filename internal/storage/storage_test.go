package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kopi-vm/kopi/internal/version"
)

func writeFakeJava(t *testing.T, dir string) {
	t.Helper()
	bin := filepath.Join(dir, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bin, "java"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestCopyDirPreservesSymlinksAndFileModes(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "bin", "java"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("bin", filepath.Join(src, "jre")); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "copied")
	if err := CopyDir(src, dest); err != nil {
		t.Fatal(err)
	}

	info, err := os.Lstat(filepath.Join(dest, "jre"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("expected jre to remain a symlink in the copy")
	}
	target, err := os.Readlink(filepath.Join(dest, "jre"))
	if err != nil {
		t.Fatal(err)
	}
	if target != "bin" {
		t.Fatalf("symlink target = %q, want %q", target, "bin")
	}

	javaInfo, err := os.Stat(filepath.Join(dest, "bin", "java"))
	if err != nil {
		t.Fatal(err)
	}
	if javaInfo.Mode().Perm() != 0o755 {
		t.Fatalf("copied file mode = %v, want 0755", javaInfo.Mode().Perm())
	}
}

func TestRenameWithFallbackSameDeviceUsesRename(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dest := filepath.Join(root, "dest")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "marker"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := renameWithFallback(src, dest); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dest, "marker")); err != nil {
		t.Fatalf("expected marker at dest: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("expected src to be gone after rename")
	}
}

func TestStageActivateList(t *testing.T) {
	home := t.TempDir()
	s := NewStore(home, version.Jdk)

	staging, err := s.Stage()
	if err != nil {
		t.Fatal(err)
	}
	writeFakeJava(t, staging)

	var meta Metadata
	meta.Installation.StructureType = Direct
	if err := s.Activate(staging, "temurin", "21.0.5", meta); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(staging); !os.IsNotExist(err) {
		t.Fatalf("expected staging dir gone after activate")
	}

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("List() = %d entries, want 1", len(list))
	}
	if list[0].Distribution != "temurin" || list[0].DistributionVersion != "21.0.5" {
		t.Fatalf("unexpected entry: %+v", list[0])
	}

	loaded, err := list[0].Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || loaded.Installation.StructureType != Direct {
		t.Fatalf("metadata not round-tripped: %+v", loaded)
	}
}

func TestListSkipsTmpAndMalformedNames(t *testing.T) {
	home := t.TempDir()
	s := NewStore(home, version.Jdk)
	if err := os.MkdirAll(s.tmpDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(s.Root(), "noversionsep"), 0o755); err != nil {
		t.Fatal(err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("List() = %v, want empty", list)
	}
}

func TestRemoveReportsBytesFreed(t *testing.T) {
	home := t.TempDir()
	s := NewStore(home, version.Jdk)

	staging, err := s.Stage()
	if err != nil {
		t.Fatal(err)
	}
	writeFakeJava(t, staging)
	if err := os.WriteFile(filepath.Join(staging, "bin", "java"), make([]byte, 1024), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := s.Activate(staging, "liberica", "21", Metadata{}); err != nil {
		t.Fatal(err)
	}

	freed, err := s.Remove("liberica", "21")
	if err != nil {
		t.Fatal(err)
	}
	if freed < 1024 {
		t.Fatalf("freed = %d, want >= 1024", freed)
	}
	if _, err := os.Stat(s.InstallPath("liberica", "21")); !os.IsNotExist(err) {
		t.Fatalf("expected install dir removed")
	}
}

func TestDetectStructureDirectAndBundle(t *testing.T) {
	direct := t.TempDir()
	writeFakeJava(t, direct)
	st, suffix, err := DetectStructure(direct)
	if err != nil || st != Direct || suffix != "" {
		t.Fatalf("direct: st=%v suffix=%q err=%v", st, suffix, err)
	}

	bundle := t.TempDir()
	writeFakeJava(t, filepath.Join(bundle, "Contents", "Home"))
	st, suffix, err = DetectStructure(bundle)
	if err != nil || st != Bundle || suffix != "Contents/Home" {
		t.Fatalf("bundle: st=%v suffix=%q err=%v", st, suffix, err)
	}
}

func TestDetectStructureDelegatesToSingleChild(t *testing.T) {
	root := t.TempDir()
	writeFakeJava(t, filepath.Join(root, "jdk-21.0.5+11"))
	st, suffix, err := DetectStructure(root)
	if err != nil || st != Direct || suffix != "jdk-21.0.5+11" {
		t.Fatalf("st=%v suffix=%q err=%v", st, suffix, err)
	}
}

func TestDetectStructureFailsWithValidationError(t *testing.T) {
	root := t.TempDir()
	if _, _, err := DetectStructure(root); err == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestJavaHomeFallsBackToRuntimeDetection(t *testing.T) {
	home := t.TempDir()
	s := NewStore(home, version.Jdk)
	staging, err := s.Stage()
	if err != nil {
		t.Fatal(err)
	}
	writeFakeJava(t, filepath.Join(staging, "Contents", "Home"))
	// Activate with no structure_type/java_home_suffix recorded: JavaHome()
	// must still find Contents/Home via detectJavaHome.
	if err := s.Activate(staging, "zulu", "17", Metadata{}); err != nil {
		t.Fatal(err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	home2, err := list[0].JavaHome()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(s.InstallPath("zulu", "17"), "Contents", "Home")
	if home2 != want {
		t.Fatalf("JavaHome() = %q, want %q", home2, want)
	}
}
