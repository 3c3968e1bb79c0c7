package shim

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/storage"
)

// ToolExecutable returns the executable for tool inside jdk, per spec.md
// §4.7 step 4: use installation metadata's java_home_suffix when present,
// otherwise fall back to runtime detection (<install>/bin, then
// <install>/Contents/Home/bin).
func ToolExecutable(jdk *storage.InstalledJdk, tool string) (string, error) {
	home, err := jdk.JavaHome()
	if err != nil {
		return "", err
	}

	name := tool
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	path := filepath.Join(home, "bin", name)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() || !isExecutable(info) {
		return "", &kopierr.ToolNotFound{Tool: tool, Jdk: jdk.Path}
	}
	return path, nil
}

func isExecutable(info os.FileInfo) bool {
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}

// ToolName extracts the tool name the shim was invoked as, per spec.md
// §4.7 step 1: argv[0]'s base name on Unix, the current executable's file
// stem on Windows (both already resolved by the platform-specific
// exec_*.go InvokedAs helper before reaching here). Trimming ".exe" keeps
// the two platforms' results comparable.
func ToolName(invokedAs string) string {
	name := filepath.Base(invokedAs)
	const exeSuffix = ".exe"
	if len(name) > len(exeSuffix) && name[len(name)-len(exeSuffix):] == exeSuffix {
		name = name[:len(name)-len(exeSuffix)]
	}
	return name
}

// FindOthersWith lists the paths of installed JDKs (other than the one
// that just failed) which do provide tool, for ToolNotFound's hint, per
// spec.md §4.7 step 5.
func FindOthersWith(jdks []*storage.InstalledJdk, excludePath, tool string) []string {
	var out []string
	for _, j := range jdks {
		if j.Path == excludePath {
			continue
		}
		if _, err := ToolExecutable(j, tool); err == nil {
			out = append(out, j.Path)
		}
	}
	return out
}
