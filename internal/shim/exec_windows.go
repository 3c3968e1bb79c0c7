//go:build windows

package shim

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// InvokedAs returns the current executable's file stem, per spec.md §4.7
// step 1's Windows case: the shim is deployed as a per-tool .exe copy
// rather than a symlink, so the tool name comes from the binary's own
// name, not argv[0].
func InvokedAs(argv0 string) string {
	exe, err := os.Executable()
	if err != nil {
		return strings.TrimSuffix(filepath.Base(argv0), filepath.Ext(argv0))
	}
	base := filepath.Base(exe)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Replace spawns path as a child with inherited standard handles, waits,
// and propagates the exit code, per spec.md §4.7 step 6's Windows case
// (Windows has no exec-in-place primitive like Unix execve).
func Replace(path string, argv []string) error {
	cmd := exec.Command(path, argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return errors.Wrapf(err, "running %s", path)
	}
	os.Exit(0)
	return nil
}
