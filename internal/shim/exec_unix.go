//go:build !windows

package shim

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/pkg/errors"
)

// InvokedAs returns the name the shim was invoked as: argv[0], per spec.md
// §4.7 step 1's Unix case (the symlink name a curated tool's shim lives
// under in <home>/shims/).
func InvokedAs(argv0 string) string { return argv0 }

// Replace execs path in place of the current process, passing argv
// unchanged and the current environment through, per spec.md §4.7 step 6.
// On success this call never returns.
func Replace(path string, argv []string) error {
	env := os.Environ()
	if err := unix.Exec(path, argv, env); err != nil {
		return errors.Wrapf(err, "exec %s", path)
	}
	return nil
}
