//go:build !windows

package shim

import "os"

// shimName is the symlink's own name: InvokedAs reads argv[0] on Unix, so
// the tool name comes from the link's name itself, not its extension.
func shimName(tool string) string { return tool }

// createShim creates a symlink named target pointing at shimBinary, per
// spec.md §4.7's Unix tool-name-detection rule (argv[0] is the symlink
// name the OS resolved through).
func createShim(shimBinary, target string) error {
	return os.Symlink(shimBinary, target)
}
