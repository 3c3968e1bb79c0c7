//go:build windows

package shim

import "github.com/kopi-vm/kopi/internal/storage"

// shimName appends ".exe": InvokedAs reads the current executable's file
// stem on Windows, so each tool needs its own differently-named copy.
func shimName(tool string) string { return tool + ".exe" }

// createShim copies shimBinary to target, since Windows has no cheap
// equivalent of a Unix symlink that every filesystem/user account supports
// without elevated privilege. Grounded on golang-dep fs.go's CopyFile,
// reused here via internal/storage.
func createShim(shimBinary, target string) error {
	return storage.CopyFile(shimBinary, target)
}
