package shim

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ShimsDir is the per-home directory shim executables/symlinks live under,
// the directory users are expected to put on PATH ahead of any system JDK.
const ShimsDir = "shims"

// EnsureShims creates any missing shim entries for tools, per spec.md
// §4.7's "Call shim installer to create any missing shims" install step.
// Existing entries are left untouched so a user's own customizations
// (e.g. a hand-edited wrapper) survive repeated installs. shimBinary is the
// path to the kopi-shim executable shims should dispatch through.
func EnsureShims(home, shimBinary string, tools []string) error {
	dir := filepath.Join(home, ShimsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	for _, tool := range tools {
		target := filepath.Join(dir, shimName(tool))
		if _, err := os.Lstat(target); err == nil {
			continue
		}
		if err := createShim(shimBinary, target); err != nil {
			return errors.Wrapf(err, "creating shim for %s", tool)
		}
	}
	return nil
}
