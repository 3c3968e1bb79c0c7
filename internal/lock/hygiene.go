package lock

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// staleTmpAge is the hygiene threshold from spec.md §4.3: a ".tmp.*" file
// older than this is considered abandoned by a crashed writer.
const staleTmpAge = 60 * time.Second

// Sweep removes stale ".tmp.*" and ".marker" artefacts under
// home/locks/, per spec.md §4.3 and §8's "no stale .tmp* file" invariant.
// It is run once at CLI start-up (see DESIGN.md Open Question #2): never
// from the shim's hot path, and never removes a ".lock"/".marker" pair that
// still looks live (recent mtime, or a marker whose PID is still running).
func (c *Controller) Sweep() error {
	dir := c.locksDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "reading locks directory %s", dir)
	}

	now := time.Now()
	var firstErr error
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(dir, name)

		switch {
		case strings.Contains(name, ".tmp."):
			info, err := e.Info()
			if err != nil {
				continue
			}
			if now.Sub(info.ModTime()) > staleTmpAge {
				if err := os.Remove(full); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		case strings.HasSuffix(name, ".marker"):
			if c.markerIsStale(full) {
				if err := os.Remove(full); err != nil && firstErr == nil {
					firstErr = err
				}
				// A fallback-backend lock whose marker is stale is itself
				// abandoned; clean the paired .lock file too.
				lockPath := strings.TrimSuffix(full, ".marker")
				os.Remove(lockPath)
			}
		}
	}
	return firstErr
}

func (c *Controller) markerIsStale(markerPath string) bool {
	info, err := os.Stat(markerPath)
	if err != nil || time.Since(info.ModTime()) <= staleTmpAge {
		return false
	}
	data, err := os.ReadFile(markerPath)
	if err != nil {
		return false
	}
	pid, _, ok := parseMarker(data)
	if !ok {
		return true
	}
	return !pidAlive(pid)
}
