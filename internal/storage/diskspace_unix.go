//go:build !windows

package storage

import (
	"syscall"

	"github.com/pkg/errors"
)

// FreeSpaceMB reports the free space available on the filesystem
// containing path, in megabytes, for spec.md §3's pre-flight
// storage.min_disk_space_mb check.
func FreeSpaceMB(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, errors.Wrapf(err, "statfs %s", path)
	}
	return (uint64(stat.Bavail) * uint64(stat.Bsize)) / (1024 * 1024), nil
}
