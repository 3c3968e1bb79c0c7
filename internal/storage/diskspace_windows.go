//go:build windows

package storage

import (
	"golang.org/x/sys/windows"
)

// FreeSpaceMB reports the free space available on the volume containing
// path, in megabytes, for spec.md §3's pre-flight storage.min_disk_space_mb
// check.
func FreeSpaceMB(path string) (uint64, error) {
	var freeBytesAvailable uint64
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, nil, nil); err != nil {
		return 0, err
	}
	return freeBytesAvailable / (1024 * 1024), nil
}
