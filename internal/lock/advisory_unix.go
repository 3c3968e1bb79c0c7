//go:build !windows

package lock

import (
	"os"

	"golang.org/x/sys/unix"
)

// tryLockFile takes a non-blocking flock(2) in the requested mode, retrying
// on EINTR per spec.md §4.3.
func tryLockFile(f *os.File, mode Mode) (bool, error) {
	how := unix.LOCK_EX
	if mode == Shared {
		how = unix.LOCK_SH
	}
	how |= unix.LOCK_NB

	for {
		err := unix.Flock(int(f.Fd()), how)
		switch {
		case err == nil:
			return true, nil
		case err == unix.EINTR:
			continue
		case err == unix.EWOULDBLOCK:
			return false, nil
		default:
			return false, err
		}
	}
}

func unlockFile(f *os.File) error {
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_UN)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}
