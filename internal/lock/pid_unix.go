//go:build !windows

package lock

import "golang.org/x/sys/unix"

// pidAlive probes liveness with signal 0, which the kernel delivers to no
// one but still reports ESRCH if the process is gone.
func pidAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err == unix.EPERM
}
