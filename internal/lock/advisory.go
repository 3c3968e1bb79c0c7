package lock

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// advisoryBackend takes an OS-level advisory lock on a regular file,
// released automatically by the kernel when the holding process dies
// (spec.md §9 "Advisory-lock ownership across processes"). The raw
// lock/unlock syscalls are platform-specific (see advisory_unix.go,
// advisory_windows.go); this file holds the shared polling/backoff/timeout
// logic modeled on golang-dep's vendored github.com/theckman/go-flock
// (NewFlock/Lock/TryLock/Unlock surface).
type advisoryBackend struct{}

func newAdvisoryBackend() Backend { return &advisoryBackend{} }

// NewAdvisoryBackend exposes the advisory backend directly so callers that
// need to honor a config-forced `locking.mode = "advisory"` (spec.md §3)
// can bypass the Controller's filesystem classification.
func NewAdvisoryBackend() Backend { return newAdvisoryBackend() }

func (b *advisoryBackend) openLockFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrapf(err, "creating lock directory for %s", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "opening lock file %s", path)
	}
	return f, nil
}

func (b *advisoryBackend) TryAcquire(path string, mode Mode) (*Acquisition, bool, error) {
	f, err := b.openLockFile(path)
	if err != nil {
		return nil, false, wrapAcquireErr(path, err)
	}

	ok, err := tryLockFile(f, mode)
	if err != nil {
		f.Close()
		return nil, false, wrapAcquireErr(path, err)
	}
	if !ok {
		f.Close()
		return nil, false, nil
	}

	acq := &Acquisition{
		resource: path,
		release: func() error {
			if err := unlockFile(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	return acq, true, nil
}

func (b *advisoryBackend) Acquire(path string, mode Mode, timeout time.Duration, obs WaitObserver) (*Acquisition, error) {
	start := time.Now()
	obs.OnWaitStart(path)

	attempt := 0
	for {
		acq, ok, err := b.TryAcquire(path, mode)
		if err != nil {
			return nil, err
		}
		if ok {
			obs.OnAcquired(path, time.Since(start))
			return acq, nil
		}

		waited := time.Since(start)
		if timeout > 0 && waited >= timeout {
			obs.OnTimeout(path, waited)
			return nil, timeoutErr(path, waited)
		}

		obs.OnRetry(path, waited)
		wait := backoff(attempt)
		if timeout > 0 {
			if remaining := timeout - waited; remaining < wait {
				wait = remaining
			}
		}
		time.Sleep(wait)
		attempt++
	}
}
