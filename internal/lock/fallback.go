package lock

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// fallbackBackend approximates locking on filesystems where advisory locks
// are unreliable (network shares, FAT family) using atomic rename: only one
// "<lockpath>.tmp.<uuid>" -> "<lockpath>" rename can win. A sibling
// "<lockpath>.marker" records {pid, start-timestamp} for the hygiene sweep,
// since, unlike an OS advisory lock, a rename-based lock file does not
// self-release when its owning process dies.
//
// Grounded directly on golang-dep's fs.go renameWithFallback and
// source_manager.go's "sm.lock" O_CREATE|O_EXCL single-writer file.
type fallbackBackend struct{}

func newFallbackBackend() Backend { return &fallbackBackend{} }

// NewFallbackBackend exposes the fallback backend directly so callers that
// need to honor a config-forced `locking.mode = "fallback"` (spec.md §3)
// can bypass the Controller's filesystem classification.
func NewFallbackBackend() Backend { return newFallbackBackend() }

func markerPath(lockPath string) string { return lockPath + ".marker" }

func (b *fallbackBackend) TryAcquire(path string, mode Mode) (*Acquisition, bool, error) {
	if mode == Shared {
		return b.tryAcquireShared(path)
	}
	return b.tryAcquireExclusive(path)
}

// tryAcquireExclusive wins iff its tmp-then-rename is the one that lands.
func (b *fallbackBackend) tryAcquireExclusive(path string) (*Acquisition, bool, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, false, nil
	} else if !os.IsNotExist(err) {
		return nil, false, wrapAcquireErr(path, err)
	}

	tmp := fmt.Sprintf("%s.tmp.%s", path, uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, false, wrapAcquireErr(path, err)
	}
	fmt.Fprintf(f, "%d\n%d\n", os.Getpid(), time.Now().Unix())
	f.Close()

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		if os.IsExist(err) {
			return nil, false, nil
		}
		return nil, false, wrapAcquireErr(path, err)
	}

	marker := markerPath(path)
	mf, err := os.Create(marker)
	if err == nil {
		fmt.Fprintf(mf, "%d\n%d\n", os.Getpid(), time.Now().Unix())
		mf.Close()
	}

	acq := &Acquisition{
		resource: path,
		release: func() error {
			var firstErr error
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				firstErr = err
			}
			if err := os.Remove(marker); err != nil && !os.IsNotExist(err) && firstErr == nil {
				firstErr = err
			}
			return firstErr
		},
	}
	return acq, true, nil
}

// tryAcquireShared succeeds so long as no exclusive marker is currently
// present, approximating reader/writer semantics without maintaining a
// reader count file, per spec.md §4.3.
func (b *fallbackBackend) tryAcquireShared(path string) (*Acquisition, bool, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, false, nil
	} else if !os.IsNotExist(err) {
		return nil, false, wrapAcquireErr(path, err)
	}
	acq := &Acquisition{resource: path, release: func() error { return nil }}
	return acq, true, nil
}

func (b *fallbackBackend) Acquire(path string, mode Mode, timeout time.Duration, obs WaitObserver) (*Acquisition, error) {
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

func parseMarker(data []byte) (pid int, startUnix int64, ok bool) {
	var p, s int64
	n, err := fmt.Sscanf(string(data), "%d\n%d\n", &p, &s)
	if err != nil || n != 2 {
		return 0, 0, false
	}
	return int(p), s, true
}
