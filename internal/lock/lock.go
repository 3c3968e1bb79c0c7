// Package lock implements the cross-process locking foundation (component
// C3): advisory and atomic-rename-fallback backends behind a common
// Controller, RAII acquisitions, wait observers, and a startup hygiene
// sweep.
//
// Grounded on golang-dep's fs.go (renameWithFallback) for the fallback
// backend's rename semantics, source_manager.go's O_CREATE|O_EXCL sm.lock
// for the single-writer-marker pattern, and the public surface
// (NewFlock/Lock/TryLock/Unlock) of golang-dep's vendored
// github.com/theckman/go-flock for the advisory backend's shape.
package lock

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/platform"
)

// Mode is the lock mode requested.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

// WaitObserver lets callers surface progress while a lock wait is in
// flight, per spec.md §4.3.
type WaitObserver interface {
	OnWaitStart(resource string)
	OnRetry(resource string, elapsed time.Duration)
	OnAcquired(resource string, waited time.Duration)
	OnTimeout(resource string, waited time.Duration)
	OnCancelled(resource string)
}

// NoopObserver implements WaitObserver with no-ops, the default when the
// caller doesn't care about wait feedback.
type NoopObserver struct{}

func (NoopObserver) OnWaitStart(string)               {}
func (NoopObserver) OnRetry(string, time.Duration)    {}
func (NoopObserver) OnAcquired(string, time.Duration) {}
func (NoopObserver) OnTimeout(string, time.Duration)  {}
func (NoopObserver) OnCancelled(string)               {}

// Acquisition is an RAII handle on a held lock. Release is idempotent and
// must be safe to call via defer on every exit path, per spec.md §3's
// LockAcquisition ownership rule.
type Acquisition struct {
	resource string
	once     sync.Once
	release  func() error
	released bool
	mu       sync.Mutex
}

// Release drops the lock. Per spec.md §4.3, release failures are logged by
// the caller (via the returned error) but must never override the result of
// the operation the lock guarded.
func (a *Acquisition) Release() error {
	var err error
	a.once.Do(func() {
		a.mu.Lock()
		a.released = true
		a.mu.Unlock()
		if releaseErr := a.release(); releaseErr != nil {
			err = &kopierr.LockingRelease{Resource: a.resource, Cause: releaseErr}
		}
	})
	return err
}

// Backend is the common surface of the advisory and fallback
// implementations.
type Backend interface {
	// Acquire blocks (subject to timeout) until scope is locked in mode,
	// reporting progress through obs.
	Acquire(scope string, mode Mode, timeout time.Duration, obs WaitObserver) (*Acquisition, error)
	// TryAcquire attempts a non-blocking acquisition.
	TryAcquire(scope string, mode Mode) (*Acquisition, bool, error)
}

// Controller is the per-process lock façade described in spec.md §4.3: it
// selects a backend per scope based on the target directory's filesystem
// classification and logs a downgrade exactly once per mount per process.
type Controller struct {
	home        string
	advisory    Backend
	fallback    Backend
	forced      Backend
	observer    WaitObserver
	onDowngrade func(mount string)

	mu         sync.Mutex
	downgraded map[string]bool
}

// SetForcedBackend pins every subsequent Acquire/TryAcquire to backend,
// short-circuiting filesystem classification. Used when locking.mode is
// "advisory" or "fallback" rather than "auto" (spec.md §3). Pass nil to
// restore automatic classification.
func (c *Controller) SetForcedBackend(backend Backend) {
	c.mu.Lock()
	c.forced = backend
	c.mu.Unlock()
}

// NewController builds a Controller rooted at home (normally <KOPI_HOME>),
// where lock files live under home/locks/.
func NewController(home string, observer WaitObserver, onDowngrade func(mount string)) *Controller {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Controller{
		home:        home,
		advisory:    newAdvisoryBackend(),
		fallback:    newFallbackBackend(),
		observer:    observer,
		onDowngrade: onDowngrade,
		downgraded:  map[string]bool{},
	}
}

func (c *Controller) locksDir() string { return filepath.Join(c.home, "locks") }

// backendFor picks advisory or fallback based on the classification of the
// locks directory's filesystem, logging a one-time downgrade notice.
func (c *Controller) backendFor() Backend {
	c.mu.Lock()
	forced := c.forced
	c.mu.Unlock()
	if forced != nil {
		return forced
	}

	class := platform.ClassifyFS(c.locksDir())
	if class.AdvisoryOK {
		return c.advisory
	}

	c.mu.Lock()
	first := !c.downgraded[c.locksDir()]
	c.downgraded[c.locksDir()] = true
	c.mu.Unlock()

	if first && c.onDowngrade != nil {
		c.onDowngrade(c.locksDir())
	}
	return c.fallback
}

// scopePath turns a logical scope name (e.g. "install/temurin/<slug>" or
// "cache") into the on-disk lock path under home/locks/.
func (c *Controller) scopePath(scope string) string {
	return filepath.Join(c.locksDir(), scope+".lock")
}

// Acquire acquires scope in mode, waiting up to timeout. A timeout of zero
// means wait forever (spec.md §3's `locking.timeout = infinite`).
func (c *Controller) Acquire(scope string, mode Mode, timeout time.Duration) (*Acquisition, error) {
	backend := c.backendFor()
	path := c.scopePath(scope)
	return backend.Acquire(path, mode, timeout, c.observer)
}

// TryAcquire attempts a non-blocking acquisition of scope.
func (c *Controller) TryAcquire(scope string, mode Mode) (*Acquisition, bool, error) {
	backend := c.backendFor()
	return backend.TryAcquire(c.scopePath(scope), mode)
}

// InstallScope returns the canonical scope name for an installation lock
// keyed by a coordinate slug, per spec.md §3's locks/install/<dist>/<slug>.lock
// layout.
func InstallScope(distribution, slug string) string {
	return filepath.Join("install", distribution, slug)
}

// CacheScope is the canonical scope name for the cache-writer lock.
const CacheScope = "cache"

// backoff computes the exponential poll interval used while waiting for a
// non-blocking backend to free up, per spec.md §4.3: 10ms -> 1s cap.
func backoff(attempt int) time.Duration {
	d := 10 * time.Millisecond
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= time.Second {
			return time.Second
		}
	}
	return d
}

func timeoutErr(resource string, waited time.Duration) error {
	return &kopierr.LockingTimeout{Resource: resource, Waited: waited.String()}
}

func wrapAcquireErr(resource string, err error) error {
	return &kopierr.LockingAcquire{Resource: resource, Cause: errors.Wrap(err, fmt.Sprintf("acquiring %s", resource))}
}
