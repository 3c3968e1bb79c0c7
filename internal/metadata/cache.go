package metadata

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/lock"
)

// FileName is the cache document's name under <home>/cache/.
const FileName = "metadata.json"

// Cache is the on-disk metadata.json described in spec.md §4.4: read path
// is a direct unlocked read (writers never mutate in place, only rename),
// write path is lock-guarded staged-write-then-rename with bounded retry to
// tolerate transient Windows sharing violations.
type Cache struct {
	dir string
}

// NewCache returns the cache rooted at <home>/cache.
func NewCache(home string) *Cache {
	return &Cache{dir: filepath.Join(home, "cache")}
}

func (c *Cache) path() string { return filepath.Join(c.dir, FileName) }

// Load reads and parses the cache document. A missing file yields a zero
// Document and ok=false rather than an error, since "no cache yet" is a
// normal pre-first-refresh state.
func (c *Cache) Load() (Document, bool, error) {
	data, err := os.ReadFile(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, false, nil
		}
		return Document{}, false, errors.Wrapf(err, "reading %s", c.path())
	}
	doc, err := unmarshalDocument(data)
	if err != nil {
		// Corrupt cache is treated as absent, per spec.md §4.4's tolerance
		// for forward/backward format drift; a refresh will repair it.
		return Document{}, false, nil
	}
	return doc, true, nil
}

// IsStale reports whether doc is older than ttl.
func (d Document) IsStale(ttl time.Duration) bool {
	return time.Since(d.GeneratedAt) > ttl
}

// writeRetryBase/writeRetryCap (with the attempt count fixed inside
// renameWithRetry) implement spec.md §4.4's
// "50 ms initial, doubling, capped at 1 s" rename-retry budget for
// tolerating transient Windows sharing violations.
const (
	writeRetryBase = 50 * time.Millisecond
	writeRetryCap  = time.Second
)

// Save atomically swaps in doc under the cache-writer lock. The caller is
// expected to have already acquired lock.CacheScope; Save stages the
// document in "<cache file>.tmp" and renames it into place, and it does not
// itself acquire the Controller (callers compose that at the orchestration layer,
// mirroring golang-dep's Ctx.LoadProject acquire-then-mutate shape).
func (c *Cache) Save(doc Document) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", c.dir)
	}

	data, err := doc.marshal()
	if err != nil {
		return errors.Wrap(err, "encoding metadata cache")
	}

	tmp := c.path() + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "syncing %s", tmp)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "closing %s", tmp)
	}

	return renameWithRetry(tmp, c.path())
}

func renameWithRetry(src, dest string) error {
	wait := writeRetryBase
	var lastErr error
	for attempt := 0; attempt < 6; attempt++ {
		if err := os.Rename(src, dest); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(wait)
		wait *= 2
		if wait > writeRetryCap {
			wait = writeRetryCap
		}
	}
	os.Remove(src)
	return errors.Wrapf(lastErr, "renaming %s to %s after retries", src, dest)
}

// Refresh fetches fresh packages from provider under the cache-writer lock
// and atomically swaps them in, per spec.md §4.4's "Freshness" rule.
func Refresh(controller *lock.Controller, timeout time.Duration, cache *Cache, provider *Provider, sourceID string) (Document, error) {
	acq, err := controller.Acquire(lock.CacheScope, lock.Exclusive, timeout)
	if err != nil {
		return Document{}, err
	}
	defer acq.Release()

	pkgs, err := provider.FetchAll()
	if err != nil {
		return Document{}, err
	}

	doc := Document{GeneratedAt: time.Now(), Source: sourceID, Packages: pkgs}
	if err := cache.Save(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
