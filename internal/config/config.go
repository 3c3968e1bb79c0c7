// Package config loads, defaults and validates Kopi's TOML configuration
// file, mirroring golang-dep's toml.go / manifest.go load-and-default-fill
// shape but using github.com/pelletier/go-toml's struct-tag marshaling
// instead of golang-dep's query-based TomlTree walk, since Kopi's config is
// a single flat document rather than an array-of-tables manifest.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/lock"
)

// FileName is the config file's name under KOPI_HOME, per spec.md §3.
const FileName = "config.toml"

// LockingMode mirrors spec.md §3's locking.mode enum.
type LockingMode string

const (
	LockingAuto     LockingMode = "auto"
	LockingAdvisory LockingMode = "advisory"
	LockingFallback LockingMode = "fallback"
)

// AutoInstall mirrors spec.md §3's [auto_install] table.
type AutoInstall struct {
	Enabled     bool `toml:"enabled"`
	Prompt      bool `toml:"prompt"`
	TimeoutSecs uint `toml:"timeout_secs"`
}

// Storage mirrors spec.md §3's [storage] table.
type Storage struct {
	MinDiskSpaceMB uint `toml:"min_disk_space_mb"`
}

// Cache mirrors spec.md §3's [cache] table.
type Cache struct {
	TTLHours uint `toml:"ttl_hours"`
}

// Shims mirrors spec.md §3's [shims] table.
type Shims struct {
	AdditionalTools []string `toml:"additional_tools"`
	ExcludeTools    []string `toml:"exclude_tools"`
	AutoCreateShims bool     `toml:"auto_create_shims"`
}

// Locking mirrors spec.md §3's [locking] table. Timeout is stored as the
// raw string so "infinite" round-trips verbatim; Duration() resolves it.
type Locking struct {
	Mode    LockingMode `toml:"mode"`
	Timeout string      `toml:"timeout"`
}

// Duration resolves Timeout, treating "infinite" (and an empty value) as
// "wait forever", represented to internal/lock as zero.
func (l Locking) Duration() (time.Duration, error) {
	if l.Timeout == "" || l.Timeout == "infinite" {
		return 0, nil
	}
	d, err := time.ParseDuration(l.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing locking.timeout %q", l.Timeout)
	}
	return d, nil
}

// Config is the root document, field-for-field per spec.md §3's config
// table.
type Config struct {
	DefaultDistribution string      `toml:"default_distribution"`
	Storage             Storage     `toml:"storage"`
	AutoInstall         AutoInstall `toml:"auto_install"`
	Cache               Cache       `toml:"cache"`
	Shims               Shims       `toml:"shims"`
	Locking             Locking     `toml:"locking"`
}

// Default returns the configuration spec.md §3 describes when no file (or
// no particular key) is present.
func Default() Config {
	return Config{
		DefaultDistribution: "temurin",
		Storage:             Storage{MinDiskSpaceMB: 500},
		AutoInstall: AutoInstall{
			Enabled:     true,
			Prompt:      true,
			TimeoutSecs: 300,
		},
		Cache: Cache{TTLHours: 720},
		Shims: Shims{
			AutoCreateShims: true,
		},
		Locking: Locking{
			Mode:    LockingAuto,
			Timeout: "600s",
		},
	}
}

// Path returns the config file path under home (normally KOPI_HOME).
func Path(home string) string { return filepath.Join(home, FileName) }

// Load reads home/config.toml, overlaying it onto Default() so an absent
// file, or a file missing some keys, still yields a fully-populated
// Config — mirroring golang-dep's manifest default-fill instead of failing
// on partial input.
func Load(home string) (Config, error) {
	cfg := Default()

	path := Path(home)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects combinations spec.md's invariants disallow.
func (c Config) Validate() error {
	switch c.Locking.Mode {
	case LockingAuto, LockingAdvisory, LockingFallback, "":
	default:
		return errors.Errorf("locking.mode %q is not one of auto, advisory, fallback", c.Locking.Mode)
	}
	if _, err := c.Locking.Duration(); err != nil {
		return err
	}
	if c.AutoInstall.TimeoutSecs == 0 {
		return errors.New("auto_install.timeout_secs must be greater than zero")
	}
	return nil
}

// ForcedBackend reports whether locking.mode pins the backend rather than
// letting the Controller classify the filesystem itself (spec.md §3's
// "auto" is the non-forcing default).
func (c Config) ForcedBackend() (lock.Backend, bool) {
	switch c.Locking.Mode {
	case LockingAdvisory:
		return lock.NewAdvisoryBackend(), true
	case LockingFallback:
		return lock.NewFallbackBackend(), true
	default:
		return nil, false
	}
}

// Save writes cfg to home/config.toml via a temp-file-then-rename, the
// same staged-write pattern golang-dep's txn_writer.go SafeWriter uses for
// every file it persists.
func Save(home string, cfg Config) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", home)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}

	path := Path(home)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "renaming %s to %s", tmp, path)
	}
	return nil
}
