// Package orchestrate implements component C9: the install, uninstall, and
// cache-refresh flows that compose the lock foundation (C3), metadata
// sources (C4), storage (C5), the fetch pipeline (C6), and the resolver
// (C8). Every mutating flow is structured acquire-lock -> do-work ->
// release, mirroring golang-dep's Ctx.LoadProject / SolveMeta /
// ensure.go shape: acquire the project lock, do the solve-and-write, always
// release via defer.
package orchestrate

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/applog"
	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/fetch"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/lock"
	"github.com/kopi-vm/kopi/internal/metadata"
	"github.com/kopi-vm/kopi/internal/platform"
	"github.com/kopi-vm/kopi/internal/shim"
	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/version"
)

// InstallResult reports what Install did, for cmd/kopi to render.
type InstallResult struct {
	Jdk          *storage.InstalledJdk
	FromCache    bool // true if no cache refresh was needed
	AlreadyExist bool // true if the matching version was already installed and force was false
	ShimsAdded   []string
}

// Install implements spec.md §4.9's install flow. home is KOPI_HOME,
// shimBinary is the path to the kopi-shim executable to wire new shims to,
// force skips the already-installed short-circuit and reinstalls over the
// existing directory, and onProgress (optional) receives download progress
// events.
func Install(home, shimBinary string, req *version.Request, force bool, cfg config.Config, controller *lock.Controller, provider *metadata.Provider, sourceID string, log *applog.Logger, onProgress fetch.ProgressFunc) (*InstallResult, error) {
	cache := metadata.NewCache(home)
	lockTimeout, err := cfg.Locking.Duration()
	if err != nil {
		return nil, err
	}

	doc, ok, err := cache.Load()
	fromCache := ok
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	if err != nil || !ok || doc.IsStale(ttl) {
		log.Debugf("refreshing metadata cache")
		doc, err = metadata.Refresh(controller, lockTimeout, cache, provider, sourceID)
		if err != nil {
			return nil, err
		}
		fromCache = false
	}

	pkg, err := selectPackage(doc.Packages, req)
	if err != nil {
		return nil, err
	}
	pkg, err = provider.EnsureComplete(doc.Source, pkg)
	if err != nil {
		return nil, err
	}

	// The lock scope keys on the full PackageCoordinate (spec.md §3/§2's
	// data-flow diagram), so Install and Uninstall contend on the same
	// resource for a given distribution+version regardless of which
	// platform/libc/javafx variant a given package record describes.
	scope := lock.InstallScope(pkg.Distribution, installCoordinate(pkg.Distribution, pkg.JavaVersion, req.PackageType).Slug())

	acq, err := controller.Acquire(scope, lock.Exclusive, lockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := acq.Release(); relErr != nil {
			log.Warnf("%v", relErr)
		}
	}()

	store := storage.NewStore(home, req.PackageType)

	if existing, err := findInstalled(store, pkg.Distribution, pkg.JavaVersion); err != nil {
		return nil, err
	} else if existing != nil {
		if !force {
			return &InstallResult{Jdk: existing, FromCache: fromCache, AlreadyExist: true}, nil
		}
		if _, err := store.Remove(pkg.Distribution, pkg.JavaVersion); err != nil {
			return nil, err
		}
	}

	if err := checkDiskSpace(store, pkg, cfg); err != nil {
		return nil, err
	}

	jdk, err := downloadAndActivate(store, pkg, onProgress)
	if err != nil {
		return nil, err
	}

	major, err := majorVersion(pkg.JavaVersion)
	if err != nil {
		return nil, err
	}
	tools := shim.ToolsForDistribution(pkg.Distribution, major, cfg.Shims.AdditionalTools, cfg.Shims.ExcludeTools)

	var added []string
	if cfg.Shims.AutoCreateShims {
		before := existingShimSet(home)
		if err := shim.EnsureShims(home, shimBinary, tools); err != nil {
			return nil, err
		}
		added = newShims(before, home)
	}

	return &InstallResult{Jdk: jdk, FromCache: fromCache, ShimsAdded: added}, nil
}

// selectPackage narrows doc's packages to req's distribution/pattern/
// platform and picks the newest, preferring GA over EA, per spec.md
// §4.2/§4.9's "select unique Package (C2 matching)" step. The OS/Arch/Libc
// filter mirrors web_index_source.go's matchesCurrentPlatform — the HTTP
// source's listing endpoint isn't itself platform-scoped, so this is where
// a multi-platform doc gets narrowed to installable candidates.
func selectPackage(pkgs []metadata.Package, req *version.Request) (metadata.Package, error) {
	var candidates []metadata.Package
	var versions []*version.Version
	for _, p := range pkgs {
		if req.Distribution != "" && p.Distribution != req.Distribution {
			continue
		}
		if p.PackageType != req.PackageType.String() {
			continue
		}
		if p.OS != "" && p.OS != platform.OS() {
			continue
		}
		if p.Arch != "" && p.Arch != platform.Arch() {
			continue
		}
		if p.LibCType != "" && p.LibCType != platform.Libc() {
			continue
		}
		v, err := version.Parse(p.JavaVersion)
		if err != nil {
			continue
		}
		if !req.Pattern.Matches(v) {
			continue
		}
		candidates = append(candidates, p)
		versions = append(versions, v)
	}
	if len(candidates) == 0 {
		return metadata.Package{}, &kopierr.JdkNotInstalled{Spec: req.Raw()}
	}

	best := version.Latest(versions, true)
	for i, v := range versions {
		if v == best {
			return candidates[i], nil
		}
	}
	return candidates[0], nil
}

// installCoordinate builds the PackageCoordinate (spec.md §3) identifying an
// installed (or about-to-be-installed) JDK on this machine, for use as a
// lock scope key. ver is a concrete version string (e.g. "21.0.1"), not a
// pattern, so a parse failure here would indicate a bug upstream rather
// than user input; in that case this function substitutes an empty version
// pattern, so the slug is qualified by distribution, package type and
// platform only, instead of failing the whole operation over a lock-naming
// detail.
func installCoordinate(distribution, ver string, pt version.PackageType) version.Coordinate {
	pattern, err := version.ParsePattern(ver)
	if err != nil {
		pattern = &version.Pattern{}
	}
	return version.Coordinate{
		Distribution:   distribution,
		VersionPattern: pattern,
		PackageType:    pt,
		OS:             platform.OS(),
		Arch:           platform.Arch(),
		Libc:           platform.Libc(),
	}
}

// findInstalled reports the already-activated InstalledJdk for
// (distribution, ver), if any, so Install can honor "reinstall even if
// already present" (-force) by skipping the pipeline otherwise.
func findInstalled(store *storage.Store, distribution, ver string) (*storage.InstalledJdk, error) {
	all, err := store.List()
	if err != nil {
		return nil, err
	}
	for _, j := range all {
		if j.Distribution == distribution && j.DistributionVersion == ver {
			return j, nil
		}
	}
	return nil, nil
}

func checkDiskSpace(store *storage.Store, pkg metadata.Package, cfg config.Config) error {
	if err := os.MkdirAll(store.Root(), 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", store.Root())
	}
	avail, err := storage.FreeSpaceMB(store.Root())
	if err != nil {
		return errors.Wrap(err, "checking free disk space")
	}
	needed := uint64(cfg.Storage.MinDiskSpaceMB)
	if pkg.SizeBytes > 0 {
		fromPkg := uint64(pkg.SizeBytes)/(1024*1024) + 1
		if fromPkg > needed {
			needed = fromPkg
		}
	}
	if avail < needed {
		return &kopierr.DiskSpaceError{Path: store.Root(), NeededMB: needed, AvailMB: avail}
	}
	return nil
}

// downloadAndActivate runs spec.md §4.6's download -> checksum -> extract ->
// detect-layout -> stage pipeline, then activates the result into store.
func downloadAndActivate(store *storage.Store, pkg metadata.Package, onProgress fetch.ProgressFunc) (*storage.InstalledJdk, error) {
	stagingRoot, err := store.Stage()
	if err != nil {
		return nil, err
	}
	abort := true
	defer func() {
		if abort {
			_ = store.AbortStage(stagingRoot)
		}
	}()

	filename := filepath.Base(pkg.DownloadURL)
	if filename == "" || filename == "." || filename == "/" {
		filename = "download.archive"
	}

	downloader := fetch.NewDownloader()
	archivePath, err := downloader.Download(pkg.DownloadURL, stagingRoot, filename, onProgress)
	if err != nil {
		return nil, err
	}

	if pkg.Checksum != "" {
		if err := fetch.VerifyChecksum(archivePath, pkg.ChecksumType, pkg.Checksum); err != nil {
			return nil, err
		}
	}

	extractDir := filepath.Join(stagingRoot, "extracted")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", extractDir)
	}
	if err := fetch.Extract(archivePath, extractDir); err != nil {
		return nil, err
	}

	structureType, suffix, err := storage.DetectStructure(extractDir)
	if err != nil {
		return nil, err
	}

	// When the archive wraps the JDK in a single top-level directory,
	// DetectStructure prefixes that directory's name to the suffix; activate
	// the wrapped directory itself so the JDK root is the install root.
	activateDir := extractDir
	if suffix != "" && suffix != "Contents/Home" {
		child, rest, _ := strings.Cut(suffix, "/")
		activateDir = filepath.Join(extractDir, child)
		suffix = rest
	}

	var meta storage.Metadata
	meta.Installation.JavaHomeSuffix = suffix
	meta.Installation.StructureType = structureType
	if err := store.Activate(activateDir, pkg.Distribution, pkg.JavaVersion, meta); err != nil {
		return nil, err
	}
	abort = false
	_ = os.RemoveAll(stagingRoot)

	all, err := store.List()
	if err != nil {
		return nil, err
	}
	target := store.InstallPath(pkg.Distribution, pkg.JavaVersion)
	for _, j := range all {
		if j.Path == target {
			return j, nil
		}
	}
	return nil, errors.Errorf("activated install not found at %s", target)
}

func majorVersion(s string) (int, error) {
	v, err := version.Parse(s)
	if err != nil {
		return 0, err
	}
	if len(v.Main) == 0 {
		return 0, errors.Errorf("version %q has no main component", s)
	}
	return int(v.Main[0]), nil
}

func existingShimSet(home string) map[string]bool {
	out := map[string]bool{}
	entries, _ := os.ReadDir(filepath.Join(home, shim.ShimsDir))
	for _, e := range entries {
		out[e.Name()] = true
	}
	return out
}

func newShims(before map[string]bool, home string) []string {
	entries, _ := os.ReadDir(filepath.Join(home, shim.ShimsDir))
	var added []string
	for _, e := range entries {
		if !before[e.Name()] {
			added = append(added, e.Name())
		}
	}
	sort.Strings(added)
	return added
}
