// Package storage implements component C5: the on-disk layout under
// <home>/jdks and <home>/jres, enumeration of installed JDKs/JREs, atomic
// staging and removal, and disk-usage accounting.
//
// Grounded directly on golang-dep's fs.go (IsDir, CopyDir, CopyFile,
// renameWithFallback) for the atomic-staging primitives, generalized from
// golang-dep's single GOPATH/src/<root> tree to Kopi's <dist>-<ver> install
// roots, and on github.com/karrick/godirwalk (vendored by golang-dep for
// its own package-tree walk) for enumeration and size accounting instead of
// filepath.Walk.
package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/version"
)

// StructureType is the detected JDK-root layout, per spec.md §4.6/§6.
type StructureType string

const (
	Direct StructureType = "direct"
	Bundle StructureType = "bundle"
	Hybrid StructureType = "hybrid"
)

// Metadata is the `<install>.meta.json` sidecar, per spec.md §6. Consumers
// must tolerate missing fields and fall back to runtime detection, so every
// field here is optional from the caller's point of view.
type Metadata struct {
	Distribution string `json:"distribution"`
	JavaVersion  string `json:"java_version"`
	Installation struct {
		JavaHomeSuffix  string        `json:"java_home_suffix"`
		StructureType   StructureType `json:"structure_type"`
		Platform        string        `json:"platform"`
		MetadataVersion int           `json:"metadata_version"`
	} `json:"installation_metadata"`
}

const currentMetadataVersion = 1

// InstalledJdk is one enumerated installation, per spec.md §3. Metadata is
// loaded lazily and memoised with sync.Once: enumeration may hand instances
// to a background progress task, so the lazy cell must tolerate concurrent
// readers (spec.md §9's "interior mutability for lazy metadata").
type InstalledJdk struct {
	Path                string
	Distribution        string
	DistributionVersion string
	PackageType         version.PackageType

	metaPath string
	once     sync.Once
	meta     *Metadata
	metaErr  error
}

// Metadata loads and memoises the sidecar file. A missing or corrupt file is
// not an error: it yields (nil, nil), signalling "fall back to runtime
// detection" per spec.md §4.6/§6.
func (j *InstalledJdk) Metadata() (*Metadata, error) {
	j.once.Do(func() {
		data, err := os.ReadFile(j.metaPath)
		if err != nil {
			return
		}
		var m Metadata
		if err := json.Unmarshal(data, &m); err != nil {
			return
		}
		j.meta = &m
	})
	return j.meta, j.metaErr
}

// JavaHome returns the directory that should be treated as JAVA_HOME:
// j.Path itself for a direct layout, or j.Path/<java_home_suffix> for a
// bundle/hybrid one. Falls back to runtime probing when metadata is
// missing, per spec.md §4.6's post-install detection table.
func (j *InstalledJdk) JavaHome() (string, error) {
	if m, _ := j.Metadata(); m != nil && m.Installation.JavaHomeSuffix != "" {
		return filepath.Join(j.Path, filepath.FromSlash(m.Installation.JavaHomeSuffix)), nil
	}
	return detectJavaHome(j.Path)
}

// detectJavaHome implements spec.md §4.6's JDK-root detection table when no
// (or no usable) metadata sidecar exists.
func detectJavaHome(root string) (string, error) {
	if fileExists(filepath.Join(root, "bin", "java")) || fileExists(filepath.Join(root, "bin", "java.exe")) {
		return root, nil
	}
	bundle := filepath.Join(root, "Contents", "Home")
	if fileExists(filepath.Join(bundle, "bin", "java")) {
		return bundle, nil
	}
	return "", errors.Errorf("no java executable found under %s (direct or Contents/Home)", root)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DetectStructure classifies an extraction root per spec.md §4.6's table,
// returning the structure type and the java_home_suffix to persist. When
// root itself doesn't match direct/bundle/hybrid but has exactly one child
// directory that does (the common "tarball wraps everything in one
// top-level directory" shape), detection delegates to that child and
// prefixes its suffix, per the table's "single-child directory" row.
func DetectStructure(root string) (StructureType, string, error) {
	if st, suffix, ok := detectStructureAt(root); ok {
		return st, suffix, nil
	}

	entries, err := os.ReadDir(root)
	if err == nil {
		var onlyChild string
		dirCount := 0
		for _, e := range entries {
			if e.IsDir() {
				dirCount++
				onlyChild = e.Name()
			}
		}
		if dirCount == 1 {
			childRoot := filepath.Join(root, onlyChild)
			if st, suffix, ok := detectStructureAt(childRoot); ok {
				return st, filepath.ToSlash(filepath.Join(onlyChild, suffix)), nil
			}
		}
	}

	return "", "", &kopierr.ValidationError{Path: root, Reason: "no direct, bundle, or hybrid JDK layout found"}
}

func detectStructureAt(root string) (StructureType, string, bool) {
	direct := filepath.Join(root, "bin", "java")
	bundle := filepath.Join(root, "Contents", "Home", "bin", "java")

	switch {
	case fileExists(direct):
		if isSymlinkInto(filepath.Join(root, "bin"), filepath.Join(root, "Contents", "Home")) {
			return Hybrid, "Contents/Home", true
		}
		return Direct, "", true
	case fileExists(bundle):
		return Bundle, "Contents/Home", true
	default:
		return "", "", false
	}
}

func isSymlinkInto(link, target string) bool {
	info, err := os.Lstat(link)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	resolved, err := filepath.EvalSymlinks(link)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	return strings.HasPrefix(resolved, absTarget)
}

// Store is the root of one install tree (jdks/ or jres/) under <home>.
type Store struct {
	home string
	kind version.PackageType
}

// NewStore returns the store for kind under home (KOPI_HOME).
func NewStore(home string, kind version.PackageType) *Store {
	return &Store{home: home, kind: kind}
}

func (s *Store) dirName() string {
	if s.kind == version.Jre {
		return "jres"
	}
	return "jdks"
}

// Root is <home>/jdks or <home>/jres.
func (s *Store) Root() string { return filepath.Join(s.home, s.dirName()) }

func (s *Store) tmpDir() string { return filepath.Join(s.Root(), ".tmp") }

func installDirName(distribution, ver string) string { return distribution + "-" + ver }

// InstallPath returns the canonical path an installed (distribution, ver)
// pair lives at once activated.
func (s *Store) InstallPath(distribution, ver string) string {
	return filepath.Join(s.Root(), installDirName(distribution, ver))
}

func (s *Store) metaPath(distribution, ver string) string {
	return s.InstallPath(distribution, ver) + ".meta.json"
}

// List enumerates every installation under this store, per spec.md §4.5.
// Entries whose name doesn't parse as "<dist>-<ver>" or that live under the
// ".tmp" staging directory are skipped rather than failing the whole scan.
func (s *Store) List() ([]*InstalledJdk, error) {
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", s.Root())
	}

	var out []*InstalledJdk
	for _, e := range entries {
		if !e.IsDir() || e.Name() == ".tmp" {
			continue
		}
		dist, ver, ok := splitInstallDirName(e.Name())
		if !ok {
			continue
		}
		out = append(out, &InstalledJdk{
			Path:                filepath.Join(s.Root(), e.Name()),
			Distribution:        dist,
			DistributionVersion: ver,
			PackageType:         s.kind,
			metaPath:            s.metaPath(dist, ver),
		})
	}
	return out, nil
}

// splitInstallDirName reverses installDirName; distribution names never
// contain '-' (see version.knownDistributions) so the last hyphen-delimited
// run is unambiguous... but version strings themselves may contain hyphens
// in prerelease tags, so split on the FIRST hyphen instead, matching the
// grammar distribution names are drawn from a closed, hyphen-free set.
func splitInstallDirName(name string) (dist, ver string, ok bool) {
	idx := strings.IndexByte(name, '-')
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// Stage creates a fresh staging directory under <root>/.tmp/install-<uuid>/
// for the fetch pipeline (C6) to extract into, on the same volume as the
// final install root so the later Activate rename is atomic.
func (s *Store) Stage() (string, error) {
	if err := os.MkdirAll(s.tmpDir(), 0o755); err != nil {
		return "", errors.Wrapf(err, "creating %s", s.tmpDir())
	}
	dir := filepath.Join(s.tmpDir(), "install-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating staging dir %s", dir)
	}
	return dir, nil
}

// Activate renames a completed staging directory into its canonical
// <dist>-<ver> location and writes the sidecar metadata file, per spec.md
// §4.5's "Install staging" rule. Both steps must have already happened
// under the caller's installation lock.
func (s *Store) Activate(stagingDir, distribution, ver string, meta Metadata) error {
	meta.Distribution = distribution
	meta.JavaVersion = ver
	meta.Installation.MetadataVersion = currentMetadataVersion
	if meta.Installation.Platform == "" {
		meta.Installation.Platform = runtime.GOOS + "_" + runtime.GOARCH
	}

	target := s.InstallPath(distribution, ver)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(target))
	}
	if err := renameWithFallback(stagingDir, target); err != nil {
		return errors.Wrapf(err, "activating %s", target)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding installation metadata")
	}
	metaPath := s.metaPath(distribution, ver)
	tmp := metaPath + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, metaPath); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "renaming %s", tmp)
	}
	return nil
}

// AbortStage recursively deletes a staging directory after a failed
// install, per spec.md §4.5.
func (s *Store) AbortStage(stagingDir string) error {
	return os.RemoveAll(stagingDir)
}

// Remove renames the installation out of the canonical namespace before
// recursively deleting it, per spec.md §4.5's "Removal" rule, so an
// interrupted remove never leaves a partial tree under the canonical name.
// Returns the number of bytes freed.
func (s *Store) Remove(distribution, ver string) (int64, error) {
	target := s.InstallPath(distribution, ver)
	size, err := DirSize(target)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(s.tmpDir(), 0o755); err != nil {
		return 0, errors.Wrapf(err, "creating %s", s.tmpDir())
	}
	staged := filepath.Join(s.tmpDir(), "remove-"+uuid.NewString())
	if err := renameWithFallback(target, staged); err != nil {
		return 0, errors.Wrapf(err, "staging %s for removal", target)
	}
	if err := os.RemoveAll(staged); err != nil {
		return 0, errors.Wrapf(err, "removing staged directory %s", staged)
	}

	metaPath := s.metaPath(distribution, ver)
	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		return size, errors.Wrapf(err, "removing %s", metaPath)
	}
	return size, nil
}

// DirSize walks root with godirwalk (symlinks not followed, matching
// golang-dep's CopyDir treatment of symlinked entries) and sums regular
// file sizes, for disk-usage accounting and pre-flight free-space checks.
func DirSize(root string) (int64, error) {
	var total int64
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsSymlink() || de.IsDir() {
				return nil
			}
			info, err := os.Lstat(path)
			if err != nil {
				return nil
			}
			total += info.Size()
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "walking %s", root)
	}
	return total, nil
}

// renameWithFallback promotes a staging directory into its final install
// root, falling back to a recursive copy plus source removal when the
// staging and target trees sit on different devices (EXDEV) or, on
// Windows, whenever the source is a directory (os.Rename there refuses to
// replace a non-empty destination across volumes the way Unix rename(2)
// allows). golang-dep's fs.go has a function of the same name and the same
// EXDEV/Windows branching for GOPATH package moves; CopyDir/CopyFile below
// are reworked to walk with godirwalk rather than os.Readdir and to
// preserve symlinks instead of dropping them, since a real JDK distribution
// (Corretto's jre->.. convenience link, several vendors' man-page links)
// commonly has one at the top level and losing it would produce an install
// tree that doesn't match the archive it came from.
func renameWithFallback(src, dest string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return errors.Wrapf(err, "stat %s", src)
	}

	if runtime.GOOS == "windows" && fi.IsDir() {
		if err := CopyDir(src, dest); err != nil {
			return err
		}
		return os.RemoveAll(src)
	}

	err = os.Rename(src, dest)
	if err == nil {
		return nil
	}
	terr, ok := err.(*os.LinkError)
	if !ok {
		return errors.Wrapf(err, "renaming %s to %s", src, dest)
	}
	errno, ok := terr.Err.(syscall.Errno)
	if !ok || errno != syscall.EXDEV {
		return errors.Wrapf(terr, "renaming %s to %s", src, dest)
	}

	if fi.IsDir() {
		err = CopyDir(src, dest)
	} else {
		err = CopyFile(src, dest)
	}
	if err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// CopyDir recursively copies src to dest, preserving directory modes,
// symlinks (relinked relative to dest rather than followed), and regular
// file contents. Used by renameWithFallback's cross-device fallback and by
// the Windows directory-rename workaround above.
func CopyDir(src, dest string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return errors.Wrapf(err, "stat %s", src)
	}
	if err := os.MkdirAll(dest, fi.Mode()); err != nil {
		return errors.Wrapf(err, "creating %s", dest)
	}

	return godirwalk.Walk(src, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == src {
				return nil
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return errors.Wrapf(err, "relativizing %s under %s", path, src)
			}
			target := filepath.Join(dest, rel)

			switch {
			case de.IsSymlink():
				link, err := os.Readlink(path)
				if err != nil {
					return errors.Wrapf(err, "reading symlink %s", path)
				}
				return os.Symlink(link, target)
			case de.IsDir():
				info, err := os.Lstat(path)
				if err != nil {
					return errors.Wrapf(err, "stat %s", path)
				}
				return os.MkdirAll(target, info.Mode())
			default:
				return CopyFile(path, target)
			}
		},
	})
}

// CopyFile copies a single regular file, preserving its permission bits.
func CopyFile(src, dest string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer srcFile.Close()

	destFile, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dest)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, srcFile); err != nil {
		return errors.Wrapf(err, "copying %s to %s", src, dest)
	}
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "stat %s", src)
	}
	return os.Chmod(dest, info.Mode())
}
