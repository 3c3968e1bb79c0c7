package fetch

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

// Extract dispatches to the tar/tar.gz or zip extractor based on archivePath's
// extension, per spec.md §4.6.
func Extract(archivePath, destDir string) error {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return extractTarGz(archivePath, destDir)
	case strings.HasSuffix(lower, ".tar"):
		return extractTar(archivePath, destDir)
	case strings.HasSuffix(lower, ".zip"):
		return extractZip(archivePath, destDir)
	default:
		return errors.Errorf("unrecognised archive extension for %s", archivePath)
	}
}

func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", archivePath)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "reading gzip header of %s", archivePath)
	}
	defer gz.Close()

	return extractTarStream(tar.NewReader(gz), destDir)
}

func extractTar(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", archivePath)
	}
	defer f.Close()
	return extractTarStream(tar.NewReader(f), destDir)
}

// extractTarStream iterates entries, guarding every one against path
// traversal before it touches the filesystem, then preserves the entry's
// mode bits on Unix per spec.md §4.6.
func extractTarStream(r *tar.Reader, destDir string) error {
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading tar entry")
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "creating %s", target)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "creating %s", filepath.Dir(target))
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
			if err != nil {
				return errors.Wrapf(err, "creating %s", target)
			}
			if _, err := io.Copy(out, r); err != nil {
				out.Close()
				return errors.Wrapf(err, "writing %s", target)
			}
			out.Close()
			if runtime.GOOS != "windows" {
				if err := os.Chmod(target, os.FileMode(hdr.Mode)&0o7777); err != nil {
					return errors.Wrapf(err, "chmod %s", target)
				}
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "creating %s", filepath.Dir(target))
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return errors.Wrapf(err, "symlinking %s", target)
			}
		default:
			// directories' parent entries, hardlinks, devices, etc: skip
			// rather than fail, matching spec.md §4.6's "recreate
			// directories, write files" scope (only regular content and
			// symlinks matter for a JDK tarball).
		}
	}
}

func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", archivePath)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "creating %s", target)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", filepath.Dir(target))
		}

		mode := f.Mode()
		if mode&os.ModeSymlink != 0 {
			rc, err := f.Open()
			if err != nil {
				return errors.Wrapf(err, "opening zip entry %s", f.Name)
			}
			link, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return errors.Wrapf(err, "reading symlink target for %s", f.Name)
			}
			if err := os.Symlink(string(link), target); err != nil {
				return errors.Wrapf(err, "symlinking %s", target)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return errors.Wrapf(err, "opening zip entry %s", f.Name)
		}
		perm := mode.Perm()
		if runtime.GOOS == "windows" || perm == 0 {
			perm = 0o644
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
		if err != nil {
			rc.Close()
			return errors.Wrapf(err, "creating %s", target)
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			rc.Close()
			return errors.Wrapf(err, "writing %s", target)
		}
		out.Close()
		rc.Close()
	}
	return nil
}

// safeJoin resolves name against destDir, rejecting any entry whose
// normalised path would land outside destDir — spec.md §4.6's
// path-traversal guard, required for both the tar and zip extractors.
func safeJoin(destDir, name string) (string, error) {
	cleanName := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleanName) || strings.HasPrefix(cleanName, ".."+string(filepath.Separator)) || cleanName == ".." {
		return "", &kopierr.ValidationError{Path: name, Reason: "archive entry escapes destination directory"}
	}
	target := filepath.Join(destDir, cleanName)
	destAbs, err := filepath.Abs(destDir)
	if err != nil {
		return "", err
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	if targetAbs != destAbs && !strings.HasPrefix(targetAbs, destAbs+string(filepath.Separator)) {
		return "", &kopierr.ValidationError{Path: name, Reason: "archive entry escapes destination directory"}
	}
	return target, nil
}
