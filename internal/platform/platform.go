// Package platform implements the platform probe (component C1): OS,
// architecture, and libc detection in the upstream metadata service's
// vocabulary, plus filesystem-kind classification used by internal/lock to
// pick a locking backend.
//
// golang-dep has no direct analog (a GOPATH is always on the machine dep
// itself runs on), but the "small set of pure queries about the running
// environment" shape mirrors context.go's NewContext, which inspects
// build.Default.GOPATH and os.Getwd once and hands the result around.
package platform

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// OS returns the current OS in the upstream vocabulary: linux, macos, or
// windows.
func OS() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

// Arch returns the current architecture in the upstream vocabulary named by
// spec.md §4.1.
func Arch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x64"
	case "arm64":
		return "aarch64"
	case "arm":
		return "arm"
	case "386":
		return "x86"
	case "ppc64":
		return "ppc64"
	case "ppc64le":
		return "ppc64le"
	case "s390x":
		return "s390x"
	case "riscv64":
		return "riscv64"
	default:
		return runtime.GOARCH
	}
}

// Libc returns "glibc", "musl", or "none" (non-Linux), per spec.md §4.1.
func Libc() string {
	if runtime.GOOS != "linux" {
		return "none"
	}
	if isMusl() {
		return "musl"
	}
	return "glibc"
}

// isMusl does a best-effort check for musl libc by looking for the
// Alpine-style dynamic linker path. A false negative just means Kopi treats
// the system as glibc, which only affects package selection, not locking.
func isMusl() bool {
	for _, p := range []string{"/lib/ld-musl-x86_64.so.1", "/lib/ld-musl-aarch64.so.1"} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// FSClass describes how a directory's filesystem should be treated by the
// lock controller, per spec.md §4.1.
type FSClass struct {
	AdvisoryOK bool
	IsNetworked bool
}

var (
	fsClassMu    sync.Mutex
	fsClassCache = map[string]FSClass{}
)

// networkedFilesystems are mount types spec.md §4.1 says require the
// atomic-rename fallback backend.
var networkedFilesystems = map[string]bool{
	"nfs": true, "nfs4": true, "cifs": true, "smb": true, "smb3": true,
	"vboxsf": true, "9p": true,
}

// fatFilesystems are also routed to fallback, per spec.md §4.1, because
// FAT-family filesystems don't support POSIX advisory locks reliably.
var fatFilesystems = map[string]bool{
	"vfat": true, "msdos": true, "exfat": true, "fat": true,
}

// ClassifyFS classifies the filesystem backing dir, memoizing the result
// within the process per canonicalized directory (the cache key is dir
// after symlink resolution, not the mount point that contains it).
func ClassifyFS(dir string) FSClass {
	mount := mountPointFor(dir)

	fsClassMu.Lock()
	defer fsClassMu.Unlock()
	if c, ok := fsClassCache[mount]; ok {
		return c
	}
	c := classifyMount(mount)
	fsClassCache[mount] = c
	return c
}

// classifyMount inspects /proc/self/mountinfo on Linux; other platforms
// default to the advisory-capable local-disk assumption (macOS APFS,
// Windows NTFS are both advisory-OK per spec.md §4.1's table).
func classifyMount(mount string) FSClass {
	if runtime.GOOS != "linux" {
		return FSClass{AdvisoryOK: true, IsNetworked: false}
	}

	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return FSClass{AdvisoryOK: true}
	}
	defer f.Close()

	bestMatchLen := -1
	fsType := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		// mountinfo fields are separated by " - " into pre/post sections;
		// the post section starts with the filesystem type.
		sep := strings.Index(line, " - ")
		if sep == -1 {
			continue
		}
		pre := strings.Fields(line[:sep])
		post := strings.Fields(line[sep+3:])
		if len(pre) < 5 || len(post) < 1 {
			continue
		}
		mountPoint := pre[4]
		if strings.HasPrefix(mount, mountPoint) && len(mountPoint) > bestMatchLen {
			bestMatchLen = len(mountPoint)
			fsType = post[0]
		}
	}

	networked := networkedFilesystems[fsType] || fatFilesystems[fsType]
	return FSClass{AdvisoryOK: !networked, IsNetworked: networkedFilesystems[fsType]}
}

// mountPointFor canonicalizes dir (resolving symlinks) so the memoization
// key in ClassifyFS is stable across calls for the same logical directory;
// the actual mount-point match happens inside classifyMount via
// longest-prefix match against /proc/self/mountinfo.
func mountPointFor(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved
	}
	return dir
}
