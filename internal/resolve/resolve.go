// Package resolve implements component C8: the environment -> project
// walk-up -> global default version resolution hierarchy.
//
// The walk-up loop is adapted directly from golang-dep's main.go
// findProjectRoot/findProjectRootFromWD, generalized to check two
// candidate filenames per directory instead of one and to keep walking
// after checking an env var short-circuit first.
package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/version"
)

// SourceKind identifies where a resolved VersionRequest came from, per
// spec.md §4.8.
type SourceKind int

const (
	Environment SourceKind = iota
	ProjectKopiVersion
	ProjectJavaVersion
	GlobalDefault
)

func (k SourceKind) String() string {
	switch k {
	case Environment:
		return "environment"
	case ProjectKopiVersion:
		return "project .kopi-version"
	case ProjectJavaVersion:
		return "project .java-version"
	case GlobalDefault:
		return "global default"
	default:
		return "unknown"
	}
}

// Source describes where a resolution came from and, for project files,
// the directory the file was found in.
type Source struct {
	Kind SourceKind
	Path string // absolute directory (project sources) or file path (global default)
}

// EnvVar is the override spec.md §4.8/§6 names.
const EnvVar = "KOPI_JAVA_VERSION"

const (
	kopiVersionFile = ".kopi-version"
	javaVersionFile = ".java-version"
)

// Resolve implements spec.md §4.8's four-step hierarchy starting from
// startDir (normally the current working directory) and home (KOPI_HOME).
func Resolve(startDir, home string, cfg config.Config) (*version.Request, Source, error) {
	if raw, ok := os.LookupEnv(EnvVar); ok && strings.TrimSpace(raw) != "" {
		req, err := parseCoordinate(strings.TrimSpace(raw), cfg)
		if err != nil {
			return nil, Source{}, err
		}
		return req, Source{Kind: Environment}, nil
	}

	searched := []string{}
	dir := startDir
	for {
		searched = append(searched, dir)

		if req, err, ok := tryKopiVersionFile(dir, cfg); ok {
			return req, Source{Kind: ProjectKopiVersion, Path: dir}, err
		}
		if req, err, ok := tryJavaVersionFile(dir, cfg); ok {
			return req, Source{Kind: ProjectJavaVersion, Path: dir}, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	globalPath := filepath.Join(home, "version")
	if data, err := os.ReadFile(globalPath); err == nil {
		if line := firstNonEmptyLine(string(data)); line != "" {
			req, err := parseCoordinate(line, cfg)
			if err != nil {
				return nil, Source{}, err
			}
			return req, Source{Kind: GlobalDefault, Path: globalPath}, nil
		}
	}

	return nil, Source{}, &kopierr.NoLocalVersion{Searched: searched}
}

func tryKopiVersionFile(dir string, cfg config.Config) (*version.Request, error, bool) {
	path := filepath.Join(dir, kopiVersionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, false
	}
	line := firstNonEmptyLine(string(data))
	if line == "" {
		return nil, nil, false
	}
	req, err := parseCoordinate(line, cfg)
	return req, err, true
}

func tryJavaVersionFile(dir string, cfg config.Config) (*version.Request, error, bool) {
	path := filepath.Join(dir, javaVersionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, false
	}
	line := firstNonEmptyLine(string(data))
	if line == "" {
		return nil, nil, false
	}
	// .java-version imposes a tighter grammar: bare version only, no "@",
	// no type prefix (spec.md §3/§4.8), and applies default_distribution.
	if strings.Contains(line, "@") {
		cause := errors.New(".java-version must be a bare version with no distribution or type prefix")
		return nil, &kopierr.InvalidVersionFormat{Input: line, Cause: cause}, true
	}
	req, err := version.ParseRequest(cfg.DefaultDistribution + "@" + line)
	return req, err, true
}

// parseCoordinate parses the full `[jdk@|jre@][dist@]ver` grammar, filling
// in default_distribution when the coordinate omits one.
func parseCoordinate(raw string, cfg config.Config) (*version.Request, error) {
	req, err := version.ParseRequest(raw)
	if err != nil {
		return nil, err
	}
	if req.Distribution == "" {
		req.Distribution = cfg.DefaultDistribution
	}
	return req, nil
}

// firstNonEmptyLine returns the first line that is neither blank nor a
// "#"-prefixed comment, per spec.md §6's version-file grammar.
func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed
	}
	return ""
}
