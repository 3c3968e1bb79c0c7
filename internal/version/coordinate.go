package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

// PackageType distinguishes a full JDK from a JRE-only distribution, per
// spec.md §3.
type PackageType int

const (
	Jdk PackageType = iota
	Jre
)

func (t PackageType) String() string {
	if t == Jre {
		return "jre"
	}
	return "jdk"
}

// knownDistributions is the canonical set named in spec.md §3.
var knownDistributions = map[string]bool{
	"temurin": true, "corretto": true, "zulu": true, "graalvm": true,
	"liberica": true, "sapmachine": true, "semeru": true, "dragonwell": true,
	"mandrel": true, "openjdk": true, "trava": true, "kona": true,
}

// distributionAliases normalises input spellings to the canonical id, per
// spec.md §3.
var distributionAliases = map[string]string{
	"sap_machine": "sapmachine",
	"openj9":      "semeru",
}

// NormalizeDistribution lowercases and applies the alias table.
func NormalizeDistribution(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if canon, ok := distributionAliases[s]; ok {
		return canon
	}
	return s
}

// IsKnownDistribution reports whether s (already normalized) is one of the
// distributions spec.md §3 names.
func IsKnownDistribution(s string) bool { return knownDistributions[s] }

// Request is a parsed `[jdk@|jre@]<dist>@<ver>` coordinate request, the
// input to both the version resolver (C8) and install/uninstall (C9).
type Request struct {
	PackageType  PackageType
	Distribution string // "" if unspecified; caller fills in default_distribution
	Pattern      *Pattern
	raw          string
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

// ParseRequest parses the full coordinate grammar from spec.md §4.2:
//
//	[ "jdk@" | "jre@" ] [ <dist> "@" ] <ver>
func ParseRequest(s string) (*Request, error) {
	orig := s
	rest := s

	pt := Jdk
	switch {
	case strings.HasPrefix(rest, "jre@"):
		pt = Jre
		rest = rest[len("jre@"):]
	case strings.HasPrefix(rest, "jdk@"):
		pt = Jdk
		rest = rest[len("jdk@"):]
	}

	var dist string
	if idx := strings.IndexByte(rest, '@'); idx != -1 {
		dist = NormalizeDistribution(rest[:idx])
		rest = rest[idx+1:]
		if dist == "" {
			return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: fmt.Errorf("empty distribution before @")}
		}
	}

	if rest == "" {
		return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: fmt.Errorf("missing version")}
	}

	pat, err := ParsePattern(rest)
	if err != nil {
		return nil, err
	}

	return &Request{PackageType: pt, Distribution: dist, Pattern: pat, raw: orig}, nil
}

// Raw returns the exact string that was parsed.
func (r *Request) Raw() string { return r.raw }

// Coordinate fully identifies a downloadable artifact (spec.md §3): a
// distribution, a concrete-or-pattern version, a package type, a target
// platform, optional libc, and whether JavaFX is bundled.
type Coordinate struct {
	Distribution    string
	VersionPattern  *Pattern
	PackageType     PackageType
	OS              string
	Arch            string
	Libc            string // "" when not applicable (spec.md §3: "libc | none")
	JavaFXBundled   bool
	Variant         string
}

// Slug canonicalises the coordinate to a filesystem-safe string suitable
// for a lock filename, per spec.md §3: lowercase, [a-z0-9-_] only.
func (c Coordinate) Slug() string {
	parts := []string{
		c.Distribution,
		c.VersionPattern.String(),
		c.PackageType.String(),
		c.OS,
		c.Arch,
	}
	if c.Libc != "" {
		parts = append(parts, c.Libc)
	}
	if c.JavaFXBundled {
		parts = append(parts, "fx")
	}
	if c.Variant != "" {
		parts = append(parts, c.Variant)
	}
	raw := strings.ToLower(strings.Join(parts, "-"))
	return slugUnsafe.ReplaceAllString(raw, "-")
}
