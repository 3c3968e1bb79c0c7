// Package version implements the version model and parser described in
// spec.md §4.2 (component C2): a variable-length numeric component vector,
// an optional numeric build vector, and an optional prerelease tag, with
// pattern matching that tolerates extra trailing components on the concrete
// side.
//
// There is no off-the-shelf fit for this in the retrieval pack:
// Masterminds/semver (vendored by the teacher, golang-dep) hard-codes three
// numeric components plus prerelease/metadata and cannot represent
// Dragonwell's six-component versions or the "pattern with fewer components
// matches" rule, so this package is hand-written, grounded on the teacher's
// own component-wise comparison idiom and on the JDK version quirks
// documented in other_examples' Jenvy utilities (Java 8 legacy forms,
// Liberica's "8uNNN").
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

// Version is a parsed, comparable JDK version string.
type Version struct {
	Main       []uint64
	Build      []uint64
	PreRelease string
	raw        string
}

// Parse parses a distribution version string such as "21", "21.0.5",
// "21.0.7+6", "21.0.7-ea", or Dragonwell's "21.0.7.0.7.6".
//
// Grammar (spec.md §4.2):
//
//	<ver> := <main>["+"<build>]["-"<prerelease>]
//	<main> | <build> := digits("."digits)*
//
// Empty input or any non-numeric main/build component is rejected.
func Parse(s string) (*Version, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: fmt.Errorf("empty version")}
	}

	s, pre := splitPrerelease(s)
	s, build, err := splitBuild(s)
	if err != nil {
		return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: err}
	}

	s = normalizeLegacyJava8(s)

	main, err := parseComponents(s)
	if err != nil {
		return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: err}
	}
	if len(main) == 0 {
		return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: fmt.Errorf("no numeric components")}
	}

	return &Version{Main: main, Build: build, PreRelease: pre, raw: orig}, nil
}

// splitPrerelease splits off a trailing "-<prerelease>" suffix. The cut
// point is the *last* hyphen so that a leading "1.8.0_452-b09"-style build
// tag (already peeled by normalizeLegacyJava8's caller) doesn't confuse a
// genuine prerelease tag appended after a "+build".
func splitPrerelease(s string) (rest, pre string) {
	if idx := strings.LastIndexByte(s, '-'); idx != -1 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

func splitBuild(s string) (rest string, build []uint64, err error) {
	idx := strings.IndexByte(s, '+')
	if idx == -1 {
		return s, nil, nil
	}
	buildStr := s[idx+1:]
	build, err = parseComponents(buildStr)
	if err != nil {
		return "", nil, fmt.Errorf("invalid build vector %q: %w", buildStr, err)
	}
	return s[:idx], build, nil
}

func parseComponents(s string) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ".")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty component")
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric component %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

// normalizeLegacyJava8 rewrites the "1.8.0_NNN" legacy form into the
// modern "8.0.NNN" main-component form before generic parsing, and
// Liberica's "8uNNN" into "8.0.NNN". Grounded on other_examples' Jenvy
// ParseVersionNumber, which performs the same two rewrites.
func normalizeLegacyJava8(s string) string {
	if strings.HasPrefix(s, "8u") {
		if _, err := strconv.ParseUint(s[2:], 10, 64); err == nil {
			return "8.0." + s[2:]
		}
		return s
	}
	if strings.HasPrefix(s, "1.8.0_") {
		return "8.0." + s[len("1.8.0_"):]
	}
	if s == "1.8.0" {
		return "8.0.0"
	}
	return s
}

// String renders the version back into its canonical textual form. Per
// spec.md §8's round-trip law, parse(render(v)) == v for well-formed input;
// the one documented exception is that leading/trailing padding present in
// the original input string is not preserved (only parsed numeric value
// is kept).
func (v *Version) String() string {
	var b strings.Builder
	writeComponents(&b, v.Main)
	if len(v.Build) > 0 {
		b.WriteByte('+')
		writeComponents(&b, v.Build)
	}
	if v.PreRelease != "" {
		b.WriteByte('-')
		b.WriteString(v.PreRelease)
	}
	return b.String()
}

func writeComponents(b *strings.Builder, c []uint64) {
	for i, n := range c {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(n, 10))
	}
}

// Raw returns the exact string that was parsed.
func (v *Version) Raw() string { return v.raw }

// componentAt returns c[i], treating indices past the end as zero, per
// spec.md §3's "missing components treated as zero" comparison rule.
func componentAt(c []uint64, i int) uint64 {
	if i < len(c) {
		return c[i]
	}
	return 0
}

// Compare orders two versions component-wise, left to right, treating
// missing trailing components as zero, then by build vector, then by
// prerelease (empty sorts after any prerelease tag, since a GA release is
// considered newer than any EA of the same main version).
func (v *Version) Compare(o *Version) int {
	n := len(v.Main)
	if len(o.Main) > n {
		n = len(o.Main)
	}
	for i := 0; i < n; i++ {
		a, b := componentAt(v.Main, i), componentAt(o.Main, i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}

	n = len(v.Build)
	if len(o.Build) > n {
		n = len(o.Build)
	}
	for i := 0; i < n; i++ {
		a, b := componentAt(v.Build, i), componentAt(o.Build, i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}

	switch {
	case v.PreRelease == o.PreRelease:
		return 0
	case v.PreRelease == "":
		return 1
	case o.PreRelease == "":
		return -1
	case v.PreRelease < o.PreRelease:
		return -1
	default:
		return 1
	}
}

// Equal reports whether v and o compare equal under Compare, which treats
// missing trailing components as zero (so "21" equals "21.0.0").
func (v *Version) Equal(o *Version) bool { return v.Compare(o) == 0 }

// IsLTS reports whether the version's major component is one of the known
// LTS lines. Grounded on other_examples' Jenvy IsLTSVersion.
func (v *Version) IsLTS() bool {
	if len(v.Main) == 0 {
		return false
	}
	switch v.Main[0] {
	case 8, 11, 17, 21, 25:
		return true
	}
	return false
}

// Pattern is a partially-specified version used for matching, produced by
// parsing a user-supplied coordinate's version portion. A Pattern's fields
// are the subset of a Version's fields the user actually specified.
type Pattern struct {
	Main          []uint64
	HasBuild      bool
	Build         []uint64
	HasPreRelease bool
	PreRelease    string
}

// ParsePattern parses the same grammar as Parse, but distinguishes "build
// vector not specified" from "build vector specified as empty" so that
// Matches can tell whether to constrain on it at all.
func ParsePattern(s string) (*Pattern, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: fmt.Errorf("empty version")}
	}

	hasPre := strings.Contains(s, "-")
	s2, pre := splitPrerelease(s)

	hasBuild := strings.Contains(s2, "+")
	s3, build, err := splitBuild(s2)
	if err != nil {
		return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: err}
	}

	s3 = normalizeLegacyJava8(s3)
	main, err := parseComponents(s3)
	if err != nil {
		return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: err}
	}
	if len(main) == 0 {
		return nil, &kopierr.InvalidVersionFormat{Input: orig, Cause: fmt.Errorf("no numeric components")}
	}

	return &Pattern{
		Main:          main,
		HasBuild:      hasBuild,
		Build:         build,
		HasPreRelease: hasPre,
		PreRelease:    pre,
	}, nil
}

// Matches reports whether concrete version v satisfies pattern p, per
// spec.md §4.2: each main component the pattern specifies must equal the
// corresponding concrete component (extra concrete components accepted);
// if a build vector is specified, each specified build component must
// match; prerelease is exact-string when specified.
func (p *Pattern) Matches(v *Version) bool {
	if len(p.Main) > len(v.Main) {
		return false
	}
	for i, want := range p.Main {
		if v.Main[i] != want {
			return false
		}
	}
	if p.HasBuild {
		if len(p.Build) > len(v.Build) {
			return false
		}
		for i, want := range p.Build {
			if v.Build[i] != want {
				return false
			}
		}
	}
	if p.HasPreRelease && v.PreRelease != p.PreRelease {
		return false
	}
	return true
}

// String renders the pattern back to its textual form.
func (p *Pattern) String() string {
	var b strings.Builder
	writeComponents(&b, p.Main)
	if p.HasBuild {
		b.WriteByte('+')
		writeComponents(&b, p.Build)
	}
	if p.HasPreRelease {
		b.WriteByte('-')
		b.WriteString(p.PreRelease)
	}
	return b.String()
}

// Latest returns the greatest version in vs, preferring GA (empty
// prerelease) over EA when preferStable is set and both are otherwise
// equal in their main+build vectors, per spec.md §4.2.
func Latest(vs []*Version, preferStable bool) *Version {
	if len(vs) == 0 {
		return nil
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if betterCandidate(v, best, preferStable) {
			best = v
		}
	}
	return best
}

func betterCandidate(v, best *Version, preferStable bool) bool {
	if preferStable && sameMainAndBuild(v, best) {
		if best.PreRelease != "" && v.PreRelease == "" {
			return true
		}
		if best.PreRelease == "" && v.PreRelease != "" {
			return false
		}
	}
	return v.Compare(best) > 0
}

func sameMainAndBuild(a, b *Version) bool {
	n := len(a.Main)
	if n != len(b.Main) {
		return false
	}
	for i := range a.Main {
		if a.Main[i] != b.Main[i] {
			return false
		}
	}
	if len(a.Build) != len(b.Build) {
		return false
	}
	for i := range a.Build {
		if a.Build[i] != b.Build[i] {
			return false
		}
	}
	return true
}
