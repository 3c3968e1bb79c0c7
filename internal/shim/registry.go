// Package shim implements component C7: the hot-path tool registry,
// tool-name detection, and resolution from tool name to an executable
// inside an InstalledJdk. Process replacement itself lives in exec_unix.go
// / exec_windows.go, split by build tag the same way internal/lock splits
// its advisory backend's raw syscalls.
package shim

import "sort"

// baseTools is the standard JDK CLI set every curated distribution gets a
// shim for, per spec.md §4.7.
var baseTools = []string{
	"java", "javac", "jar", "javap", "javadoc", "jshell", "jdb", "jconsole",
	"jlink", "jmod", "jdeps", "jpackage", "keytool", "jarsigner", "jfr",
	"jcmd", "jinfo", "jmap", "jps", "jstack", "jstat", "jstatd",
	"jdeprscan", "jhsdb", "jimage", "jrunscript", "jwebserver",
	"rmiregistry", "serialver",
}

// extraToolsByDistribution is spec.md §4.7's vendor-specific tool table.
var extraToolsByDistribution = map[string][]string{
	"graalvm":    {"native-image", "native-image-configure", "native-image-inspect"},
	"mandrel":    {"native-image"},
	"semeru":     {"jdmpview", "jitserver", "jpackcore", "traceformat"},
	"sapmachine": {"asprof"},
}

// deprecatedTools are never registered, per spec.md §4.7.
var deprecatedTools = map[string]bool{
	"pack200":   true,
	"unpack200": true,
}

// ToolsForDistribution returns the curated, sorted tool set for
// distribution at the given JDK major version, excluding anything in
// config's shims.exclude_tools and adding shims.additional_tools, per
// spec.md §3/§4.7. jwebserver is only included for major >= 18.
func ToolsForDistribution(distribution string, major int, additional, exclude []string) []string {
	set := map[string]bool{}
	for _, t := range baseTools {
		if t == "jwebserver" && major < 18 {
			continue
		}
		set[t] = true
	}
	for _, t := range extraToolsByDistribution[distribution] {
		set[t] = true
	}
	for _, t := range additional {
		if !deprecatedTools[t] {
			set[t] = true
		}
	}
	for _, t := range exclude {
		delete(set, t)
	}
	for t := range deprecatedTools {
		delete(set, t)
	}

	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// IsDeprecated reports whether tool is in the never-registered set.
func IsDeprecated(tool string) bool { return deprecatedTools[tool] }
