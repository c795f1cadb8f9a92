package version

import (
	"runtime/debug"
	"strings"
)

// Version is overridden at release time via -ldflags.
var Version = "0.1.0"

// Resolve returns the release version, suffixed with the VCS revision the
// binary was built from when that build is not a tagged module release.
func Resolve() string {
	return resolveVersion(Version, debug.ReadBuildInfo)
}

func resolveVersion(base string, readInfo func() (*debug.BuildInfo, bool)) string {
	if base == "" {
		base = "0.0.0"
	}

	info, ok := readInfo()
	if !ok || info == nil {
		return base
	}

	if v := strings.TrimPrefix(info.Main.Version, "v"); v != "" && v != "(devel)" {
		// go install module@version: the module version is authoritative.
		if !strings.Contains(v, "-0.") {
			return v
		}
	}

	suffix := vcsSuffix(info.Settings)
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}

func vcsSuffix(settings []debug.BuildSetting) string {
	var revision string
	var modified bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if revision == "" {
		return ""
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if modified {
		return revision + "-dirty"
	}
	return revision
}
