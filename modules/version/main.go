package version

import (
	"strings"
)

// Set at build time with -ldflags "-X github.com/lkarlslund/dacledit/modules/version.Version=..."
var (
	Program    = "dacledit"
	Commit     = ""
	Version    = ""
	Disclaimer = "Changes are written directly to the directory, there is no undo"
)

func ProgramVersionShort() string {
	return strings.Trim(Program+" "+VersionStringShort(), " ")
}

func VersionStringShort() string {
	var parts []string
	if Version != "" {
		parts = append(parts, Version)
		if strings.Contains(Version, "-") {
			parts = append(parts, "(non-release)")
		}
	}
	if Commit != "" && !strings.Contains(Version, Commit) {
		parts = append(parts, "(commit "+Commit+")")
	}
	if len(parts) == 0 {
		return "(unknown build)"
	}
	return strings.Join(parts, " ")
}

func VersionString() string {
	return ProgramVersionShort() + ", " + Disclaimer
}
