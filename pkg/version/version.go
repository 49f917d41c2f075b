package version

import (
	_ "embed"
	"strings"
)

//go:embed version.txt
var versionFile string

// buildID is set with -ldflags "-X toolsmith/pkg/version.buildID=..." by release builds.
var buildID string

// Version is the released toolsmith version.
func Version() string {
	return strings.TrimSpace(versionFile)
}

// GetBuildID returns the version, suffixed with the build id when one was linked in.
func GetBuildID() string {
	if buildID == "" {
		return Version()
	}
	return Version() + "+" + buildID
}
