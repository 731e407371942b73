package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	// Name of the application
	AppName = "MirrorBox"

	// Version of the application, overridden by ldflags on release builds
	Version = "0.1.0-dev"

	// Git commit hash of the application
	Revision = "HEAD"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return
	}

	// Prefer the module version when set by release builds.
	if Version == "0.1.0-dev" || Version == "" {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			Version = strings.TrimPrefix(v, "v")
		}
	}

	// Prefer the VCS revision for local builds.
	if Revision == "HEAD" || Revision == "" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				Revision = s.Value
			}
			if s.Key == "vcs.modified" && s.Value == "true" {
				Revision += "-dirty"
			}
		}
	}
}

func Short() string {
	return Version
}

// Detailed returns the version with revision, go version and platform.
func Detailed() string {
	rev := Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	return fmt.Sprintf("%s (%s; %s; %s/%s)", Version, rev, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
