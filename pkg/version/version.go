// Package version reports build information for Argus.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the program name used in version strings.
const Name = "argus"

// Build variables, set with -ldflags "-X github.com/Aman-CERP/argus/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GoVersion is the toolchain the binary was built with.
var GoVersion = runtime.Version()

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Modified  bool   `json:"modified,omitempty"`
}

// GetInfo returns structured version information. Commit and date fall back
// to the VCS stamps embedded by the Go toolchain when ldflags left them unset.
func GetInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = shortCommit(s.Value)
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String returns a one-line version string with build details.
func String() string {
	info := GetInfo()
	s := fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s, %s/%s)",
		Name, info.Version, info.Commit, info.Date, info.GoVersion, info.OS, info.Arch)
	if info.Modified {
		s += " +dirty"
	}
	return s
}

// Short returns just the version.
func Short() string {
	return GetInfo().Version
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
