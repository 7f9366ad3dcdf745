package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// shortCommitLength is the number of SHA characters shown for VCS revisions.
const shortCommitLength = 7

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	commit, built := resolve(debug.ReadBuildInfo)

	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, commit, built)
}

// resolve fills Commit and BuildTime from the embedded VCS settings when the
// linker did not set them.
func resolve(read func() (*debug.BuildInfo, bool)) (string, string) {
	commit, built := Commit, BuildTime
	if commit != "none" && built != "unknown" {
		return commit, built
	}

	info, ok := read()
	if !ok {
		return commit, built
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "none" && s.Value != "" {
				commit = s.Value[:min(len(s.Value), shortCommitLength)]
			}
		case "vcs.time":
			if built == "unknown" && s.Value != "" {
				built = s.Value
			}
		}
	}

	return commit, built
}
