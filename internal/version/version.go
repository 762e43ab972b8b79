// Package version reports the build the client was produced from.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via ldflags. Left unset, Commit falls back to the VCS
// revision the toolchain stamped into the binary.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = "unknown"
)

// String returns a one-line description of the running client.
func String() string {
	return fmt.Sprintf("soup %s (commit: %s, built: %s)", Version, shortCommit(revision()), BuildTime)
}

func revision() string {
	if Commit != "" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return "unknown"
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
