// Package version exposes build-time version metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set at build time using -ldflags.
var (
	// Version is the semantic version of the application
	Version = "dev"
	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"
)

// GetVersion returns the application version, falling back to module build
// info for go-installed binaries.
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}
	return Version
}

// String returns a one-line version summary.
func String() string {
	return fmt.Sprintf("buildr %s (%s, %s, %s/%s)",
		GetVersion(), GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
