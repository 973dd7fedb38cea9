package conduit

import (
	"fmt"
	"runtime"
)

// Version information
const (
	Version    = "0.1.0"
	APIVersion = "v1"
)

// BuildInfo contains build information
var BuildInfo = struct {
	Version    string
	APIVersion string
	GitCommit  string
	BuildDate  string
	GoVersion  string
}{
	Version:    Version,
	APIVersion: APIVersion,
	GoVersion:  runtime.Version(),
}

// SetBuildInfo is called by the build process
func SetBuildInfo(commit, date string) {
	BuildInfo.GitCommit = commit
	BuildInfo.BuildDate = date
}

// VersionInfo returns formatted version information
func VersionInfo() string {
	return fmt.Sprintf("conduit %s (API %s)", BuildInfo.Version, BuildInfo.APIVersion)
}
