// Package version holds build metadata injected with -ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/texbuilder/internal/version.Version=v0.4.0"
package version

import "fmt"

var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the metadata for the version command.
func String() string {
	return fmt.Sprintf("texbuilder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
