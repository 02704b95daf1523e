// Package version holds build metadata injected via ldflags.
package version

import "fmt"

// Set at build time with -ldflags "-X github.com/bissquit/meetup-hub/internal/version.Version=...".
var (
	Version   = "0.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the build metadata served by /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Get returns the current build metadata.
func Get() Info {
	return Info{Version: Version, Commit: GitCommit, BuildDate: BuildDate}
}

func (i Info) String() string {
	return fmt.Sprintf("meetup-hub %s (commit %s, built %s)", i.Version, i.Commit, i.BuildDate)
}
