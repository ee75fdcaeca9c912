// Package version exposes the build metadata stamped into specdeck binaries.
package version

import (
	"fmt"
	"runtime"
)

// Overridden at build time via -ldflags "-X github.com/specdeck/specdeck/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Info is the version payload printed by 'specdeck version'.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the stamped build metadata plus runtime details.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the info as the human-readable block shown by the CLI.
func (i Info) String() string {
	return fmt.Sprintf(
		"specdeck %s\n  Commit:     %s\n  Built:      %s\n  Go version: %s\n  Platform:   %s",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform,
	)
}
