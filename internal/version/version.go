// Package version provides build information for the sitegen binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set at build time using -ldflags.
var (
	// Version is the git tag version number.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date of the build.
	BuildDate = "unknown"
)

// Info holds all the version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the version information.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			if setting.Key == "vcs.revision" && info.Commit == "unknown" {
				info.Commit = setting.Value
			}
		}
	}

	return info
}

// UserAgent returns the User-Agent header value sent to the generation API.
func UserAgent() string {
	return "sitegen/" + Version
}

// String renders the multi-line form printed by the version command.
func (i Info) String() string {
	return fmt.Sprintf("sitegen version %s\n  commit: %s\n  built: %s\n  go: %s\n  platform: %s\n",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}
