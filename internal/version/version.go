// Package version reports build metadata for the loop binary.
// Values are injected with -ldflags; module builds fall back to the
// version recorded in the binary's build info.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
)

// Injected via -ldflags "-X github.com/hupe1980/loop/internal/version.version=...".
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// Info is the build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	v := version
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			v = moduleVersion(bi.Main.Version, v)
		}
	}

	return Info{
		Version:   v,
		GitCommit: shortCommit(gitCommit),
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent is the User-Agent sent to the API.
func (i Info) UserAgent() string {
	return fmt.Sprintf("loop/%s (%s)", i.Version, i.Platform)
}

func (i Info) String() string {
	return fmt.Sprintf("loop %s (commit: %s, built: %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// JSON returns the info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

// moduleVersion prefers a real module version over fallback. Local and
// test builds report "(devel)" or nothing.
func moduleVersion(v, fallback string) string {
	if v == "" || v == "(devel)" {
		return fallback
	}

	return v
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}
