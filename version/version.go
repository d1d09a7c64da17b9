// Package version reports build information for streamkit binaries.
//
// Release builds set the variables with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/streamkit/version.Version=v1.2.0"
//
// Development builds fall back to the VCS stamp embedded by the Go toolchain.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the resolved build information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty"`
}

// Get resolves build information, filling gaps from debug.ReadBuildInfo.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// String renders "version (commit, dirty)" for --version output.
func (i Info) String() string {
	switch {
	case i.GitCommit == "":
		return i.Version
	case i.Dirty:
		return fmt.Sprintf("%s (%s, dirty)", i.Version, i.GitCommit)
	default:
		return fmt.Sprintf("%s (%s)", i.Version, i.GitCommit)
	}
}
