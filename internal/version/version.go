// Package version provides build information for the gochip8 interpreter
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/retroenv/retrogolib/buildinfo"
)

var (
	// These will be set at build time via -ldflags
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildTime  string `json:"build_time"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	Arch       string `json:"arch"`
	CGOEnabled bool   `json:"cgo_enabled"`
}

// GetBuildInfo returns build information, filling commit and time from
// the embedded VCS settings when they were not set at link time
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = setting.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = setting.Value
				}
			case "CGO_ENABLED":
				info.CGOEnabled = setting.Value == "1"
			}
		}
	}
	return info
}

// ShortCommit returns the first 7 characters of the commit hash
func (b BuildInfo) ShortCommit() string {
	if len(b.GitCommit) > 7 {
		return b.GitCommit[:7]
	}
	return b.GitCommit
}

// GetVersion returns the version line shown in the banner
func GetVersion() string {
	return buildinfo.Version(Version, GitCommit, BuildTime)
}

// PrintBuildInfo writes formatted build information
func PrintBuildInfo(w io.Writer) {
	info := GetBuildInfo()

	fmt.Fprintf(w, "gochip8 - CHIP-8 interpreter\n")
	fmt.Fprintf(w, "Version:     %s\n", info.Version)
	if commit := info.ShortCommit(); commit != "" {
		fmt.Fprintf(w, "Git Commit:  %s\n", commit)
	}
	if info.BuildTime != "" {
		fmt.Fprintf(w, "Build Time:  %s\n", info.BuildTime)
	}
	fmt.Fprintf(w, "Go Version:  %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform:    %s/%s\n", info.Platform, info.Arch)
	fmt.Fprintf(w, "CGO Enabled: %t\n", info.CGOEnabled)
}
