// Package buildinfo holds build-time metadata injected through -ldflags.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// UnknownValue is reported for metadata the build did not provide.
const UnknownValue = "unknown"

// Set with -ldflags "-X github.com/u-stem/koto/internal/buildinfo.version=..."
var (
	version   string
	buildDate string
	commit    string
)

// Info is build metadata. It is kept out of the user configuration.
type Info struct {
	Version   string
	BuildDate string
	Commit    string
	GoVersion string
}

// Current returns the metadata of the running binary. The commit falls back
// to the VCS revision recorded by the Go toolchain.
func Current() Info {
	info := Info{
		Version:   orUnknown(version),
		BuildDate: orUnknown(buildDate),
		Commit:    commit,
		GoVersion: runtime.Version(),
	}
	if info.Commit == "" {
		info.Commit = vcsRevision()
	}
	info.Commit = orUnknown(info.Commit)
	return info
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}

func (i Info) String() string {
	return fmt.Sprintf("koto %s (commit %s, built %s, %s)", i.Version, i.Commit, i.BuildDate, i.GoVersion)
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownValue
	}
	return s
}
