// Package version carries build information for the codesearch binary.
//
// The variables are set at build time:
//
//	-ldflags "-X codesearch/internal/version.version=v1.2.0 -X codesearch/internal/version.commit=abc123 -X codesearch/internal/version.buildTime=2026-01-01T00:00:00Z"
package version

import (
	"fmt"
	"strings"
)

//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	version   string
	commit    string
	buildTime string
)

// ApplicationName is shown in the full version output.
const ApplicationName = "codesearch"

// userAgentProduct prefixes the User-Agent sent to the backend.
const userAgentProduct = "codesearch-client"

// Defaults used when the build did not inject a value.
const (
	DefaultVersion   = "dev"
	DefaultCommit    = "unknown"
	DefaultBuildTime = "unknown"
)

// Info is the resolved build information.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Get returns the build information with defaults applied.
func Get() Info {
	return Info{
		Version:   withDefault(version, DefaultVersion),
		Commit:    withDefault(commit, DefaultCommit),
		BuildTime: withDefault(buildTime, DefaultBuildTime),
	}
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// UserAgent returns the User-Agent header value for backend requests.
func (i Info) UserAgent() string {
	return userAgentProduct + "/" + i.Version
}

// FormatFull returns the application name followed by version, commit and
// build time, one per line.
func (i Info) FormatFull() string {
	var b strings.Builder
	b.WriteString(ApplicationName + "\n")
	fmt.Fprintf(&b, "Version: %s\n", i.Version)
	fmt.Fprintf(&b, "Commit: %s\n", i.Commit)
	fmt.Fprintf(&b, "Built: %s\n", i.BuildTime)
	return b.String()
}

// IsDevelopment reports whether this is an unversioned build.
func (i Info) IsDevelopment() bool {
	return i.Version == DefaultVersion
}

// SetBuildVars overrides the injected values. Tests only.
func SetBuildVars(ver, com, bt string) {
	version = ver
	commit = com
	buildTime = bt
}

// ResetBuildVars clears the injected values. Tests only.
func ResetBuildVars() {
	SetBuildVars("", "", "")
}
