// Package version describes the hansard build and the versions of the files
// it writes. Build fields are injected with -ldflags; FormatVersion moves
// with the JSON shapes of mention, unresolved and alias index files.
package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/hansard/errors"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/teranos/hansard/version.Version=1.4.0 -X github.com/teranos/hansard/version.CommitHash=$(git rev-parse HEAD)"
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// FormatVersion is the version of the output file shapes. Readers accept
// files of the same major version.
const FormatVersion = "1.1.0"

// Info is what `hansard version` reports.
type Info struct {
	Version       string `json:"version"`
	CommitHash    string `json:"commit_hash"`
	BuildTime     string `json:"build_time"`
	FormatVersion string `json:"format_version"`
	GoVersion     string `json:"go_version"`
	Platform      string `json:"platform"`
}

// Get returns the running binary's info.
func Get() Info {
	return Info{
		Version:       Version,
		CommitHash:    CommitHash,
		BuildTime:     BuildTime,
		FormatVersion: FormatVersion,
		GoVersion:     runtime.Version(),
		Platform:      fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Release returns the canonical semantic version ("v1.2" reads as "1.2.0"),
// or "" for untagged and unparseable builds.
func (i Info) Release() string {
	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return ""
	}
	return v.String()
}

func (i Info) String() string {
	release := i.Release()
	if release == "" {
		release = "dev"
	}
	return fmt.Sprintf("hansard %s (commit %s, built %s, formats %s)", release, i.Short(), i.BuildTime, i.FormatVersion)
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// Generator identifies this build in file metadata: "hansard/1.2.0", or
// "hansard/dev+abcdef1" for untagged builds.
func (i Info) Generator() string {
	if release := i.Release(); release != "" {
		return "hansard/" + release
	}
	return "hansard/dev+" + i.Short()
}

// CompatibleFormat reports whether a file written with format version v can
// be read by this build: same major version, not newer than FormatVersion.
// An empty v predates format stamping and is accepted.
func CompatibleFormat(v string) (bool, error) {
	if v == "" {
		return true, nil
	}
	got, err := semver.NewVersion(v)
	if err != nil {
		return false, errors.Wrapf(err, "format version %q", v)
	}
	want := semver.MustParse(FormatVersion)
	return got.Major() == want.Major() && !got.GreaterThan(want), nil
}
