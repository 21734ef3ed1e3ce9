// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package version

import (
	"fmt"
	"strings"
	"time"
)

var (
	// BuildDate is the time of the git commit used to build the program,
	// in RFC3339 format. It is set with -ldflags at build time.
	BuildDate string

	// GitCommit and GitDescribe are set with -ldflags at build time.
	GitCommit   string
	GitDescribe string

	// Version is the main version number of the jail tool.
	Version = "0.1.0"

	// VersionPrerelease marks a pre-release such as "dev" or "rc1". An
	// empty string means a final release.
	VersionPrerelease = "dev"

	// VersionMetadata is metadata further describing the build type.
	VersionMetadata = ""
)

// VersionInfo describes the running build.
type VersionInfo struct {
	BuildDate         time.Time
	Revision          string
	Version           string
	VersionPrerelease string
	VersionMetadata   string
}

// GetVersion returns the version of the running binary. A GitDescribe set
// at build time overrides the compiled in version number.
func GetVersion() *VersionInfo {
	info := &VersionInfo{
		Revision:          GitCommit,
		Version:           Version,
		VersionPrerelease: VersionPrerelease,
		VersionMetadata:   VersionMetadata,
	}
	if GitDescribe != "" {
		info.Version = GitDescribe
	}

	// zero time on parse error
	info.BuildDate, _ = time.Parse(time.RFC3339, BuildDate)
	return info
}

// VersionNumber returns the semver string, e.g. "0.1.0-dev".
func (v *VersionInfo) VersionNumber() string {
	s := v.Version
	if v.VersionPrerelease != "" {
		s += "-" + v.VersionPrerelease
	}
	if v.VersionMetadata != "" {
		s += "+" + v.VersionMetadata
	}
	return s
}

// FullVersionNumber returns the human readable version, optionally followed
// by the build date and git revision on their own lines.
func (v *VersionInfo) FullVersionNumber(rev bool) string {
	lines := []string{"Jail v" + v.VersionNumber()}

	if !v.BuildDate.IsZero() {
		lines = append(lines, fmt.Sprintf("BuildDate %s", v.BuildDate.Format(time.RFC3339)))
	}
	if rev && v.Revision != "" {
		lines = append(lines, fmt.Sprintf("Revision %s", v.Revision))
	}
	return strings.Join(lines, "\n")
}
