// SPDX-License-Identifier: MIT
//
// Package build reports what binary is running. Release builds inject the
// values with -ldflags:
//
//	go build -ldflags "-X melbar/pkg/build.buildVersion=v0.3.0 -X melbar/pkg/build.buildCommit=$(git rev-parse HEAD)"
//
// Anything the linker flags leave empty is read from the module and VCS
// information the go command embeds in every binary.
package build

import (
	"errors"
	"fmt"
	"runtime/debug"
)

const (
	defaultName = "melbar"
	unknown     = "unknown"
	devel       = "(devel)" // Main module version outside a tagged module fetch.
)

// ErrNoBuildInfo is returned by Initialize when the binary carries neither
// linker flags nor embedded build information.
var ErrNoBuildInfo = errors.New("no build information available")

// Info describes the running binary.
type Info struct {
	Name     string
	Time     string // VCS commit time or the ldflags build time.
	Commit   string
	Version  string
	Modified bool // Built from a working tree with uncommitted changes.
}

// String formats the version line shown by --version.
func (i Info) String() string {
	commit := i.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, commit, i.Time)
}

// Set by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// readBuildInfo is swapped out by tests.
var readBuildInfo = debug.ReadBuildInfo

var current = defaultInfo()

func defaultInfo() Info {
	return Info{Name: defaultName, Time: unknown, Commit: unknown, Version: devel}
}

// Initialize resolves the build information. Embedded VCS settings fill the
// fields first and ldflags values override them. It only fails when neither
// source exists, and the defaults stay in place in that case.
func Initialize() error {
	info := defaultInfo()

	bi, ok := readBuildInfo()
	if ok {
		if v := bi.Main.Version; v != "" {
			info.Version = v
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = s.Value
			case "vcs.time":
				info.Time = s.Value
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	overrides := 0
	for _, f := range []struct {
		src string
		dst *string
	}{
		{buildName, &info.Name},
		{buildTime, &info.Time},
		{buildCommit, &info.Commit},
		{buildVersion, &info.Version},
	} {
		if f.src != "" {
			*f.dst = f.src
			overrides++
		}
	}

	current = info
	if !ok && overrides == 0 {
		return ErrNoBuildInfo
	}
	return nil
}

// GetBuildFlags returns the resolved build information. Before Initialize it
// holds the defaults.
func GetBuildFlags() Info {
	return current
}
