// SPDX-License-Identifier: MIT
//
// Package build carries binary metadata (name, version, commit, build time)
// injected at compile time through -ldflags. The values are surfaced by the
// CLI's version output and the startup log line.
package build

import "fmt"

type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Populated by -ldflags during compilation. Development builds leave them
// empty and fall back to the defaults below.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	info = &Info{
		Name:    "barviz",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies ldflags values into the Info struct. Call it early in
// startup; it returns an error when the flags are absent so release
// pipelines can fail loudly, while development builds may ignore it.
func Initialize() error {
	if buildName == "" || buildTime == "" || buildCommit == "" || buildVersion == "" {
		return fmt.Errorf("build metadata incomplete (name=%q time=%q commit=%q version=%q)",
			buildName, buildTime, buildCommit, buildVersion)
	}

	info.Name = buildName
	info.Time = buildTime
	info.Commit = buildCommit
	info.Version = buildVersion
	return nil
}

// GetInfo returns the current build metadata. Safe to call whether or not
// Initialize succeeded; defaults are in place for development builds.
func GetInfo() *Info {
	return info
}
