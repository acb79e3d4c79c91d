// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package gzhrepocache

import (
	"fmt"
	"runtime"
)

// Version information.
// These values can be overridden at build time using -ldflags.
//
// Example:
//
//	go build -ldflags "-X github.com/gizzahub/gzh-repocache.GitCommit=$(git rev-parse HEAD)"
var (
	// Version is the current library version following semantic versioning.
	// Format: MAJOR.MINOR.PATCH[-PRERELEASE], without the "v" prefix
	// (FullVersion and VersionString add it).
	Version = "0.1.0"

	// GitCommit is the git commit SHA of the build.
	// This is set during the build process.
	GitCommit = "unknown"

	// BuildDate is the date when the binary was built.
	// This is set during the build process.
	BuildDate = "unknown"
)

// VersionInfo returns detailed version information as a map.
//
// The returned map contains:
//   - version: The library version (e.g., "0.1.0")
//   - gitCommit: The git commit SHA (e.g., "a1b2c3d")
//   - buildDate: The build date (e.g., "2026-07-31")
//   - goVersion: The Go version used for building (e.g., "go1.24.0")
func VersionInfo() map[string]string {
	return map[string]string{
		"version":   Version,
		"gitCommit": GitCommit,
		"buildDate": BuildDate,
		"goVersion": runtime.Version(),
	}
}

// VersionString returns a formatted version string.
//
// Format: "gzh-repocache version v0.1.0 (commit: a1b2c3d, built: 2026-07-31)"
func VersionString() string {
	return fmt.Sprintf("gzh-repocache version v%s (commit: %s, built: %s)",
		Version, GitCommit, BuildDate)
}

// ShortVersion returns just the version number without prefix.
func ShortVersion() string {
	return Version
}

// FullVersion returns the version with 'v' prefix.
func FullVersion() string {
	return "v" + Version
}
