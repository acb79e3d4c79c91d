// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package config loads and persists the settings a RepositoryManager
// is constructed from: root path, optional cache path,
// cache_local_packages, max_concurrent_operations, the default update
// strategy, and forge tokens. Profiles live as YAML under the user's
// XDG config directory and are replaced atomically on save.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the config directory name under the user config dir.
	DirName = "gzh-repocache"

	// ProfileFileName is the base name of the single profile file this
	// package loads (plus one of supportedExtensions).
	ProfileFileName = "profile"
)

var supportedExtensions = []string{".yaml", ".yml"}

// Paths resolves every file this package reads or writes.
type Paths struct {
	// ConfigDir is the root config directory (e.g.
	// ~/.config/gzh-repocache).
	ConfigDir string
}

// NewPaths returns Paths rooted at the OS's standard user config
// directory (XDG_CONFIG_HOME on Linux, falling back per os.UserConfigDir).
func NewPaths() (*Paths, error) {
	configHome, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user config dir: %w", err)
	}
	return &Paths{ConfigDir: filepath.Join(configHome, DirName)}, nil
}

// findFile returns the first of base+ext that exists, trying
// extensions in order, or "" if none do.
func findFile(base string, extensions []string) string {
	for _, ext := range extensions {
		p := base + ext
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ProfilePath returns the path to the profile file, or "" if none of
// the supported extensions exist under ConfigDir.
func (p *Paths) ProfilePath() string {
	return findFile(filepath.Join(p.ConfigDir, ProfileFileName), supportedExtensions)
}

// DefaultProfilePath returns the path a new profile should be written
// to when none exists yet (the first supported extension).
func (p *Paths) DefaultProfilePath() string {
	return filepath.Join(p.ConfigDir, ProfileFileName+supportedExtensions[0])
}

// EnsureDir creates the config directory (0700, user-only) if absent.
func (p *Paths) EnsureDir() error {
	if err := os.MkdirAll(p.ConfigDir, 0o700); err != nil {
		return fmt.Errorf("create config dir %s: %w", p.ConfigDir, err)
	}
	return nil
}
