// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package config

import "time"

// UpdateStrategy mirrors manager.UpdateStrategy's three kinds in a
// serializable form; cmd/repocachectl translates one into the other so
// this package never needs to import manager.
type UpdateStrategy struct {
	Kind   string        `yaml:"kind"` // "always", "never", "if_older_than"
	MaxAge time.Duration `yaml:"max_age,omitempty"`
}

// ForgeToken holds a per-host credential for one of the forge clients
// (forge/github, forge/gitlab, forge/gitea).
type ForgeToken struct {
	Host  string `yaml:"host"`
	Token string `yaml:"token"`
}

// Profile is a RepositoryManager's construction parameters, persisted
// as YAML.
type Profile struct {
	// Root is the manager's clone-store directory.
	Root string `yaml:"root"`

	// CachePath, if set, configures the optional shared cache directory
	// of bare clones reused across manager roots.
	CachePath string `yaml:"cache_path,omitempty"`

	// CacheLocalPackages mirrors manager.WithCacheLocalPackages.
	CacheLocalPackages bool `yaml:"cache_local_packages"`

	// MaxConcurrentOperations mirrors manager.WithMaxConcurrentOperations.
	// Zero means unbounded.
	MaxConcurrentOperations int `yaml:"max_concurrent_operations,omitempty"`

	// DefaultUpdateStrategy is applied by cmd/repocachectl when a
	// command doesn't pass an explicit --update-strategy flag. Keeping
	// the default here, per profile, makes it an operator decision
	// instead of a hidden package-level constant.
	DefaultUpdateStrategy UpdateStrategy `yaml:"default_update_strategy"`

	// ForgeTokens authenticates forge/github, forge/gitlab, forge/gitea
	// clients used by gitdriver's IsValidDirectory checks.
	ForgeTokens []ForgeToken `yaml:"forge_tokens,omitempty"`
}

// DefaultProfile returns the built-in defaults applied when no profile
// file exists yet: an always-refresh strategy, no cache, unbounded
// concurrency.
func DefaultProfile(root string) Profile {
	return Profile{
		Root:                  root,
		DefaultUpdateStrategy: UpdateStrategy{Kind: "always"},
	}
}

// Token returns the token configured for host, or "" if none is set.
func (p Profile) Token(host string) string {
	for _, t := range p.ForgeTokens {
		if t.Host == host {
			return t.Token
		}
	}
	return ""
}
