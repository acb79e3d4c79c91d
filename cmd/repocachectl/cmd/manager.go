// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/gizzahub/gzh-repocache/config"
	"github.com/gizzahub/gzh-repocache/delegate"
	"github.com/gizzahub/gzh-repocache/forge/gitea"
	"github.com/gizzahub/gzh-repocache/forge/github"
	"github.com/gizzahub/gzh-repocache/forge/gitlab"
	"github.com/gizzahub/gzh-repocache/gitdriver"
	"github.com/gizzahub/gzh-repocache/manager"
)

// buildProvider wires a gitdriver.Provider with a forge client per
// configured host, so IsValidDirectory can consult the hosted API
// instead of a local git round trip where credentials allow it.
func buildProvider(profile config.Profile) (*gitdriver.Provider, error) {
	var opts []gitdriver.Option

	for _, t := range profile.ForgeTokens {
		switch t.Host {
		case "github.com":
			opts = append(opts, gitdriver.WithForgeClient(t.Host, github.NewProvider(t.Token)))
		case "gitlab.com":
			p, err := gitlab.NewProvider(t.Token, "")
			if err != nil {
				return nil, fmt.Errorf("build gitlab client: %w", err)
			}
			opts = append(opts, gitdriver.WithForgeClient(t.Host, p))
		default:
			p, err := gitea.NewProvider(t.Token, "https://"+t.Host)
			if err != nil {
				return nil, fmt.Errorf("build gitea client for %s: %w", t.Host, err)
			}
			opts = append(opts, gitdriver.WithForgeClient(t.Host, p))
		}
	}

	return gitdriver.New(opts...), nil
}

// buildManager constructs a manager.Manager from profile, using the
// real git-CLI-backed provider. del, if non-nil, receives lifecycle
// events (e.g. a tui.Delegate driving a live progress display).
func buildManager(profile config.Profile, del delegate.Delegate) (*manager.Manager, error) {
	prov, err := buildProvider(profile)
	if err != nil {
		return nil, err
	}

	var opts []manager.Option
	if profile.CachePath != "" {
		opts = append(opts, manager.WithCachePath(profile.CachePath))
	}
	if profile.CacheLocalPackages {
		opts = append(opts, manager.WithCacheLocalPackages(true))
	}
	if profile.MaxConcurrentOperations > 0 {
		opts = append(opts, manager.WithMaxConcurrentOperations(profile.MaxConcurrentOperations))
	}
	if del != nil {
		opts = append(opts, manager.WithDelegate(del))
	}

	return manager.New(profile.Root, prov, opts...)
}

// strategyFromConfig translates a config.UpdateStrategy into its
// manager.UpdateStrategy equivalent.
func strategyFromConfig(s config.UpdateStrategy) manager.UpdateStrategy {
	switch s.Kind {
	case "never":
		return manager.Never()
	case "if_older_than":
		return manager.IfOlderThan(s.MaxAge)
	default:
		return manager.Always()
	}
}
