// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package cmd implements the repocachectl CLI commands: a
// package-level rootCmd with persistent global flags, and
// Execute(version) called once from main.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-repocache/config"
)

var (
	appVersion string

	profilePath string
	rootPath    string
	cachePath   string
)

var rootCmd = &cobra.Command{
	Use:     "repocachectl",
	Short:   "Drive a repository cache manager directly",
	Version: appVersion,
}

// Execute runs rootCmd, whose subcommands each file's init adds.
// Called once from main.main.
func Execute(version string) {
	appVersion = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "path to a profile YAML file (default: XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&rootPath, "root", "", "override the manager's clone-store root")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "override the manager's shared cache directory")

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// loadProfile resolves --profile (or the default XDG location) and
// applies any --root/--cache overrides from the command line; flags
// win over the profile file.
func loadProfile() (config.Profile, error) {
	path := profilePath
	fallbackRoot := ""

	if path == "" {
		paths, err := config.NewPaths()
		if err != nil {
			return config.Profile{}, fmt.Errorf("resolve config paths: %w", err)
		}
		if err := paths.EnsureDir(); err != nil {
			return config.Profile{}, err
		}
		if p := paths.ProfilePath(); p != "" {
			path = p
		} else {
			path = paths.DefaultProfilePath()
			fallbackRoot = paths.ConfigDir + "/repos"
		}
	}

	profile, err := config.Load(path, fallbackRoot)
	if err != nil {
		return config.Profile{}, err
	}

	if rootPath != "" {
		profile.Root = rootPath
	}
	if cachePath != "" {
		profile.CachePath = cachePath
	}
	return profile, nil
}
