// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-repocache/config"
	"github.com/gizzahub/gzh-repocache/wizard"
)

var profileCreateOverwrite bool

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage repocachectl profile files",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Interactively build a profile and save it",
	Args:  cobra.NoArgs,
	RunE:  runProfileCreate,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCreateCmd.Flags().BoolVar(&profileCreateOverwrite, "force", false, "overwrite an existing profile file")
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	paths, err := config.NewPaths()
	if err != nil {
		return err
	}
	if err := paths.EnsureDir(); err != nil {
		return err
	}

	target := profilePath
	if target == "" {
		if existing := paths.ProfilePath(); existing != "" && !profileCreateOverwrite {
			return fmt.Errorf("profile already exists at %s (pass --force to overwrite)", existing)
		}
		target = paths.DefaultProfilePath()
	}

	root := rootPath
	if root == "" {
		root = paths.ConfigDir + "/repos"
	}

	w := wizard.NewProfileCreateWizard(root)
	profile, err := w.Run(context.Background())
	if err != nil {
		return err
	}

	if err := config.Save(target, *profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	fmt.Printf("profile saved to %s\n", target)
	return nil
}
