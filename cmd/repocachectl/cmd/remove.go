// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-repocache/specifier"
)

var removeCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Delete a cached clone and its catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	mgr, err := buildManager(profile, nil)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := mgr.Remove(specifier.New(args[0])); err != nil {
		return fmt.Errorf("remove %s: %w", args[0], err)
	}
	fmt.Printf("removed %s\n", args[0])
	return nil
}
