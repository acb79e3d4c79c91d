// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the entire clone-store root and in-memory state",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	mgr, err := buildManager(profile, nil)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := mgr.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	fmt.Println("reset complete")
	return nil
}
