// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-repocache/config"
	"github.com/gizzahub/gzh-repocache/delegate"
	"github.com/gizzahub/gzh-repocache/manager"
	"github.com/gizzahub/gzh-repocache/specifier"
	"github.com/gizzahub/gzh-repocache/tui"
)

var (
	lookupUpdateStrategy string
	lookupMaxAge         string
	lookupCheckoutAt     string
	lookupEditable       bool
	lookupTUI            bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <url>",
	Short: "Fetch or reuse a cached clone of a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVar(&lookupUpdateStrategy, "update-strategy", "", "always|never|if-older-than (default: profile's default)")
	lookupCmd.Flags().StringVar(&lookupMaxAge, "max-age", "", "max age for if-older-than, e.g. 24h")
	lookupCmd.Flags().StringVar(&lookupCheckoutAt, "checkout", "", "also create a working copy at this path")
	lookupCmd.Flags().BoolVar(&lookupEditable, "editable", false, "working copy points at the remote instead of the local clone")
	lookupCmd.Flags().BoolVar(&lookupTUI, "tui", false, "render fetch/update progress live instead of printing a summary line")
}

func runLookup(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	var del delegate.Delegate
	var program *tea.Program
	var programDone chan error
	if lookupTUI {
		program = tea.NewProgram(tui.NewModel())
		del = tui.NewDelegate(program)
		programDone = make(chan error, 1)
		go func() {
			_, err := program.Run()
			programDone <- err
		}()
	}

	mgr, err := buildManager(profile, del)
	if err != nil {
		return err
	}
	defer mgr.Close()

	strategy, err := resolveStrategy(profile)
	if err != nil {
		return err
	}

	spec := specifier.New(args[0])
	handle, lookupErr := mgr.Lookup(context.Background(), delegate.Identity(args[0]), spec, strategy)

	var checkoutErr error
	if lookupErr == nil && lookupCheckoutAt != "" {
		_, checkoutErr = handle.CreateWorkingCopy(context.Background(), lookupCheckoutAt, lookupEditable)
	}

	if program != nil {
		program.Quit()
		<-programDone
	}

	if lookupErr != nil {
		return fmt.Errorf("lookup %s: %w", args[0], lookupErr)
	}
	fmt.Printf("%s -> %s (%s)\n", args[0], spec.StorageKey(), handle.Status())

	if lookupCheckoutAt != "" {
		if checkoutErr != nil {
			return fmt.Errorf("create working copy at %s: %w", lookupCheckoutAt, checkoutErr)
		}
		fmt.Printf("working copy created at %s\n", lookupCheckoutAt)
	}

	return nil
}

// resolveStrategy applies --update-strategy/--max-age if given,
// otherwise falls back to the profile's configured default, keeping
// the no-flag behavior an operator decision rather than a hidden
// global.
func resolveStrategy(profile config.Profile) (manager.UpdateStrategy, error) {
	switch lookupUpdateStrategy {
	case "":
		return strategyFromConfig(profile.DefaultUpdateStrategy), nil
	case "always":
		return manager.Always(), nil
	case "never":
		return manager.Never(), nil
	case "if-older-than":
		if lookupMaxAge == "" {
			return manager.UpdateStrategy{}, fmt.Errorf("--update-strategy if-older-than requires --max-age")
		}
		d, err := time.ParseDuration(lookupMaxAge)
		if err != nil {
			return manager.UpdateStrategy{}, fmt.Errorf("parse --max-age: %w", err)
		}
		return manager.IfOlderThan(d), nil
	default:
		return manager.UpdateStrategy{}, fmt.Errorf("unknown --update-strategy %q", lookupUpdateStrategy)
	}
}
