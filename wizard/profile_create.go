// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package wizard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/gizzahub/gzh-repocache/config"
)

// ProfileCreateWizard guides a user through building a config.Profile
// interactively, in place of hand-editing the YAML file loader.Load
// reads: one huh.Form per logical step, a printed summary, then a
// final confirm-to-save/cancel-returns-error gate.
type ProfileCreateWizard struct {
	printer *Printer
	profile config.Profile

	maxConcurrent string
	strategyKind  string
	maxAge        string
	addToken      bool
}

// NewProfileCreateWizard creates a wizard seeded with root as the
// clone-store directory, matching config.DefaultProfile's defaults for
// everything the wizard doesn't ask about.
func NewProfileCreateWizard(root string) *ProfileCreateWizard {
	return &ProfileCreateWizard{
		printer:      NewPrinter(),
		profile:      config.DefaultProfile(root),
		strategyKind: "always",
	}
}

// Run executes the profile creation wizard and returns the completed
// profile, or an error if the user cancels at the final confirmation.
func (w *ProfileCreateWizard) Run(ctx context.Context) (*config.Profile, error) {
	w.printer.PrintHeader(IconGear, "Profile Creation Wizard")
	w.printer.PrintInfo(fmt.Sprintf("clone-store root: %s", w.profile.Root))

	if err := w.runStorageStep(); err != nil {
		return nil, err
	}
	if err := w.runUpdateStrategyStep(); err != nil {
		return nil, err
	}
	if err := w.runForgeTokenStep(ctx); err != nil {
		return nil, err
	}

	w.printSummary()

	var confirm bool
	confirmForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save profile?").
				Description("Write this profile to the config file").
				Affirmative("Yes, save").
				Negative("No, cancel").
				Value(&confirm),
		),
	).WithTheme(huh.ThemeCharm())

	if err := confirmForm.Run(); err != nil {
		return nil, err
	}
	if !confirm {
		return nil, fmt.Errorf("profile creation cancelled")
	}

	return &w.profile, nil
}

func (w *ProfileCreateWizard) runStorageStep() error {
	var maxConcurrent string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Clone-store root").
				Description("Directory the manager stores bare clones under").
				Validate(ValidatePathRequired).
				Value(&w.profile.Root),

			huh.NewInput().
				Title("Shared cache path").
				Description("Optional: promotes first-fetch clones here for reuse across roots").
				Placeholder("(none)").
				Validate(ValidatePath).
				Value(&w.profile.CachePath),

			huh.NewConfirm().
				Title("Cache local-path specifiers too?").
				Description("manager.WithCacheLocalPackages: also share local-disk repos via the cache").
				Affirmative("Yes").
				Negative("No").
				Value(&w.profile.CacheLocalPackages),

			huh.NewInput().
				Title("Max concurrent operations").
				Description("Optional: caps simultaneous fetches/updates (empty = unbounded)").
				Placeholder("(unbounded)").
				Validate(ValidateMaxConcurrentOperations).
				Value(&maxConcurrent),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return err
	}

	w.maxConcurrent = maxConcurrent
	if maxConcurrent != "" {
		n, err := strconv.Atoi(maxConcurrent)
		if err != nil {
			return fmt.Errorf("parse max concurrent operations: %w", err)
		}
		w.profile.MaxConcurrentOperations = n
	}
	return nil
}

func (w *ProfileCreateWizard) runUpdateStrategyStep() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default update strategy").
				Description("Applied by lookups that don't pass --update-strategy").
				Options(
					huh.NewOption("Always re-fetch", "always"),
					huh.NewOption("Never re-fetch (reuse whatever is cached)", "never"),
					huh.NewOption("Re-fetch if older than", "if_older_than"),
				).
				Value(&w.strategyKind),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return err
	}

	if w.strategyKind != "if_older_than" {
		w.profile.DefaultUpdateStrategy = config.UpdateStrategy{Kind: w.strategyKind}
		return nil
	}

	ageForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Max age").
				Description("Fetch again once the cached copy is older than this").
				Placeholder("24h").
				Validate(ValidateMaxAge).
				Value(&w.maxAge),
		),
	).WithTheme(huh.ThemeCharm())

	if err := ageForm.Run(); err != nil {
		return err
	}

	d, err := time.ParseDuration(w.maxAge)
	if err != nil {
		return fmt.Errorf("parse max age: %w", err)
	}
	w.profile.DefaultUpdateStrategy = config.UpdateStrategy{Kind: "if_older_than", MaxAge: d}
	return nil
}

// runForgeTokenStep loops, offering to add another forge token until
// the user declines, so any number of hosts can be configured in one
// pass.
func (w *ProfileCreateWizard) runForgeTokenStep(ctx context.Context) error {
	for {
		var add bool
		askForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add a forge token?").
					Description("Lets IsValidDirectory consult github.com/gitlab.com/gitea for a host").
					Affirmative("Yes, add one").
					Negative("No, done").
					Value(&add),
			),
		).WithTheme(huh.ThemeCharm())

		if err := askForm.Run(); err != nil {
			return err
		}
		if !add {
			return nil
		}

		var host, token string
		tokenForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Forge host").
					Placeholder("github.com").
					Validate(ValidateHost).
					Value(&host),

				huh.NewInput().
					Title("API token").
					EchoMode(huh.EchoModePassword).
					Validate(ValidateToken).
					Value(&token),
			),
		).WithTheme(huh.ThemeCharm())

		if err := tokenForm.Run(); err != nil {
			return err
		}

		w.profile.ForgeTokens = append(w.profile.ForgeTokens, config.ForgeToken{Host: host, Token: token})
		w.printer.PrintSuccess(fmt.Sprintf("added token for %s", host))
	}
}

func (w *ProfileCreateWizard) printSummary() {
	keys := []string{
		"Root",
		"Cache Path",
		"Cache Local Packages",
		"Max Concurrent Operations",
		"Default Update Strategy",
		"Forge Tokens",
	}

	strategy := w.profile.DefaultUpdateStrategy.Kind
	if w.profile.DefaultUpdateStrategy.Kind == "if_older_than" {
		strategy = fmt.Sprintf("if_older_than %s", w.profile.DefaultUpdateStrategy.MaxAge)
	}

	items := map[string]string{
		"Root":                      w.profile.Root,
		"Cache Path":                w.profile.CachePath,
		"Cache Local Packages":      FormatBool(w.profile.CacheLocalPackages),
		"Max Concurrent Operations": w.maxConcurrent,
		"Default Update Strategy":   strategy,
		"Forge Tokens":              fmt.Sprintf("%d configured", len(w.profile.ForgeTokens)),
	}

	w.printer.PrintOrderedSummary("Profile Summary", keys, items)
	for _, t := range w.profile.ForgeTokens {
		w.printer.PrintKeyValue(t.Host, SanitizeTokenForDisplay(t.Token))
	}
}
