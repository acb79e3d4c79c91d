// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package wizard implements the interactive, huh-driven profile-
// creation flow exposed by `repocachectl profile create`: a Printer
// for lipgloss-styled terminal output plus one huh.Form per logical
// step, confirmed and saved at the end rather than written
// field-by-field.
package wizard

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Icons for wizard output.
const (
	IconSuccess = "✓"
	IconWarning = "⚠"
	IconGear    = "⚙"
	IconInfo    = "ℹ"
)

// Styles for wizard output.
var (
	// TitleStyle is used for wizard titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	// SubtitleStyle is used for section headers.
	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))

	// SuccessStyle is used for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// WarningStyle is used for warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	// DimStyle is used for less important text.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// KeyStyle is used for config keys.
	KeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// ValueStyle is used for config values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// Printer handles wizard output.
type Printer struct {
	Out io.Writer
}

// NewPrinter creates a new Printer with stdout as default.
func NewPrinter() *Printer {
	return &Printer{Out: os.Stdout}
}

// PrintHeader prints a wizard header with icon.
func (p *Printer) PrintHeader(icon, title string) {
	fmt.Fprintln(p.Out)
	fmt.Fprintln(p.Out, TitleStyle.Render(icon+" "+title))
	fmt.Fprintln(p.Out)
}

// PrintSubtitle prints a section subtitle.
func (p *Printer) PrintSubtitle(title string) {
	fmt.Fprintln(p.Out, SubtitleStyle.Render(title))
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.Out, SuccessStyle.Render(IconSuccess+" "+msg))
}

// PrintWarning prints a warning message.
func (p *Printer) PrintWarning(msg string) {
	fmt.Fprintln(p.Out, WarningStyle.Render(IconWarning+" "+msg))
}

// PrintInfo prints an info message.
func (p *Printer) PrintInfo(msg string) {
	fmt.Fprintln(p.Out, DimStyle.Render(IconInfo+" "+msg))
}

// PrintKeyValue prints a key-value pair.
func (p *Printer) PrintKeyValue(key, value string) {
	fmt.Fprintf(p.Out, "  %s %s\n",
		KeyStyle.Render(key+":"),
		ValueStyle.Render(value))
}

// PrintOrderedSummary prints a configuration summary in order, skipping
// keys whose value is empty.
func (p *Printer) PrintOrderedSummary(title string, keys []string, items map[string]string) {
	fmt.Fprintln(p.Out)
	p.PrintSubtitle(title)
	fmt.Fprintln(p.Out)

	for _, key := range keys {
		if value, ok := items[key]; ok && value != "" {
			p.PrintKeyValue(key, value)
		}
	}
}

// SanitizeTokenForDisplay masks a token for display.
func SanitizeTokenForDisplay(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// FormatBool formats a boolean for display.
func FormatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
