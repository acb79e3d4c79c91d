// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package tui renders delegate.Delegate lifecycle events live, one row
// per storage key, using github.com/charmbracelet/bubbletea and
// .../lipgloss.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle decorates the title bar.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	// PendingStyle marks a row whose fetch/update hasn't completed yet.
	PendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	// OKStyle marks a row that completed successfully.
	OKStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	// ErrStyle marks a row that failed.
	ErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	// SubtleStyle is used for secondary text (durations, cache hints).
	SubtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)
