// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// phase is a row's lifecycle stage, mirroring the delegate event
// sequence a single storage key goes through.
type phase int

const (
	phasePending phase = iota
	phaseFetching
	phaseFetched
	phaseUpdating
	phaseUpdated
	phaseFailed
)

type row struct {
	specifierURL string
	phase        phase
	fromCache    bool
	fetchDone    bool
	objects      int
	totalObjects int
	duration     time.Duration
	err          error
}

// Model is the bubbletea model rendering one row per storage key. Feed
// it events with a Delegate wired to a manager via manager.WithDelegate,
// and drive it with Program.Send since events arrive from arbitrary
// manager goroutines.
type Model struct {
	rows map[string]*row
}

// NewModel returns an empty Model ready to be handed to tea.NewProgram.
func NewModel() Model {
	return Model{rows: make(map[string]*row)}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case willFetchMsg:
		r := m.rowFor(msg.url)
		r.phase = phaseFetching
		r.fromCache = msg.details.FromCache

	case fetchingMsg:
		r := m.rowFor(msg.url)
		r.objects = msg.objectsFetched
		r.totalObjects = msg.totalObjects

	case didFetchMsg:
		r := m.rowFor(msg.url)
		r.duration = msg.duration
		if msg.result.Err != nil {
			r.phase = phaseFailed
			r.err = msg.result.Err
		} else {
			r.phase = phaseFetched
			r.fetchDone = true
			r.fromCache = msg.result.Details.FromCache
		}

	case willUpdateMsg:
		r := m.rowFor(msg.url)
		r.phase = phaseUpdating

	case didUpdateMsg:
		r := m.rowFor(msg.url)
		r.duration = msg.duration
		if msg.err != nil {
			r.phase = phaseFailed
			r.err = msg.err
		} else {
			r.phase = phaseUpdated
		}
	}
	return m, nil
}

func (m Model) rowFor(url string) *row {
	r, ok := m.rows[url]
	if !ok {
		r = &row{specifierURL: url}
		m.rows[url] = r
	}
	return r
}

func (m Model) View() string {
	var b strings.Builder

	// Aggregate completed fetches into a run-level cache hit ratio.
	fetches, cacheHits := 0, 0
	for _, r := range m.rows {
		if r.fetchDone {
			fetches++
			if r.fromCache {
				cacheHits++
			}
		}
	}
	header := fmt.Sprintf(" repocache (%d repositories) ", len(m.rows))
	if fetches > 0 {
		header = fmt.Sprintf(" repocache (%d repositories, cache %d/%d) ", len(m.rows), cacheHits, fetches)
	}
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n")

	urls := make([]string, 0, len(m.rows))
	for u := range m.rows {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	for _, u := range urls {
		b.WriteString(renderRow(m.rows[u]))
		b.WriteString("\n")
	}
	b.WriteString(SubtleStyle.Render("q to quit"))
	return b.String()
}

func renderRow(r *row) string {
	var icon, label string
	style := PendingStyle

	switch r.phase {
	case phasePending:
		icon, label = "…", "pending"
	case phaseFetching:
		icon, label = "↓", "fetching"
		if r.totalObjects > 0 {
			label = fmt.Sprintf("fetching %d/%d", r.objects, r.totalObjects)
		}
	case phaseFetched:
		icon, label, style = "✓", "fetched", OKStyle
		if r.fromCache {
			label = "fetched (cache)"
		}
	case phaseUpdating:
		icon, label = "↻", "updating"
	case phaseUpdated:
		icon, label, style = "✓", "updated", OKStyle
	case phaseFailed:
		icon, label, style = "✗", "failed: "+errText(r.err), ErrStyle
	}

	line := fmt.Sprintf("%s %-60s %s", icon, r.specifierURL, label)
	if r.duration > 0 {
		line += " " + SubtleStyle.Render(r.duration.Round(time.Millisecond).String())
	}
	return style.Render(line)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
