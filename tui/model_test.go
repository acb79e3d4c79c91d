// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gizzahub/gzh-repocache/delegate"
	"github.com/gizzahub/gzh-repocache/provider"
)

func TestModelTracksFetchLifecycle(t *testing.T) {
	m := NewModel()

	next, _ := m.Update(willFetchMsg{url: "https://example.com/org/foo"})
	m = next.(Model)
	if got := m.rowFor("https://example.com/org/foo").phase; got != phaseFetching {
		t.Fatalf("phase after WillFetch = %v, want phaseFetching", got)
	}

	next, _ = m.Update(didFetchMsg{
		url:      "https://example.com/org/foo",
		result:   delegate.Result{Details: provider.FetchDetails{FromCache: true}},
		duration: 2 * time.Second,
	})
	m = next.(Model)
	r := m.rowFor("https://example.com/org/foo")
	if r.phase != phaseFetched || !r.fromCache {
		t.Errorf("row after DidFetch = %+v, want phaseFetched with fromCache=true", r)
	}
}

func TestModelTracksFetchFailure(t *testing.T) {
	m := NewModel()
	next, _ := m.Update(willFetchMsg{url: "https://example.com/org/bad"})
	m = next.(Model)

	next, _ = m.Update(didFetchMsg{
		url:    "https://example.com/org/bad",
		result: delegate.Result{Err: errors.New("not a repository")},
	})
	m = next.(Model)

	r := m.rowFor("https://example.com/org/bad")
	if r.phase != phaseFailed || r.err == nil {
		t.Errorf("row after failed DidFetch = %+v, want phaseFailed with non-nil err", r)
	}
}

func TestModelTracksUpdateLifecycle(t *testing.T) {
	m := NewModel()
	next, _ := m.Update(willUpdateMsg{url: "https://example.com/org/foo"})
	m = next.(Model)
	if got := m.rowFor("https://example.com/org/foo").phase; got != phaseUpdating {
		t.Fatalf("phase after WillUpdate = %v, want phaseUpdating", got)
	}

	next, _ = m.Update(didUpdateMsg{url: "https://example.com/org/foo", duration: time.Second})
	m = next.(Model)
	if got := m.rowFor("https://example.com/org/foo").phase; got != phaseUpdated {
		t.Errorf("phase after DidUpdate = %v, want phaseUpdated", got)
	}
}

func TestViewRendersCacheHitRatio(t *testing.T) {
	m := NewModel()

	for _, fx := range []struct {
		url       string
		fromCache bool
	}{
		{"https://example.com/org/a", true},
		{"https://example.com/org/b", false},
		{"https://example.com/org/c", true},
	} {
		next, _ := m.Update(willFetchMsg{url: fx.url})
		m = next.(Model)
		next, _ = m.Update(didFetchMsg{
			url:    fx.url,
			result: delegate.Result{Details: provider.FetchDetails{FromCache: fx.fromCache}},
		})
		m = next.(Model)
	}

	out := m.View()
	if !strings.Contains(out, "cache 2/3") {
		t.Errorf("View() = %q, want header reporting cache 2/3", out)
	}
}

func TestViewOmitsCacheRatioBeforeAnyFetchCompletes(t *testing.T) {
	m := NewModel()
	next, _ := m.Update(willFetchMsg{url: "https://example.com/org/a"})
	m = next.(Model)

	if out := m.View(); strings.Contains(out, ", cache ") {
		t.Errorf("View() = %q, want no cache ratio before a fetch completes", out)
	}
}

func TestViewRendersEveryRow(t *testing.T) {
	m := NewModel()
	next, _ := m.Update(willFetchMsg{url: "https://example.com/org/a"})
	m = next.(Model)
	next, _ = m.Update(willFetchMsg{url: "https://example.com/org/b"})
	m = next.(Model)

	out := m.View()
	if !strings.Contains(out, "org/a") || !strings.Contains(out, "org/b") {
		t.Errorf("View() = %q, want both rows rendered", out)
	}
}
