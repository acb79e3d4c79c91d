// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gizzahub/gzh-repocache/delegate"
	"github.com/gizzahub/gzh-repocache/provider"
)

type willFetchMsg struct {
	identity delegate.Identity
	url      string
	details  provider.FetchDetails
}

type fetchingMsg struct {
	identity       delegate.Identity
	url            string
	objectsFetched int
	totalObjects   int
}

type didFetchMsg struct {
	identity delegate.Identity
	url      string
	result   delegate.Result
	duration time.Duration
}

type willUpdateMsg struct {
	identity delegate.Identity
	url      string
}

type didUpdateMsg struct {
	identity delegate.Identity
	url      string
	err      error
	duration time.Duration
}

// Delegate adapts delegate.Delegate to a running bubbletea program:
// every event becomes a tea.Msg sent via Program.Send, which is safe
// to call from any goroutine and never blocks the manager that calls
// it.
type Delegate struct {
	program *tea.Program
}

// NewDelegate returns a Delegate that forwards events to program.
func NewDelegate(program *tea.Program) *Delegate {
	return &Delegate{program: program}
}

var _ delegate.Delegate = (*Delegate)(nil)

func (d *Delegate) WillFetch(identity delegate.Identity, specifierURL string, details provider.FetchDetails) {
	d.program.Send(willFetchMsg{identity: identity, url: specifierURL, details: details})
}

func (d *Delegate) Fetching(identity delegate.Identity, specifierURL string, objectsFetched, totalObjects int) {
	d.program.Send(fetchingMsg{identity: identity, url: specifierURL, objectsFetched: objectsFetched, totalObjects: totalObjects})
}

func (d *Delegate) DidFetch(identity delegate.Identity, specifierURL string, result delegate.Result, duration time.Duration) {
	d.program.Send(didFetchMsg{identity: identity, url: specifierURL, result: result, duration: duration})
}

func (d *Delegate) WillUpdate(identity delegate.Identity, specifierURL string) {
	d.program.Send(willUpdateMsg{identity: identity, url: specifierURL})
}

func (d *Delegate) DidUpdate(identity delegate.Identity, specifierURL string, err error, duration time.Duration) {
	d.program.Send(didUpdateMsg{identity: identity, url: specifierURL, err: err, duration: duration})
}
