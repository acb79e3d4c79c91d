// Package delegate defines the lifecycle/progress observer contract
// the manager notifies during a lookup: WillFetch, Fetching (optional
// progress), DidFetch, WillUpdate, DidUpdate.
//
// Events for a given storage key are totally ordered (WillFetch before
// DidFetch; WillUpdate before DidUpdate); across different keys no
// ordering is guaranteed. A Delegate must not block arbitrarily; the
// manager offers no back-pressure.
package delegate

import (
	"time"

	"github.com/gizzahub/gzh-repocache/provider"
)

// Identity is the opaque package identity a caller passes to lookup;
// the manager never interprets it, only forwards it to delegate calls.
type Identity string

// Result carries either a successful FetchDetails or an error from a
// fetch/update attempt.
type Result struct {
	Details provider.FetchDetails
	Err     error
}

// Delegate receives lifecycle notifications for lookups. All methods
// may be called concurrently across different storage keys; nil
// methods are not supported, use NopDelegate to get safe no-ops for
// whichever events a caller doesn't care about.
type Delegate interface {
	WillFetch(identity Identity, specifierURL string, details provider.FetchDetails)
	Fetching(identity Identity, specifierURL string, objectsFetched, totalObjects int)
	DidFetch(identity Identity, specifierURL string, result Result, duration time.Duration)
	WillUpdate(identity Identity, specifierURL string)
	DidUpdate(identity Identity, specifierURL string, err error, duration time.Duration)
}

// NopDelegate implements Delegate with no-op methods. Embed it to
// satisfy the interface while overriding only the events a caller
// cares about.
type NopDelegate struct{}

func (NopDelegate) WillFetch(Identity, string, provider.FetchDetails) {}
func (NopDelegate) Fetching(Identity, string, int, int)               {}
func (NopDelegate) DidFetch(Identity, string, Result, time.Duration)  {}
func (NopDelegate) WillUpdate(Identity, string)                       {}
func (NopDelegate) DidUpdate(Identity, string, error, time.Duration)  {}

var _ Delegate = NopDelegate{}

// Fanout dispatches every call to each of its members, in registration
// order.
type Fanout []Delegate

var _ Delegate = Fanout(nil)

func (f Fanout) WillFetch(identity Identity, specifierURL string, details provider.FetchDetails) {
	for _, d := range f {
		d.WillFetch(identity, specifierURL, details)
	}
}

func (f Fanout) Fetching(identity Identity, specifierURL string, objectsFetched, totalObjects int) {
	for _, d := range f {
		d.Fetching(identity, specifierURL, objectsFetched, totalObjects)
	}
}

func (f Fanout) DidFetch(identity Identity, specifierURL string, result Result, duration time.Duration) {
	for _, d := range f {
		d.DidFetch(identity, specifierURL, result, duration)
	}
}

func (f Fanout) WillUpdate(identity Identity, specifierURL string) {
	for _, d := range f {
		d.WillUpdate(identity, specifierURL)
	}
}

func (f Fanout) DidUpdate(identity Identity, specifierURL string, err error, duration time.Duration) {
	for _, d := range f {
		d.DidUpdate(identity, specifierURL, err, duration)
	}
}
