package delegate

import (
	"testing"
	"time"

	"github.com/gizzahub/gzh-repocache/provider"
)

type recordingDelegate struct {
	events []string
}

func (r *recordingDelegate) WillFetch(id Identity, url string, details provider.FetchDetails) {
	r.events = append(r.events, "will_fetch:"+string(id))
}

func (r *recordingDelegate) Fetching(id Identity, url string, got, total int) {
	r.events = append(r.events, "fetching:"+string(id))
}

func (r *recordingDelegate) DidFetch(id Identity, url string, result Result, d time.Duration) {
	r.events = append(r.events, "did_fetch:"+string(id))
}

func (r *recordingDelegate) WillUpdate(id Identity, url string) {
	r.events = append(r.events, "will_update:"+string(id))
}

func (r *recordingDelegate) DidUpdate(id Identity, url string, err error, d time.Duration) {
	r.events = append(r.events, "did_update:"+string(id))
}

func TestFanoutDispatchesToAllMembers(t *testing.T) {
	a := &recordingDelegate{}
	b := &recordingDelegate{}
	fan := Fanout{a, b}

	fan.WillFetch("pkg", "https://example.com/org/pkg", provider.FetchDetails{})
	fan.DidFetch("pkg", "https://example.com/org/pkg", Result{}, time.Millisecond)

	for _, d := range []*recordingDelegate{a, b} {
		if len(d.events) != 2 || d.events[0] != "will_fetch:pkg" || d.events[1] != "did_fetch:pkg" {
			t.Fatalf("events = %v, want [will_fetch:pkg did_fetch:pkg]", d.events)
		}
	}
}

func TestNopDelegateSatisfiesInterface(t *testing.T) {
	var d Delegate = NopDelegate{}
	d.WillFetch("pkg", "url", provider.FetchDetails{})
	d.Fetching("pkg", "url", 0, 0)
	d.DidFetch("pkg", "url", Result{}, 0)
	d.WillUpdate("pkg", "url")
	d.DidUpdate("pkg", "url", nil, 0)
}
