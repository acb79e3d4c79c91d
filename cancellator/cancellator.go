// Package cancellator implements a process-wide cooperative
// cancellation registry: named Cooperators, each responsible for
// polling its own cancel signal at safe points, fanned out by a single
// Cancel(deadline) call.
package cancellator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Cooperator is anything that can be asked to stop in-flight work
// cooperatively. Implementations must poll for cancellation at safe
// points rather than being forcibly killed; the registry only signals
// intent; deadline is a hint for abandoning unfinished work.
type Cooperator interface {
	Cancel(ctx context.Context, deadline time.Time) error
}

// Registry is a named set of Cooperators that can be cancelled as a
// group. The zero value is not usable; use New.
//
// A single process-wide Default registry is provided for production
// wiring; tests construct their own Registry with New to stay isolated
// from each other.
type Registry struct {
	mu     sync.Mutex
	byName map[string]Cooperator
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]Cooperator)}
}

// Default is the process-wide registry production code registers
// against, e.g. a RepositoryManager registering itself under a stable
// name.
var Default = New()

// Register adds a Cooperator under name. Registering a second
// Cooperator under the same name replaces the first. The returned func
// deregisters it.
func (r *Registry) Register(name string, c Cooperator) (unregister func()) {
	r.mu.Lock()
	r.byName[name] = c
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.byName, name)
		r.mu.Unlock()
	}
}

// Cancel fans out a cancellation request, with the given deadline, to
// every currently registered Cooperator and returns how many were
// cancelled along with the first error encountered, if any. Cancelling
// an already-finished Cooperator is a no-op from its perspective.
func (r *Registry) Cancel(ctx context.Context, deadline time.Time) (cancelledCount int, err error) {
	r.mu.Lock()
	targets := make(map[string]Cooperator, len(r.byName))
	for name, c := range r.byName {
		targets[name] = c
	}
	r.mu.Unlock()

	var firstErr error
	for name, c := range targets {
		if cerr := c.Cancel(ctx, deadline); cerr != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("cancellator: %s: %w", name, cerr)
			}
			continue
		}
		cancelledCount++
	}

	return cancelledCount, firstErr
}

// Len reports how many Cooperators are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byName)
}
