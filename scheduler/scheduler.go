// Package scheduler runs provider operations with at most one
// in-flight execution per storage key, completion fanned out to every
// attached caller, a configurable bound on overall concurrency, and
// cooperative cancellation.
//
// De-duplication is golang.org/x/sync/singleflight; bounded
// concurrency is golang.org/x/sync/errgroup with SetLimit.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/gizzahub/gzh-repocache/cancellator"
)

// Func is a unit of schedulable work. Implementations must honor ctx
// cancellation promptly; a Func that ignores ctx leaks a goroutine
// past Cancel's deadline rather than blocking the scheduler.
type Func func(ctx context.Context) (interface{}, error)

type result struct {
	v   interface{}
	err error
}

// Scheduler single-flights and bounds the concurrency of Func calls
// keyed by storage key. The zero value is not usable; use New.
type Scheduler struct {
	eg     *errgroup.Group
	flight singleflight.Group

	mu         sync.Mutex
	cancelFns  map[string]context.CancelFunc
	unregister func()
}

// New creates a Scheduler bounded to maxConcurrentOperations
// simultaneous Func executions (0 or negative means unbounded). If
// registry is non-nil, the scheduler registers itself under name so a
// process-wide Cancel(deadline) reaches it.
func New(maxConcurrentOperations int, registry *cancellator.Registry, name string) *Scheduler {
	eg := &errgroup.Group{}
	if maxConcurrentOperations > 0 {
		eg.SetLimit(maxConcurrentOperations)
	}

	s := &Scheduler{
		eg:        eg,
		cancelFns: make(map[string]context.CancelFunc),
	}
	if registry != nil {
		s.unregister = registry.Register(name, s)
	}
	return s
}

// Close deregisters the scheduler from its cancellator registry, if
// any. It does not wait for in-flight operations to finish.
func (s *Scheduler) Close() {
	if s.unregister != nil {
		s.unregister()
	}
}

// Do runs fn under single-flight de-duplication for key: concurrent
// callers sharing a key share one execution of fn and its outcome.
// The execution itself is gated by the
// scheduler's bounded worker pool and runs under a context the
// scheduler can cancel via Cancel, independent of any individual
// caller's ctx (a waiter cancelling its own ctx must not cancel the
// shared operation for other waiters).
func (s *Scheduler) Do(ctx context.Context, key string, fn Func) (interface{}, error) {
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		opCtx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		s.cancelFns[key] = cancel
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.cancelFns, key)
			s.mu.Unlock()
			cancel()
		}()

		done := make(chan result, 1)
		s.eg.Go(func() error {
			v, err := fn(opCtx)
			done <- result{v, err}
			return nil
		})

		select {
		case r := <-done:
			return r.v, r.err
		case <-opCtx.Done():
			return nil, opCtx.Err()
		}
	})

	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel implements cancellator.Cooperator: every currently in-flight
// operation's context is cancelled immediately. deadline is accepted
// for interface compatibility; operations that do not observe
// cancellation promptly are abandoned by Do's caller-side select
// rather than forcibly killed.
func (s *Scheduler) Cancel(ctx context.Context, deadline time.Time) error {
	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.cancelFns))
	for _, c := range s.cancelFns {
		cancels = append(cancels, c)
	}
	s.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	return nil
}

// InFlight reports how many distinct keys currently have an operation
// running, for tests and diagnostics.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancelFns)
}
