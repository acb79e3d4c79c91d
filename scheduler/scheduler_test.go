package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gizzahub/gzh-repocache/cancellator"
)

func TestDoSingleFlightsConcurrentCallersOfSameKey(t *testing.T) {
	s := New(4, nil, "")
	var calls int32

	release := make(chan struct{})
	start := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "ok", nil
	}

	const n = 20
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			v, err := s.Do(context.Background(), "same-key", start)
			if err == nil && v != "ok" {
				err = context.Canceled
			}
			results <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < n; i++ {
		if err := <-results; err != nil {
			t.Fatalf("Do() error = %v", err)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("fn invoked %d times, want exactly 1 for single-flighted key", got)
	}
}

func TestDoRunsDistinctKeysIndependently(t *testing.T) {
	s := New(4, nil, "")
	var calls int32
	fn := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	}

	if _, err := s.Do(context.Background(), "a", fn); err != nil {
		t.Fatalf("Do(a) error = %v", err)
	}
	if _, err := s.Do(context.Background(), "b", fn); err != nil {
		t.Fatalf("Do(b) error = %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("fn invoked %d times for distinct keys, want 2", got)
	}
}

func TestCancelStopsInFlightOperations(t *testing.T) {
	reg := cancellator.New()
	s := New(4, reg, "test-scheduler")
	defer s.Close()

	block := make(chan struct{})
	fn := func(ctx context.Context) (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-block:
			return "ok", nil
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Do(context.Background(), "slow", fn)
		done <- err
	}()

	// Give Do time to register the in-flight operation.
	for i := 0; i < 100 && s.InFlight() == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	if s.InFlight() != 1 {
		t.Fatalf("InFlight() = %d, want 1 before cancel", s.InFlight())
	}

	count, err := reg.Cancel(context.Background(), time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("reg.Cancel() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("cancelledCount = %d, want 1", count)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("Do() after cancel error = nil, want context.Canceled")
		}
	case <-time.After(time.Second):
		t.Fatalf("Do() did not observe cancellation in time")
	}
}
