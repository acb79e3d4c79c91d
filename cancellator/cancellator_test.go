package cancellator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingCooperator struct {
	calls int32
	err   error
}

func (c *countingCooperator) Cancel(ctx context.Context, deadline time.Time) error {
	atomic.AddInt32(&c.calls, 1)
	return c.err
}

func TestRegisterAndCancel(t *testing.T) {
	r := New()
	a := &countingCooperator{}
	b := &countingCooperator{}

	r.Register("a", a)
	r.Register("b", b)

	if got := r.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	count, err := r.Cancel(context.Background(), time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("Cancel() cancelledCount = %d, want 2", count)
	}
	if atomic.LoadInt32(&a.calls) != 1 || atomic.LoadInt32(&b.calls) != 1 {
		t.Fatalf("expected both cooperators to be cancelled exactly once")
	}
}

func TestUnregister(t *testing.T) {
	r := New()
	a := &countingCooperator{}
	unregister := r.Register("a", a)
	unregister()

	if got := r.Len(); got != 0 {
		t.Fatalf("Len() after unregister = %d, want 0", got)
	}

	count, _ := r.Cancel(context.Background(), time.Now())
	if count != 0 {
		t.Fatalf("Cancel() cancelledCount = %d, want 0 for unregistered cooperator", count)
	}
}

func TestCancelReportsFirstError(t *testing.T) {
	r := New()
	wantErr := errors.New("boom")
	r.Register("failing", &countingCooperator{err: wantErr})
	r.Register("ok", &countingCooperator{})

	count, err := r.Cancel(context.Background(), time.Now())
	if count != 1 {
		t.Fatalf("cancelledCount = %d, want 1 (only the succeeding cooperator)", count)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("Cancel() error = %v, want wrapping %v", err, wantErr)
	}
}
