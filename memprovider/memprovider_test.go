package memprovider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gizzahub/gzh-repocache/internal/xerrors"
	"github.com/gizzahub/gzh-repocache/provider"
)

func TestFetchUnknownRepositoryIsInvalid(t *testing.T) {
	p := New()
	dir := t.TempDir()

	err := p.Fetch(context.Background(), provider.Location{URL: "https://example.com/bad/dummy"}, filepath.Join(dir, "clone"), nil)
	if !xerrors.Is(err, xerrors.InvalidRepository) {
		t.Fatalf("Fetch() on unregistered repo error = %v, want InvalidRepository", err)
	}
}

func TestFetchThenCreateWorkingCopy(t *testing.T) {
	p := New()
	p.Register("https://example.com/org/dummy", Fixture{
		Tags:  []string{"1.0.0"},
		Files: map[string]string{"README.txt": "Hi"},
	})

	dir := t.TempDir()
	clonePath := filepath.Join(dir, "clone")
	loc := provider.Location{URL: "https://example.com/org/dummy"}

	if err := p.Fetch(context.Background(), loc, clonePath, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !p.RepositoryExists(context.Background(), clonePath) {
		t.Fatalf("RepositoryExists() = false after Fetch")
	}

	repo, err := p.Open(context.Background(), loc, clonePath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	tags, err := repo.Tags(context.Background())
	if err != nil {
		t.Fatalf("Tags() error = %v", err)
	}
	if len(tags) != 1 || tags[0] != "1.0.0" {
		t.Fatalf("Tags() = %v, want [1.0.0]", tags)
	}

	checkoutPath := filepath.Join(dir, "checkout")
	wc, err := p.CreateWorkingCopy(context.Background(), loc, clonePath, checkoutPath, true)
	if err != nil {
		t.Fatalf("CreateWorkingCopy() error = %v", err)
	}
	if wc == nil {
		t.Fatalf("CreateWorkingCopy() returned nil checkout")
	}

	data, err := os.ReadFile(filepath.Join(checkoutPath, "README.txt"))
	if err != nil {
		t.Fatalf("ReadFile(README.txt) error = %v", err)
	}
	if string(data) != "Hi" {
		t.Fatalf("README.txt content = %q, want %q", string(data), "Hi")
	}
}

func TestFetchBlocksUntilCancelled(t *testing.T) {
	p := New()
	block := make(chan struct{})
	p.Register("https://example.com/org/slow", Fixture{
		Tags:  []string{"1.0.0"},
		Files: map[string]string{"README.txt": "Hi"},
		Block: block,
	})

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- p.Fetch(ctx, provider.Location{URL: "https://example.com/org/slow"}, filepath.Join(dir, "clone"), nil)
	}()

	select {
	case <-done:
		t.Fatalf("Fetch() returned before cancellation, want it to block")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if !xerrors.Is(err, xerrors.Cancelled) {
			t.Fatalf("Fetch() after cancel error = %v, want Cancelled", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Fetch() did not observe cancellation in time")
	}
}

func TestFetchFastPathsUnaffectedByBlockedFixtures(t *testing.T) {
	p := New()
	for i := 0; i < 5; i++ {
		p.Register(fastURL(i), Fixture{Tags: []string{"1.0.0"}, Files: map[string]string{"README.txt": "Hi"}})
	}
	for i := 0; i < 5; i++ {
		p.Register(slowURL(i), Fixture{Tags: []string{"1.0.0"}, Block: make(chan struct{})})
	}

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := p.Fetch(ctx, provider.Location{URL: fastURL(i)}, filepath.Join(dir, fastURL(i)), nil); err != nil {
			t.Fatalf("fast Fetch(%d) error = %v", i, err)
		}
	}

	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		i := i
		go func() {
			results <- p.Fetch(ctx, provider.Location{URL: slowURL(i)}, filepath.Join(dir, slowURL(i)), nil)
		}()
	}

	cancel()
	for i := 0; i < 5; i++ {
		if err := <-results; !xerrors.Is(err, xerrors.Cancelled) {
			t.Fatalf("slow Fetch error = %v, want Cancelled", err)
		}
	}
}

func fastURL(i int) string { return "https://example.com/org/fast-" + string(rune('a'+i)) }
func slowURL(i int) string { return "https://example.com/org/slow-" + string(rune('a'+i)) }

func TestOpenFileView(t *testing.T) {
	p := New()
	p.Register("https://example.com/org/dummy", Fixture{
		Tags:  []string{"1.0.0"},
		Files: map[string]string{"README.txt": "Hi", "src/main.go": "package main"},
	})
	dir := t.TempDir()
	clonePath := filepath.Join(dir, "clone")
	loc := provider.Location{URL: "https://example.com/org/dummy"}
	if err := p.Fetch(context.Background(), loc, clonePath, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	repo, err := p.Open(context.Background(), loc, clonePath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	view, err := repo.OpenFileView(context.Background(), "HEAD")
	if err != nil {
		t.Fatalf("OpenFileView() error = %v", err)
	}
	data, err := view.Open("README.txt")
	if err != nil {
		t.Fatalf("view.Open(README.txt) error = %v", err)
	}
	data.Close()
}

func TestWorkingCheckoutUncommittedChanges(t *testing.T) {
	p := New()
	p.Register("https://example.com/org/dummy", Fixture{
		Tags:  []string{"1.0.0"},
		Files: map[string]string{"README.txt": "Hi"},
	})
	dir := t.TempDir()
	loc := provider.Location{URL: "https://example.com/org/dummy"}
	clonePath := filepath.Join(dir, "clone")
	if err := p.Fetch(context.Background(), loc, clonePath, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	wcAny, err := p.CreateWorkingCopy(context.Background(), loc, clonePath, filepath.Join(dir, "checkout"), true)
	if err != nil {
		t.Fatalf("CreateWorkingCopy() error = %v", err)
	}
	wc := wcAny.(*workingCheckout)

	dirty, err := wc.HasUncommittedChanges(context.Background())
	if err != nil || dirty {
		t.Fatalf("HasUncommittedChanges() = %v, %v; want false, nil", dirty, err)
	}

	wc.MarkUntracked("scratch.txt")
	dirty, err = wc.HasUncommittedChanges(context.Background())
	if err != nil || !dirty {
		t.Fatalf("HasUncommittedChanges() after untracked file = %v, %v; want true, nil", dirty, err)
	}

	if err := wc.Checkout(context.Background(), "1.0.0"); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	dirty, _ = wc.HasUncommittedChanges(context.Background())
	if dirty {
		t.Fatalf("HasUncommittedChanges() after Checkout() = true, want changes discarded")
	}
}

func TestCancelIsANoOp(t *testing.T) {
	p := New()
	if err := p.Cancel(context.Background(), time.Now()); err != nil {
		t.Fatalf("Cancel() error = %v, want nil", err)
	}
}
