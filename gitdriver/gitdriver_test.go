package gitdriver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/gizzahub/gzh-repocache/internal/testutil"
	"github.com/gizzahub/gzh-repocache/provider"
)

func TestFetchClonesBareRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("requires git binary")
	}
	origin := testutil.TempGitRepoWithTag(t, "v1.0.0")
	clonePath := filepath.Join(t.TempDir(), "clone.git")

	p := New()
	spec := provider.Location{URL: origin, Location: origin, IsLocal: true}
	if err := p.Fetch(context.Background(), spec, clonePath, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !p.RepositoryExists(context.Background(), clonePath) {
		t.Fatalf("RepositoryExists() = false after Fetch")
	}

	valid, err := p.IsValidDirectory(context.Background(), clonePath, nil)
	if err != nil || !valid {
		t.Fatalf("IsValidDirectory() = %v, %v; want true, nil", valid, err)
	}

	repo, err := p.Open(context.Background(), spec, clonePath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	tags, err := repo.Tags(context.Background())
	if err != nil || len(tags) != 1 || tags[0] != "v1.0.0" {
		t.Fatalf("Tags() = %v, %v; want [v1.0.0], nil", tags, err)
	}
}

func TestFetchFailsForMissingOrigin(t *testing.T) {
	if testing.Short() {
		t.Skip("requires git binary")
	}
	p := New()
	spec := provider.Location{URL: filepath.Join(t.TempDir(), "does-not-exist"), IsLocal: true}
	clonePath := filepath.Join(t.TempDir(), "clone.git")

	if err := p.Fetch(context.Background(), spec, clonePath, nil); err == nil {
		t.Fatalf("Fetch() error = nil, want failure for missing origin")
	}
	if p.RepositoryExists(context.Background(), clonePath) {
		t.Fatalf("RepositoryExists() = true, want cleaned up after failed fetch")
	}
}

func TestCreateWorkingCopyFromLocalClone(t *testing.T) {
	if testing.Short() {
		t.Skip("requires git binary")
	}
	origin := testutil.TempGitRepoWithCommit(t)
	clonePath := filepath.Join(t.TempDir(), "clone.git")
	p := New()
	spec := provider.Location{URL: origin, IsLocal: true}
	if err := p.Fetch(context.Background(), spec, clonePath, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	checkoutPath := filepath.Join(t.TempDir(), "work")
	checkout, err := p.CreateWorkingCopy(context.Background(), spec, clonePath, checkoutPath, false)
	if err != nil {
		t.Fatalf("CreateWorkingCopy() error = %v", err)
	}

	if dirty, err := checkout.HasUncommittedChanges(context.Background()); err != nil || dirty {
		t.Fatalf("HasUncommittedChanges() = %v, %v; want false, nil", dirty, err)
	}

	if err := os.WriteFile(filepath.Join(checkoutPath, "scratch.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if dirty, err := checkout.HasUncommittedChanges(context.Background()); err != nil || !dirty {
		t.Fatalf("HasUncommittedChanges() after write = %v, %v; want true, nil", dirty, err)
	}

	ignored, err := checkout.AreIgnored(context.Background(), []string{"scratch.txt", "README.md"})
	if err != nil {
		t.Fatalf("AreIgnored() error = %v", err)
	}
	if ignored[0] || ignored[1] {
		t.Fatalf("AreIgnored() = %v, want both unignored (no .gitignore)", ignored)
	}
}

func TestAreIgnoredHonorsGitignoreAndWhitespace(t *testing.T) {
	if testing.Short() {
		t.Skip("requires git binary")
	}
	origin := testutil.TempGitRepoWithCommit(t)
	clonePath := filepath.Join(t.TempDir(), "clone.git")
	p := New()
	spec := provider.Location{URL: origin, IsLocal: true}
	if err := p.Fetch(context.Background(), spec, clonePath, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// The checkout directory itself contains whitespace; ignore rules
	// must still apply.
	checkoutPath := filepath.Join(t.TempDir(), "work tree")
	checkout, err := p.CreateWorkingCopy(context.Background(), spec, clonePath, checkoutPath, false)
	if err != nil {
		t.Fatalf("CreateWorkingCopy() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(checkoutPath, ".gitignore"), []byte("*.log\n"), 0o644); err != nil {
		t.Fatalf("WriteFile(.gitignore) error = %v", err)
	}
	for _, name := range []string{"build output.log", "notes.txt", "debug.log"} {
		if err := os.WriteFile(filepath.Join(checkoutPath, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}

	ignored, err := checkout.AreIgnored(context.Background(), []string{"build output.log", "notes.txt", "debug.log"})
	if err != nil {
		t.Fatalf("AreIgnored() error = %v", err)
	}
	want := []bool{true, false, true}
	for i, w := range want {
		if ignored[i] != w {
			t.Fatalf("AreIgnored() = %v, want %v (the whitespace path must survive intact)", ignored, want)
		}
	}
}

func TestOpenFileViewReadsBlobContent(t *testing.T) {
	if testing.Short() {
		t.Skip("requires git binary")
	}
	origin := testutil.TempGitRepoWithTag(t, "v1.0.0")
	clonePath := filepath.Join(t.TempDir(), "clone.git")
	p := New()
	spec := provider.Location{URL: origin, IsLocal: true}
	if err := p.Fetch(context.Background(), spec, clonePath, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	repo, err := p.Open(context.Background(), spec, clonePath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	view, err := repo.OpenFileView(context.Background(), "v1.0.0")
	if err != nil {
		t.Fatalf("OpenFileView() error = %v", err)
	}
	content, err := fs.ReadFile(view, "README.md")
	if err != nil {
		t.Fatalf("reading README.md error = %v", err)
	}
	if string(content) != "# Test" {
		t.Fatalf("README.md content = %q, want %q", content, "# Test")
	}
}
