// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// realDir resolves symlinks in dir, falling back to dir itself if that
// fails. macOS puts t.TempDir() under /var, a symlink to /private/var,
// and git resolves paths before comparing them against its working
// directory, so commands run against the unresolved path can disagree
// with git about whether a file changed.
func realDir(t *testing.T, dir string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return dir
	}
	return resolved
}

// TempGitRepo creates a temporary git repository.
// Returns the repository path. Automatically cleaned up.
func TempGitRepo(t *testing.T) string {
	t.Helper()
	dir := realDir(t, t.TempDir())

	// Initialize git repo.
	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to init git repo: %v", err)
	}

	// Configure git user for commits.
	cmd = exec.Command("git", "config", "user.email", "test@test.com")
	cmd.Dir = dir
	_ = cmd.Run() // Ignore config errors in test setup

	cmd = exec.Command("git", "config", "user.name", "Test")
	cmd.Dir = dir
	_ = cmd.Run() // Ignore config errors in test setup

	return dir
}

// TempGitRepoWithCommit creates a temp git repo with an initial commit.
func TempGitRepoWithCommit(t *testing.T) string {
	t.Helper()
	dir := TempGitRepo(t)

	// Create a file and commit.
	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Test"), 0o644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}

	cmd := exec.Command("git", "add", ".")
	cmd.Dir = dir
	_ = cmd.Run() // Ignore add errors in test setup

	cmd = exec.Command("git", "commit", "-m", "Initial commit")
	cmd.Dir = dir
	_ = cmd.Run() // Ignore commit errors in test setup

	return dir
}

// TempGitRepoWithTag creates a temp git repo with an initial commit and a
// tag pointing at it, usable as a clone source for revision-pinned
// lookups.
func TempGitRepoWithTag(t *testing.T, tag string) string {
	t.Helper()
	dir := TempGitRepoWithCommit(t)

	cmd := exec.Command("git", "tag", tag)
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create tag %s: %v", tag, err)
	}

	return dir
}

// TempGitRepoWithBranch creates a temp git repo with an initial commit and a branch.
func TempGitRepoWithBranch(t *testing.T, branchName string) string {
	t.Helper()
	dir := TempGitRepoWithCommit(t)

	cmd := exec.Command("git", "checkout", "-b", branchName)
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create branch %s: %v", branchName, err)
	}

	return dir
}
