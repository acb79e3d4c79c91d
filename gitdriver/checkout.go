package gitdriver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gizzahub/gzh-repocache/internal/gitcmd"
	"github.com/gizzahub/gzh-repocache/internal/xerrors"
	"github.com/gizzahub/gzh-repocache/provider"
)

// gitWorkingCheckout implements provider.WorkingCheckout against a
// real non-bare working tree.
type gitWorkingCheckout struct {
	exec *gitcmd.Executor
	path string
}

// Tags lists the checkout's tags.
func (c *gitWorkingCheckout) Tags(ctx context.Context) ([]string, error) {
	lines, err := c.exec.RunLines(ctx, c.path, "tag", "--list")
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.ProviderError, c.path)
	}
	return lines, nil
}

// CurrentRevision returns the checkout's current HEAD commit.
func (c *gitWorkingCheckout) CurrentRevision(ctx context.Context) (provider.Revision, error) {
	out, err := c.exec.RunOutput(ctx, c.path, "rev-parse", "HEAD")
	if err != nil {
		return "", xerrors.Wrap(err, xerrors.ProviderError, c.path)
	}
	return provider.Revision(strings.TrimSpace(out)), nil
}

// Fetch refreshes the checkout's remote-tracking refs.
func (c *gitWorkingCheckout) Fetch(ctx context.Context) error {
	result, err := c.exec.RunWithEnv(ctx, c.path, nonInteractiveEnv, "fetch", "--prune", "origin")
	if err != nil {
		return xerrors.Wrap(err, xerrors.ProviderError, c.path)
	}
	if result.ExitCode != 0 {
		if isAuthenticationError(result.Stderr) {
			return xerrors.New(xerrors.InvalidRepository, c.path, "authentication required: "+result.Stderr)
		}
		return xerrors.New(xerrors.ProviderError, c.path, result.Stderr)
	}
	return nil
}

// HasUnpushedCommits reports whether HEAD is ahead of its upstream.
func (c *gitWorkingCheckout) HasUnpushedCommits(ctx context.Context) (bool, error) {
	out, err := c.exec.RunOutput(ctx, c.path, "rev-list", "--left-right", "--count", "HEAD...@{upstream}")
	if err != nil {
		// No upstream configured: nothing to push against.
		return false, nil
	}
	parts := strings.Fields(out)
	return len(parts) == 2 && parts[0] != "0", nil
}

// HasUncommittedChanges reports true for any staged or unstaged change,
// including untracked files.
func (c *gitWorkingCheckout) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := c.exec.RunOutput(ctx, c.path, "status", "--porcelain")
	if err != nil {
		return false, xerrors.Wrap(err, xerrors.ProviderError, c.path)
	}
	return strings.TrimSpace(out) != "", nil
}

// Checkout switches to ref, silently discarding uncommitted changes.
func (c *gitWorkingCheckout) Checkout(ctx context.Context, ref string) error {
	result, err := c.exec.Run(ctx, c.path, "checkout", "--force", ref)
	if err != nil {
		return xerrors.Wrap(err, xerrors.ProviderError, c.path)
	}
	if result.ExitCode != 0 {
		return xerrors.New(xerrors.InvalidRepository, c.path, result.Stderr)
	}
	return nil
}

// CheckoutNewBranch creates and switches to a new branch name. It fails
// if the branch already exists.
func (c *gitWorkingCheckout) CheckoutNewBranch(ctx context.Context, name string) error {
	if err := gitcmd.SanitizeBranchName(name); err != nil {
		return xerrors.Wrap(err, xerrors.InvalidRepository, name)
	}

	result, err := c.exec.Run(ctx, c.path, "checkout", "-b", name)
	if err != nil {
		return xerrors.Wrap(err, xerrors.ProviderError, c.path)
	}
	if result.ExitCode != 0 {
		return xerrors.New(xerrors.ProviderError, c.path, result.Stderr)
	}
	return nil
}

// Exists reports whether rev is present in this checkout's history.
func (c *gitWorkingCheckout) Exists(ctx context.Context, rev provider.Revision) (bool, error) {
	ok, err := c.exec.RunQuiet(ctx, c.path, "cat-file", "-e", string(rev))
	if err != nil {
		return false, xerrors.Wrap(err, xerrors.ProviderError, c.path)
	}
	return ok, nil
}

// IsAlternateObjectStoreValid checks that this checkout's shared-object
// link (from a --shared clone) still points at expectedPath's object
// store, by reading objects/info/alternates directly.
func (c *gitWorkingCheckout) IsAlternateObjectStoreValid(ctx context.Context, expectedPath string) (bool, error) {
	gitDir, err := c.exec.RunOutput(ctx, c.path, "rev-parse", "--git-path", "objects/info/alternates")
	if err != nil {
		return false, xerrors.Wrap(err, xerrors.ProviderError, c.path)
	}
	alternatesPath := strings.TrimSpace(gitDir)
	if !filepath.IsAbs(alternatesPath) {
		alternatesPath = filepath.Join(c.path, alternatesPath)
	}

	data, err := os.ReadFile(alternatesPath)
	if err != nil {
		return false, nil
	}

	expectedObjects := filepath.Join(expectedPath, "objects")
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(c.path, line)
		}
		if filepath.Clean(line) == filepath.Clean(expectedObjects) {
			return true, nil
		}
	}
	return false, nil
}

// AreIgnored reports, for each of paths, whether this checkout's
// ignore rules exclude it. Each path is passed as its own argv
// element (not through a shell), so embedded whitespace survives
// intact without needing stdin; git prints each matching path on its
// own stdout line.
func (c *gitWorkingCheckout) AreIgnored(ctx context.Context, paths []string) ([]bool, error) {
	result := make([]bool, len(paths))
	if len(paths) == 0 {
		return result, nil
	}

	args := append([]string{"check-ignore", "--"}, paths...)
	gitResult, err := c.exec.Run(ctx, c.path, args...)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.ProviderError, c.path)
	}
	// Exit code 0 means at least one path matched, 1 means none did;
	// both are normal outcomes, not execution failures.
	if gitResult.ExitCode != 0 && gitResult.ExitCode != 1 {
		return nil, xerrors.New(xerrors.ProviderError, c.path, gitResult.Stderr)
	}

	ignored := make(map[string]bool)
	for _, p := range strings.Split(gitResult.Stdout, "\n") {
		if p != "" {
			ignored[p] = true
		}
	}
	for i, p := range paths {
		result[i] = ignored[p]
	}
	return result, nil
}
