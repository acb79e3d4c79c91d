package gitdriver

import (
	"context"
	"io/fs"
	"strings"

	"github.com/gizzahub/gzh-repocache/internal/gitcmd"
	"github.com/gizzahub/gzh-repocache/internal/xerrors"
	"github.com/gizzahub/gzh-repocache/provider"
)

// gitRepository is the read-only provider.Repository view onto a bare
// clone at path.
type gitRepository struct {
	exec *gitcmd.Executor
	path string
}

// Tags lists the repository's tags.
func (r *gitRepository) Tags(ctx context.Context) ([]string, error) {
	lines, err := r.exec.RunLines(ctx, r.path, "tag", "--list")
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.ProviderError, r.path)
	}
	return lines, nil
}

// ResolveRevision resolves ref to its commit hash.
func (r *gitRepository) ResolveRevision(ctx context.Context, ref string) (provider.Revision, error) {
	out, err := r.exec.RunOutput(ctx, r.path, "rev-parse", ref)
	if err != nil {
		return "", xerrors.New(xerrors.InvalidRepository, r.path, "unknown revision "+ref)
	}
	return provider.Revision(strings.TrimSpace(out)), nil
}

// Exists reports whether rev is present in the clone's object store.
func (r *gitRepository) Exists(ctx context.Context, rev provider.Revision) (bool, error) {
	ok, err := r.exec.RunQuiet(ctx, r.path, "cat-file", "-e", string(rev))
	if err != nil {
		return false, xerrors.Wrap(err, xerrors.ProviderError, r.path)
	}
	return ok, nil
}

// Fetch refreshes this bare clone's objects from its configured origin.
func (r *gitRepository) Fetch(ctx context.Context) error {
	result, err := r.exec.RunWithEnv(ctx, r.path, nonInteractiveEnv, "fetch", "--prune", "origin")
	if err != nil {
		return xerrors.Wrap(err, xerrors.ProviderError, r.path)
	}
	if result.ExitCode != 0 {
		if isAuthenticationError(result.Stderr) {
			return xerrors.New(xerrors.InvalidRepository, r.path, "authentication required: "+result.Stderr)
		}
		return xerrors.New(xerrors.ProviderError, r.path, result.Stderr)
	}
	return nil
}

// OpenFileView exposes the tree at ref as a read-only fs.FS, backed by
// `git ls-tree`/`git show` against the bare clone; no working tree is
// materialized.
func (r *gitRepository) OpenFileView(ctx context.Context, ref string) (fs.FS, error) {
	if _, err := r.ResolveRevision(ctx, ref); err != nil {
		return nil, err
	}
	return &treeFS{ctx: ctx, exec: r.exec, repoPath: r.path, ref: ref}, nil
}
