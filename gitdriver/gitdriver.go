// Package gitdriver is the real, git-CLI-backed implementation of
// provider.Provider. It shells out to the git binary through
// internal/gitcmd.Executor and, where a matching forge.Client was
// registered, consults it for a cheap existence check instead of a
// local round trip to the remote.
package gitdriver

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gizzahub/gzh-repocache/forge"
	"github.com/gizzahub/gzh-repocache/internal/gitcmd"
	"github.com/gizzahub/gzh-repocache/internal/xerrors"
	"github.com/gizzahub/gzh-repocache/provider"
)

// nonInteractiveEnv disables git's credential prompts so an
// unreachable private remote fails fast instead of hanging.
var nonInteractiveEnv = []string{"GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS="}

// authErrorPatterns are stderr substrings that indicate a fetch failed
// for lack of credentials rather than because the repository is gone.
var authErrorPatterns = []string{
	"could not read Username",
	"Authentication failed",
	"terminal prompts disabled",
	"could not read Password",
	"Invalid username or password",
	"remote: HTTP Basic: Access denied",
}

func isAuthenticationError(stderr string) bool {
	for _, pattern := range authErrorPatterns {
		if strings.Contains(stderr, pattern) {
			return true
		}
	}
	return false
}

// Provider implements provider.Provider against the git CLI.
type Provider struct {
	exec         *gitcmd.Executor
	forgeClients map[string]forge.Client // keyed by remote hostname
}

// Option configures a Provider at construction time.
type Option func(*Provider)

// WithExecutor swaps in a pre-configured gitcmd.Executor, primarily for
// tests that need a custom git binary or timeout.
func WithExecutor(e *gitcmd.Executor) Option {
	return func(p *Provider) { p.exec = e }
}

// WithForgeClient registers a forge client to consult for
// IsValidDirectory checks against repositories hosted at host (e.g.
// "github.com").
func WithForgeClient(host string, c forge.Client) Option {
	return func(p *Provider) { p.forgeClients[host] = c }
}

// New constructs a Provider. The underlying executor carries no extra
// environment; the clone and fetch calls pass nonInteractiveEnv
// themselves to disable git's interactive credential prompt.
func New(opts ...Option) *Provider {
	p := &Provider{
		exec:         gitcmd.NewExecutor(),
		forgeClients: make(map[string]forge.Client),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch clones spec as a fresh bare repository at destinationPath.
// destinationPath must not already exist.
func (p *Provider) Fetch(ctx context.Context, spec provider.Location, destinationPath string, progress provider.ProgressSink) error {
	if !spec.IsLocal {
		if err := gitcmd.SanitizeURL(spec.URL); err != nil {
			return xerrors.Wrap(err, xerrors.InvalidRepository, spec.URL)
		}
	}
	if err := gitcmd.SanitizePath(destinationPath); err != nil {
		return xerrors.Wrap(err, xerrors.InvalidRepository, destinationPath)
	}

	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return xerrors.Wrap(err, xerrors.IoError, spec.URL)
	}

	result, err := p.exec.RunWithEnv(ctx, "", nonInteractiveEnv, "clone", "--bare", "--progress", spec.URL, destinationPath)
	if err != nil {
		return xerrors.Wrap(err, xerrors.ProviderError, spec.URL)
	}
	if result.ExitCode != 0 {
		os.RemoveAll(destinationPath)
		if isAuthenticationError(result.Stderr) {
			return xerrors.New(xerrors.InvalidRepository, spec.URL, "authentication required: "+result.Stderr)
		}
		return xerrors.New(xerrors.InvalidRepository, spec.URL, result.Stderr)
	}

	if progress != nil {
		progress.OnProgress(1, 1)
	}
	return nil
}

// Copy makes a plain filesystem copy of sourcePath into destinationPath,
// used for shared-cache promotion.
func (p *Provider) Copy(ctx context.Context, sourcePath, destinationPath string) error {
	return copyDir(sourcePath, destinationPath)
}

// RepositoryExists reports whether path is a non-empty directory.
func (p *Provider) RepositoryExists(ctx context.Context, path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// IsValidDirectory checks that path is a usable git repository and,
// when spec is non-nil and a forge client covers its host, that the
// forge still reports the repository as reachable, catching a renamed
// or deleted upstream the local clone alone can't see.
func (p *Provider) IsValidDirectory(ctx context.Context, path string, spec *provider.Location) (bool, error) {
	ok, err := p.exec.RunQuiet(ctx, path, "rev-parse", "--git-dir")
	if err != nil || !ok {
		return false, nil
	}

	if spec == nil || spec.IsLocal {
		return true, nil
	}

	owner, repo, client, ok := p.resolveForClient(spec.URL)
	if !ok {
		return true, nil
	}
	if _, err := client.GetRepository(ctx, owner, repo); err != nil {
		return false, nil
	}
	return true, nil
}

// resolveForClient maps a clone URL to (owner, repo, client) when a
// forge client was registered for its host.
func (p *Provider) resolveForClient(rawURL string) (owner, repo string, client forge.Client, ok bool) {
	host, path := hostAndPath(rawURL)
	c, found := p.forgeClients[host]
	if !found {
		return "", "", nil, false
	}
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 2)
	if len(parts) != 2 {
		return "", "", nil, false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), c, true
}

func hostAndPath(rawURL string) (host, path string) {
	if strings.HasPrefix(rawURL, "git@") {
		// git@host:owner/repo.git
		rest := strings.TrimPrefix(rawURL, "git@")
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) == 2 {
			return parts[0], parts[1]
		}
		return rest, ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	return u.Hostname(), u.Path
}

// Open returns a read-only Repository view onto the bare clone at path.
func (p *Provider) Open(ctx context.Context, spec provider.Location, path string) (provider.Repository, error) {
	return &gitRepository{exec: p.exec, path: path}, nil
}

// CreateWorkingCopy materializes a working tree at destinationPath. If
// editable is false it clones from the local bare clone at sourcePath
// (sharing objects via --shared); if true it clones directly from
// spec's remote, so pushes go straight upstream.
func (p *Provider) CreateWorkingCopy(ctx context.Context, spec provider.Location, sourcePath, destinationPath string, editable bool) (provider.WorkingCheckout, error) {
	if err := gitcmd.SanitizePath(destinationPath); err != nil {
		return nil, xerrors.Wrap(err, xerrors.InvalidRepository, destinationPath)
	}

	origin := sourcePath
	args := []string{"clone"}
	if !editable {
		args = append(args, "--shared")
		if err := gitcmd.SanitizePath(sourcePath); err != nil {
			return nil, xerrors.Wrap(err, xerrors.InvalidRepository, sourcePath)
		}
	} else {
		if err := gitcmd.SanitizeURL(spec.URL); err != nil {
			return nil, xerrors.Wrap(err, xerrors.InvalidRepository, spec.URL)
		}
		origin = spec.URL
	}
	args = append(args, origin, destinationPath)

	result, err := p.exec.RunWithEnv(ctx, "", nonInteractiveEnv, args...)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.ProviderError, spec.URL)
	}
	if result.ExitCode != 0 {
		if isAuthenticationError(result.Stderr) {
			return nil, xerrors.New(xerrors.InvalidRepository, spec.URL, "authentication required: "+result.Stderr)
		}
		return nil, xerrors.New(xerrors.InvalidRepository, spec.URL, result.Stderr)
	}

	return &gitWorkingCheckout{exec: p.exec, path: destinationPath}, nil
}

// WorkingCopyExists reports whether path holds a non-bare git checkout.
func (p *Provider) WorkingCopyExists(ctx context.Context, path string) bool {
	return p.exec.IsGitRepository(ctx, path)
}

// OpenWorkingCopy opens an existing working checkout at path.
func (p *Provider) OpenWorkingCopy(ctx context.Context, path string) (provider.WorkingCheckout, error) {
	if !p.exec.IsGitRepository(ctx, path) {
		return nil, xerrors.New(xerrors.InvalidRepository, path, "not a git working copy")
	}
	return &gitWorkingCheckout{exec: p.exec, path: path}, nil
}

// Cancel is a no-op: every git subprocess is already bound to the
// caller's ctx via exec.CommandContext, so cancellation is cooperative
// at the scheduler layer, not here.
func (p *Provider) Cancel(ctx context.Context, deadline time.Time) error {
	return nil
}
