// Package memprovider is the in-memory reference Provider used by the
// manager's own tests: it simulates fetch, copy, and checkout
// semantics deterministically, without touching the network or a real
// VCS binary, over a synthetic filesystem built from the standard
// library's testing/fstest.MapFS.
//
// Repositories are registered ahead of time with Register; fetches of
// any URL not registered fail with InvalidRepository.
package memprovider

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing/fstest"
	"time"

	"github.com/gizzahub/gzh-repocache/internal/xerrors"
	"github.com/gizzahub/gzh-repocache/provider"
	"github.com/gizzahub/gzh-repocache/specifier"
)

// Fixture describes a registered in-memory repository.
type Fixture struct {
	// Tags are the tags Repository.Tags reports for this repository.
	Tags []string

	// Files maps a path relative to the repository root to its
	// content; these become the README.txt-style tree a working copy
	// materializes.
	Files map[string]string

	// Block, if non-nil, makes Fetch wait on this channel (or ctx
	// cancellation, whichever first) before proceeding. Used to
	// simulate an in-flight fetch that never completes on its own, for
	// cancellation tests.
	Block chan struct{}
}

// marker is the on-disk record Fetch/Copy leave behind so
// IsValidDirectory/Open can recognize a directory as "this fixture's
// clone" without re-contacting the registry that created it (mirrors
// how a real bare clone is self-describing via its refs).
type marker struct {
	URL  string   `json:"url"`
	Tags []string `json:"tags"`
}

const markerFile = ".memrepo.json"
const checkoutMarkerFile = ".memrepo-checkout.json"

// Provider is the in-memory provider.Provider implementation.
type Provider struct {
	mu    sync.Mutex
	repos map[string]Fixture // keyed by canonical storage key

	fetchCalls  int32
	copyCalls   int32
	updateCalls int32
}

// New creates an empty in-memory provider.
func New() *Provider {
	return &Provider{repos: make(map[string]Fixture)}
}

// Register adds (or replaces) the fixture for url.
func (p *Provider) Register(url string, fx Fixture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repos[specifier.StorageKeyForURL(url)] = fx
}

// FetchCalls reports how many times Fetch has been called (counted on
// entry, whether or not the call succeeds or has returned yet), used
// by single-flight tests.
func (p *Provider) FetchCalls() int { return int(atomic.LoadInt32(&p.fetchCalls)) }

// UpdateCalls reports how many times Repository.Fetch (an "update" of
// an already-cloned repository) has been invoked.
func (p *Provider) UpdateCalls() int { return int(atomic.LoadInt32(&p.updateCalls)) }

// CopyCalls reports how many times Copy has been invoked.
func (p *Provider) CopyCalls() int { return int(atomic.LoadInt32(&p.copyCalls)) }

func (p *Provider) lookup(url string) (Fixture, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fx, ok := p.repos[specifier.StorageKeyForURL(url)]
	return fx, ok
}

// Fetch implements provider.Provider.
func (p *Provider) Fetch(ctx context.Context, spec provider.Location, destinationPath string, progress provider.ProgressSink) error {
	atomic.AddInt32(&p.fetchCalls, 1)

	fx, ok := p.lookup(spec.URL)
	if !ok {
		return xerrors.New(xerrors.InvalidRepository, spec.URL, "not a usable repository")
	}

	if fx.Block != nil {
		select {
		case <-ctx.Done():
			return xerrors.Wrap(ctx.Err(), xerrors.Cancelled, spec.URL)
		case <-fx.Block:
		}
	}

	select {
	case <-ctx.Done():
		return xerrors.Wrap(ctx.Err(), xerrors.Cancelled, spec.URL)
	default:
	}

	if progress != nil {
		progress.OnProgress(len(fx.Files), len(fx.Files))
	}

	if err := os.MkdirAll(destinationPath, 0o755); err != nil {
		return xerrors.Wrap(err, xerrors.IoError, spec.URL)
	}

	return writeMarker(destinationPath, markerFile, marker{URL: spec.URL, Tags: fx.Tags})
}

// Copy implements provider.Provider: a byte-for-byte directory copy.
func (p *Provider) Copy(ctx context.Context, sourcePath, destinationPath string) error {
	atomic.AddInt32(&p.copyCalls, 1)

	if err := os.MkdirAll(destinationPath, 0o755); err != nil {
		return xerrors.Wrap(err, xerrors.IoError, sourcePath)
	}

	return filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(sourcePath, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destinationPath, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// RepositoryExists implements provider.Provider.
func (p *Provider) RepositoryExists(ctx context.Context, path string) bool {
	_, err := os.Stat(filepath.Join(path, markerFile))
	return err == nil
}

// IsValidDirectory implements provider.Provider.
func (p *Provider) IsValidDirectory(ctx context.Context, path string, spec *provider.Location) (bool, error) {
	m, err := readMarker(path, markerFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, nil
	}
	if spec != nil && specifier.StorageKeyForURL(m.URL) != specifier.StorageKeyForURL(spec.URL) {
		return false, nil
	}
	return true, nil
}

// Open implements provider.Provider.
func (p *Provider) Open(ctx context.Context, spec provider.Location, path string) (provider.Repository, error) {
	m, err := readMarker(path, markerFile)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.IoError, spec.URL)
	}
	fx, ok := p.lookup(m.URL)
	if !ok {
		return nil, xerrors.New(xerrors.InvalidRepository, spec.URL, "fixture no longer registered")
	}
	return &repository{provider: p, url: m.URL, fixture: fx}, nil
}

// CreateWorkingCopy implements provider.Provider.
func (p *Provider) CreateWorkingCopy(ctx context.Context, spec provider.Location, sourcePath, destinationPath string, editable bool) (provider.WorkingCheckout, error) {
	m, err := readMarker(sourcePath, markerFile)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.IoError, spec.URL)
	}
	fx, ok := p.lookup(m.URL)
	if !ok {
		return nil, xerrors.New(xerrors.InvalidRepository, spec.URL, "fixture no longer registered")
	}

	if err := os.MkdirAll(destinationPath, 0o755); err != nil {
		return nil, xerrors.Wrap(err, xerrors.IoError, spec.URL)
	}
	for name, content := range fx.Files {
		full := filepath.Join(destinationPath, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return nil, xerrors.Wrap(err, xerrors.IoError, spec.URL)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return nil, xerrors.Wrap(err, xerrors.IoError, spec.URL)
		}
	}

	if err := writeMarker(destinationPath, checkoutMarkerFile, marker{URL: m.URL, Tags: fx.Tags}); err != nil {
		return nil, err
	}

	return &workingCheckout{
		provider: p,
		path:     destinationPath,
		url:      m.URL,
		editable: editable,
		revision: "HEAD",
	}, nil
}

// WorkingCopyExists implements provider.Provider.
func (p *Provider) WorkingCopyExists(ctx context.Context, path string) bool {
	_, err := os.Stat(filepath.Join(path, checkoutMarkerFile))
	return err == nil
}

// OpenWorkingCopy implements provider.Provider.
func (p *Provider) OpenWorkingCopy(ctx context.Context, path string) (provider.WorkingCheckout, error) {
	m, err := readMarker(path, checkoutMarkerFile)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.IoError, path)
	}
	return &workingCheckout{provider: p, path: path, url: m.URL, revision: "HEAD"}, nil
}

// Cancel implements provider.Provider. Cancellation of any in-flight
// Fetch call is driven primarily by ctx (see Fetch above); Cancel here
// is a secondary, explicit signal a caller may use to record that a
// cancellation deadline was requested. The in-memory provider has no
// background work outside of a running Fetch call, so there is nothing
// else to stop.
func (p *Provider) Cancel(ctx context.Context, deadline time.Time) error {
	return nil
}

func writeMarker(dir, name string, m marker) error {
	data, err := json.Marshal(m)
	if err != nil {
		return xerrors.Wrap(err, xerrors.IoError, m.URL)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return xerrors.Wrap(err, xerrors.IoError, m.URL)
	}
	return nil
}

func readMarker(dir, name string) (marker, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return marker{}, err
	}
	var m marker
	if err := json.Unmarshal(data, &m); err != nil {
		return marker{}, err
	}
	return m, nil
}

// repository implements provider.Repository against a Fixture.
type repository struct {
	provider *Provider
	url      string
	fixture  Fixture
}

func (r *repository) Tags(ctx context.Context) ([]string, error) {
	return append([]string(nil), r.fixture.Tags...), nil
}

func (r *repository) ResolveRevision(ctx context.Context, ref string) (provider.Revision, error) {
	for _, t := range r.fixture.Tags {
		if t == ref {
			return provider.Revision(t), nil
		}
	}
	if ref == "" || ref == "HEAD" {
		return provider.Revision("HEAD"), nil
	}
	return "", xerrors.New(xerrors.InvalidRepository, r.url, "unknown revision "+ref)
}

func (r *repository) Exists(ctx context.Context, rev provider.Revision) (bool, error) {
	if string(rev) == "HEAD" {
		return true, nil
	}
	for _, t := range r.fixture.Tags {
		if t == string(rev) {
			return true, nil
		}
	}
	return false, nil
}

func (r *repository) Fetch(ctx context.Context) error {
	atomic.AddInt32(&r.provider.updateCalls, 1)
	return nil
}

func (r *repository) OpenFileView(ctx context.Context, ref string) (fs.FS, error) {
	m := make(fstest.MapFS, len(r.fixture.Files))
	for name, content := range r.fixture.Files {
		m[name] = &fstest.MapFile{Data: []byte(content), Mode: 0o644}
	}
	return m, nil
}

// workingCheckout implements provider.WorkingCheckout against a
// materialized directory tree.
type workingCheckout struct {
	provider *Provider
	path     string
	url      string
	editable bool
	revision string

	mu        sync.Mutex
	staged    map[string]bool
	untracked map[string]bool
}

func (w *workingCheckout) Tags(ctx context.Context) ([]string, error) {
	fx, ok := w.provider.lookup(w.url)
	if !ok {
		return nil, xerrors.New(xerrors.InvalidRepository, w.url, "fixture no longer registered")
	}
	return append([]string(nil), fx.Tags...), nil
}

func (w *workingCheckout) CurrentRevision(ctx context.Context) (provider.Revision, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return provider.Revision(w.revision), nil
}

func (w *workingCheckout) Fetch(ctx context.Context) error {
	atomic.AddInt32(&w.provider.updateCalls, 1)
	return nil
}

func (w *workingCheckout) HasUnpushedCommits(ctx context.Context) (bool, error) {
	return false, nil
}

// HasUncommittedChanges reports true for staged-but-uncommitted files
// as well as untracked-but-unstaged ones.
func (w *workingCheckout) HasUncommittedChanges(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.staged) > 0 || len(w.untracked) > 0, nil
}

// Checkout silently discards uncommitted changes.
func (w *workingCheckout) Checkout(ctx context.Context, ref string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.staged = nil
	w.untracked = nil
	w.revision = ref
	return nil
}

func (w *workingCheckout) CheckoutNewBranch(ctx context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.revision == name {
		return xerrors.New(xerrors.ProviderError, w.url, "branch "+name+" already exists")
	}
	w.revision = name
	return nil
}

func (w *workingCheckout) Exists(ctx context.Context, rev provider.Revision) (bool, error) {
	fx, ok := w.provider.lookup(w.url)
	if !ok {
		return false, xerrors.New(xerrors.InvalidRepository, w.url, "fixture no longer registered")
	}
	if string(rev) == "HEAD" {
		return true, nil
	}
	for _, t := range fx.Tags {
		if t == string(rev) {
			return true, nil
		}
	}
	return false, nil
}

func (w *workingCheckout) IsAlternateObjectStoreValid(ctx context.Context, expectedPath string) (bool, error) {
	return w.provider.RepositoryExists(ctx, expectedPath), nil
}

func (w *workingCheckout) AreIgnored(ctx context.Context, paths []string) ([]bool, error) {
	out := make([]bool, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p) == ".DS_Store"
	}
	return out, nil
}

// MarkUntracked simulates creating an untracked file in the working
// tree without staging it, for HasUncommittedChanges tests.
func (w *workingCheckout) MarkUntracked(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.untracked == nil {
		w.untracked = make(map[string]bool)
	}
	w.untracked[name] = true
}

// MarkStaged simulates staging a file for commit.
func (w *workingCheckout) MarkStaged(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.staged == nil {
		w.staged = make(map[string]bool)
	}
	w.staged[name] = true
}
