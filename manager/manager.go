// Package manager implements the RepositoryManager facade: it mediates
// between callers and a provider.Provider, orchestrating lookup
// de-duplication, update policy, optional shared cache promotion,
// corruption recovery, removal, and reset.
package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gizzahub/gzh-repocache/cancellator"
	"github.com/gizzahub/gzh-repocache/catalog"
	"github.com/gizzahub/gzh-repocache/delegate"
	"github.com/gizzahub/gzh-repocache/internal/xerrors"
	"github.com/gizzahub/gzh-repocache/provider"
	"github.com/gizzahub/gzh-repocache/scheduler"
	"github.com/gizzahub/gzh-repocache/specifier"
)

// Manager is the repository manager facade. Construct with New; the
// zero value is not usable.
type Manager struct {
	root               string
	cachePath          string
	cacheLocalPackages bool

	prov     provider.Provider
	cat      *catalog.Catalog
	sched    *scheduler.Scheduler
	delegate delegate.Delegate
	logger   Logger

	mu       sync.Mutex
	handles  map[string]*Handle
	inflight map[string]*fetchEpisode
}

// fetchEpisode is one single-flighted fetch for a storage key: the
// leader runs the provider call; every waiter attached to the episode
// blocks on done and shares err once it closes.
type fetchEpisode struct {
	done chan struct{}
	err  error
}

// Option configures a Manager at construction time.
type Option func(*config)

type config struct {
	cachePath               string
	cacheLocalPackages      bool
	maxConcurrentOperations int
	delegate                delegate.Delegate
	logger                  Logger
	registry                *cancellator.Registry
	registryName            string
}

// WithCachePath configures an optional shared cache directory: a
// second-level store of bare clones keyed by storage key.
func WithCachePath(path string) Option {
	return func(c *config) { c.cachePath = path }
}

// WithCacheLocalPackages makes the manager populate the cache even for
// local-path specifiers, not only remote URLs.
func WithCacheLocalPackages(v bool) Option {
	return func(c *config) { c.cacheLocalPackages = v }
}

// WithMaxConcurrentOperations bounds the number of simultaneous
// provider operations (0 or negative means unbounded).
func WithMaxConcurrentOperations(n int) Option {
	return func(c *config) { c.maxConcurrentOperations = n }
}

// WithDelegate sets the lifecycle/progress observer.
func WithDelegate(d delegate.Delegate) Option {
	return func(c *config) { c.delegate = d }
}

// WithLogger sets the initialization-warning sink.
func WithLogger(l Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithCancellator registers the manager's scheduler under name in
// registry, so a process-wide Cancel(deadline) reaches it. Defaults to
// cancellator.Default under the manager's root path.
func WithCancellator(registry *cancellator.Registry, name string) Option {
	return func(c *config) { c.registry = registry; c.registryName = name }
}

// New constructs a Manager rooted at path, backed by prov.
func New(root string, prov provider.Provider, opts ...Option) (*Manager, error) {
	cfg := config{
		maxConcurrentOperations: 0,
		delegate:                delegate.NopDelegate{},
		logger:                  noopLogger{},
		registry:                cancellator.Default,
		registryName:            "manager:" + root,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, xerrors.Wrap(err, xerrors.IoError, root)
	}

	cat, err := catalog.Load(root)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		root:               root,
		cachePath:          cfg.cachePath,
		cacheLocalPackages: cfg.cacheLocalPackages,
		prov:               prov,
		cat:                cat,
		sched:              scheduler.New(cfg.maxConcurrentOperations, cfg.registry, cfg.registryName),
		delegate:           cfg.delegate,
		logger:             cfg.logger,
		handles:            make(map[string]*Handle),
		inflight:           make(map[string]*fetchEpisode),
	}

	for key, entry := range cat.All() {
		m.handles[key] = &Handle{
			mgr:       m,
			key:       key,
			specifier: specifier.New(entry.URL),
			subpath:   entry.Subpath,
			status:    entry.Status,
		}
	}

	return m, nil
}

// Close deregisters the manager's scheduler from its cancellator
// registry. It does not cancel in-flight operations.
func (m *Manager) Close() {
	m.sched.Close()
}

func (m *Manager) location(s specifier.Specifier) provider.Location {
	return provider.Location{URL: s.URL(), Location: s.Location(), IsLocal: s.IsLocal()}
}

func (m *Manager) clonePath(subpath string) string {
	return filepath.Join(m.root, subpath)
}

func (m *Manager) cacheClonePath(subpath string) string {
	return filepath.Join(m.cachePath, subpath)
}

// handleFor returns the existing handle for key, or creates one in
// pending state and records a pending catalog entry.
func (m *Manager) handleFor(key string, spec specifier.Specifier) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.handles[key]; ok {
		return h
	}

	h := &Handle{
		mgr:       m,
		key:       key,
		specifier: spec,
		subpath:   key,
		status:    catalog.StatusPending,
	}
	m.handles[key] = h
	return h
}

// Lookup resolves spec to a usable Handle: on a catalog miss it
// fetches (de-duplicated and bounded by the scheduler); on a hit it
// applies strategy's update policy.
func (m *Manager) Lookup(ctx context.Context, identity delegate.Identity, spec specifier.Specifier, strategy UpdateStrategy) (*Handle, error) {
	key := spec.StorageKey()
	h := m.handleFor(key, spec)

	status, subpath, lastUpdated := h.snapshot()

	if status == catalog.StatusAvailable {
		// A Never lookup returns immediately and contacts the provider
		// for nothing, not even a validation check, so shouldUpdate is
		// decided before IsValidDirectory ever runs.
		if !strategy.shouldUpdate(lastUpdated, time.Now()) {
			return h, nil
		}

		valid, _ := m.prov.IsValidDirectory(ctx, m.clonePath(subpath), specPtr(m.location(spec)))
		if !valid {
			m.logger.Warn("is not valid git repository for '%s', will fetch again", spec.URL())
			os.RemoveAll(m.clonePath(subpath))
			h.setStatus(catalog.StatusPending)
			if err := m.cat.Delete(key); err != nil {
				return nil, err
			}
			// Fall through to the miss path below.
		} else {
			return m.update(ctx, identity, h, spec, subpath)
		}
	}

	return m.fetchMiss(ctx, identity, h, spec, key, strategy)
}

func specPtr(loc provider.Location) *provider.Location { return &loc }

func (m *Manager) update(ctx context.Context, identity delegate.Identity, h *Handle, spec specifier.Specifier, subpath string) (*Handle, error) {
	repo, err := m.prov.Open(ctx, m.location(spec), m.clonePath(subpath))
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.ProviderError, spec.URL())
	}

	m.delegate.WillUpdate(identity, spec.URL())
	start := time.Now()
	err = repo.Fetch(ctx)
	duration := time.Since(start)
	m.delegate.DidUpdate(identity, spec.URL(), err, duration)

	if err != nil {
		return h, err
	}

	h.markAvailable(start)
	return h, nil
}

// fetchMiss runs the single-flighted fetch for key, treating every
// caller but the episode's leader as a reuse of the handle the leader
// produces: once the leader's fetch has landed, an attached waiter
// still goes through the ordinary update policy rather than returning
// silently. Attaching and claiming
// leadership are one atomic step under the manager mutex, so a key can
// never have two leaders and a late arrival can never re-run a fetch
// that already landed.
func (m *Manager) fetchMiss(ctx context.Context, identity delegate.Identity, h *Handle, spec specifier.Specifier, key string, strategy UpdateStrategy) (*Handle, error) {
	m.mu.Lock()
	ep, attached := m.inflight[key]
	if !attached {
		ep = &fetchEpisode{done: make(chan struct{})}
		m.inflight[key] = ep
	}
	m.mu.Unlock()

	if attached {
		select {
		case <-ep.done:
		case <-ctx.Done():
			return nil, xerrors.Wrap(ctx.Err(), xerrors.Cancelled, spec.URL())
		}
		if ep.err != nil {
			return nil, ep.err
		}
		return m.reuse(ctx, identity, h, spec, strategy)
	}

	// Leader. The handle may have become available between the caller's
	// status snapshot and the claim above; with the episode held, a
	// stale miss is just a reuse.
	if status, _, _ := h.snapshot(); status == catalog.StatusAvailable {
		m.finishEpisode(key, ep, nil)
		return m.reuse(ctx, identity, h, spec, strategy)
	}

	_, err := m.sched.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		details, ferr := m.doFetch(ctx, identity, spec, key)
		return details, ferr
	})
	if err != nil {
		err = asCancelled(err, spec.URL())
		h.setStatus(catalog.StatusError)
		m.finishEpisode(key, ep, err)
		return nil, err
	}

	h.markAvailable(time.Now())
	m.finishEpisode(key, ep, nil)
	return h, nil
}

// reuse applies strategy to an already-fetched handle, exactly as a
// repeat lookup of an available entry would.
func (m *Manager) reuse(ctx context.Context, identity delegate.Identity, h *Handle, spec specifier.Specifier, strategy UpdateStrategy) (*Handle, error) {
	_, subpath, lastUpdated := h.snapshot()
	if !strategy.shouldUpdate(lastUpdated, time.Now()) {
		return h, nil
	}
	return m.update(ctx, identity, h, spec, subpath)
}

// finishEpisode publishes the episode outcome and wakes every waiter.
// The handle's status must already reflect the outcome: waiters read
// it as soon as done closes.
func (m *Manager) finishEpisode(key string, ep *fetchEpisode, err error) {
	m.mu.Lock()
	delete(m.inflight, key)
	m.mu.Unlock()
	ep.err = err
	close(ep.done)
}

// progressSink forwards provider fetch progress to the delegate's
// Fetching event.
type progressSink struct {
	d        delegate.Delegate
	identity delegate.Identity
	url      string
}

func (p progressSink) OnProgress(objectsFetched, totalObjects int) {
	p.d.Fetching(p.identity, p.url, objectsFetched, totalObjects)
}

// asCancelled maps a bare context cancellation surfaced by the
// scheduler into the manager's error taxonomy; provider-originated
// errors pass through unchanged.
func asCancelled(err error, url string) error {
	if (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) && !xerrors.Is(err, xerrors.Cancelled) {
		return xerrors.Wrap(err, xerrors.Cancelled, url)
	}
	return err
}

// doFetch runs the leader's fetch procedure: cache promotion when the
// key is already cached, fetch-through-cache or direct fetch
// otherwise, then catalog persistence and delegate dispatch. It is
// only ever invoked once per episode, regardless of how many callers
// attached as waiters.
func (m *Manager) doFetch(ctx context.Context, identity delegate.Identity, spec specifier.Specifier, key string) (provider.FetchDetails, error) {
	clonePath := m.clonePath(key)
	loc := m.location(spec)

	cacheHit := false
	if m.cachePath != "" {
		cacheHit = m.prov.RepositoryExists(ctx, m.cacheClonePath(key))
	}

	// WillFetch's details reflect only whether the cache is about to be
	// consulted; whether the cache ended up updated is known at DidFetch
	// time.
	m.delegate.WillFetch(identity, spec.URL(), provider.FetchDetails{FromCache: cacheHit})
	start := time.Now()
	progress := progressSink{d: m.delegate, identity: identity, url: spec.URL()}

	var details provider.FetchDetails
	var fetchErr error
	switch {
	case cacheHit:
		// Refresh the cached clone from origin before promoting it, so
		// the copy the caller receives is current. A failed refresh is
		// tolerated: the stale cache copy is still a valid clone.
		cachePath := m.cacheClonePath(key)
		details = provider.FetchDetails{FromCache: true}
		if repo, oerr := m.prov.Open(ctx, loc, cachePath); oerr == nil && repo.Fetch(ctx) == nil {
			details.UpdatedCache = true
		}
		fetchErr = m.prov.Copy(ctx, cachePath, clonePath)
		if fetchErr != nil {
			// Cache promotion failed: fall through to a direct fetch.
			details = provider.FetchDetails{}
			fetchErr = m.prov.Fetch(ctx, loc, clonePath, progress)
		}
	case m.cachePath != "" && (m.cacheLocalPackages || !spec.IsLocal()):
		cachePath := m.cacheClonePath(key)
		details = provider.FetchDetails{UpdatedCache: true}
		fetchErr = m.prov.Fetch(ctx, loc, cachePath, progress)
		if fetchErr == nil {
			fetchErr = m.prov.Copy(ctx, cachePath, clonePath)
		}
	default:
		fetchErr = m.prov.Fetch(ctx, loc, clonePath, progress)
	}

	duration := time.Since(start)

	if fetchErr != nil {
		os.RemoveAll(clonePath)
		_ = m.cat.Delete(key)
		m.delegate.DidFetch(identity, spec.URL(), delegate.Result{Err: fetchErr}, duration)
		return provider.FetchDetails{}, fetchErr
	}

	if err := m.cat.Put(key, catalog.Entry{URL: spec.URL(), Subpath: key, Status: catalog.StatusAvailable}); err != nil {
		return provider.FetchDetails{}, err
	}
	m.delegate.DidFetch(identity, spec.URL(), delegate.Result{Details: details}, duration)
	return details, nil
}

// Remove deletes the clone directory and catalog entry for spec. It is
// idempotent: removing an already-absent specifier succeeds. The
// directory goes first; if that fails, both the catalog entry and the
// in-memory handle are kept, so the still-populated clone stays
// reachable instead of colliding with a fresh fetch's requirement that
// its destination not exist.
func (m *Manager) Remove(spec specifier.Specifier) error {
	key := spec.StorageKey()

	path := m.clonePath(key)
	if err := os.RemoveAll(path); err != nil {
		return xerrors.Wrap(err, xerrors.IoError, spec.URL())
	}

	m.mu.Lock()
	delete(m.handles, key)
	m.mu.Unlock()

	return m.cat.Delete(key)
}

// Reset wipes the entire root directory and in-memory state; every
// subsequent lookup fetches fresh. In-memory handles are only dropped
// once the directories are actually gone: a failed wipe leaves the
// surviving clones reachable through their existing handles.
func (m *Manager) Reset() error {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return xerrors.Wrap(err, xerrors.IoError, m.root)
	}
	for _, e := range entries {
		if e.Name() == "checkouts-state.json" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.root, e.Name())); err != nil {
			return xerrors.Wrap(err, xerrors.IoError, m.root)
		}
	}

	m.mu.Lock()
	m.handles = make(map[string]*Handle)
	m.mu.Unlock()

	return m.cat.Reset()
}

// Cancel asks every in-flight operation this manager's scheduler owns
// to stop cooperatively by deadline. It delegates to the scheduler,
// which is itself registered as a cancellator.Cooperator.
func (m *Manager) Cancel(ctx context.Context, deadline time.Time) error {
	return m.sched.Cancel(ctx, deadline)
}
