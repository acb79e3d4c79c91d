package manager

import (
	"context"
	"sync"
	"time"

	"github.com/gizzahub/gzh-repocache/catalog"
	"github.com/gizzahub/gzh-repocache/internal/xerrors"
	"github.com/gizzahub/gzh-repocache/provider"
	"github.com/gizzahub/gzh-repocache/specifier"
)

// Handle is the opaque, reference-shared reference a caller receives
// from Manager.Lookup. All lookups for the same specifier return
// handles backed by the same record: mutating one through the manager
// is visible to every other holder.
type Handle struct {
	mgr *Manager

	mu          sync.RWMutex
	key         string
	specifier   specifier.Specifier
	subpath     string
	status      catalog.Status
	lastUpdated time.Time
}

// Status reports the handle's current lifecycle state.
func (h *Handle) Status() catalog.Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Specifier returns the specifier this handle was looked up with.
func (h *Handle) Specifier() specifier.Specifier {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.specifier
}

func (h *Handle) snapshot() (status catalog.Status, subpath string, lastUpdated time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status, h.subpath, h.lastUpdated
}

func (h *Handle) setStatus(status catalog.Status) {
	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
}

func (h *Handle) markAvailable(when time.Time) {
	h.mu.Lock()
	h.status = catalog.StatusAvailable
	h.lastUpdated = when
	h.mu.Unlock()
}

// Open returns a read-only Repository view onto this handle's clone.
// The handle must be available; opening a pending or errored handle
// fails.
func (h *Handle) Open(ctx context.Context) (provider.Repository, error) {
	status, subpath, _ := h.snapshot()
	if status != catalog.StatusAvailable {
		return nil, xerrors.New(xerrors.InvalidRepository, h.specifier.URL(), "handle is not available")
	}
	return h.mgr.prov.Open(ctx, h.mgr.location(h.specifier), h.mgr.clonePath(subpath))
}

// CreateWorkingCopy materializes a working tree for this handle at at,
// either pointing at the local clone (editable=false) or the original
// remote (editable=true).
func (h *Handle) CreateWorkingCopy(ctx context.Context, at string, editable bool) (provider.WorkingCheckout, error) {
	status, subpath, _ := h.snapshot()
	if status != catalog.StatusAvailable {
		return nil, xerrors.New(xerrors.InvalidRepository, h.specifier.URL(), "handle is not available")
	}
	loc := h.mgr.location(h.specifier)
	return h.mgr.prov.CreateWorkingCopy(ctx, loc, h.mgr.clonePath(subpath), at, editable)
}
