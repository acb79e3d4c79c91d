// Package provider defines the Repository Provider and Working
// Checkout capability contracts through which the repository manager
// mediates between callers and a concrete VCS driver.
//
// This package holds only the abstract contracts; concrete
// implementations live in memprovider (the in-memory reference used by
// tests) and gitdriver (the real git-CLI-backed implementation). The
// manager never imports either concrete package directly; it is
// constructed with a Provider value, which keeps the high-level
// orchestration decoupled from the Git CLI wrapper underneath it.
package provider

import (
	"context"
	"io/fs"
	"time"
)

// Revision is an opaque identifier for a point in a repository's
// history: a commit hash, tag, or branch name, as returned by
// Repository.ResolveRevision.
type Revision string

// FetchDetails describes how a fetch was serviced: whether it was
// served from the shared cache, and whether it populated/updated the
// cache as a side effect.
type FetchDetails struct {
	FromCache    bool
	UpdatedCache bool
}

// ProgressSink receives optional progress updates during a long-running
// fetch. Implementations must not block arbitrarily; the caller offers
// no back-pressure.
type ProgressSink interface {
	OnProgress(objectsFetched, totalObjects int)
}

// Repository is the read-only view capability returned by
// Provider.Open. All methods accept a context so callers can bound or
// cancel a slow remote operation.
type Repository interface {
	// Tags returns the tags known to this repository.
	Tags(ctx context.Context) ([]string, error)

	// ResolveRevision resolves a tag, branch, or identifier to a
	// concrete Revision.
	ResolveRevision(ctx context.Context, ref string) (Revision, error)

	// Exists reports whether the given revision is present.
	Exists(ctx context.Context, rev Revision) (bool, error)

	// Fetch refreshes this repository's objects from its origin.
	Fetch(ctx context.Context) error

	// OpenFileView exposes the tree at the given revision or tag as a
	// read-only filesystem.
	OpenFileView(ctx context.Context, ref string) (fs.FS, error)
}

// WorkingCheckout is the mutable-tree capability: a filesystem
// directory checked out at a revision, tag, or branch. Implementations
// must follow these policies:
//   - HasUncommittedChanges reports true for untracked-but-unstaged
//     files as well as staged-but-uncommitted ones.
//   - Checkout(revision) silently discards uncommitted changes.
//   - CheckoutNewBranch fails if the branch already exists.
type WorkingCheckout interface {
	Tags(ctx context.Context) ([]string, error)
	CurrentRevision(ctx context.Context) (Revision, error)
	Fetch(ctx context.Context) error
	HasUnpushedCommits(ctx context.Context) (bool, error)
	HasUncommittedChanges(ctx context.Context) (bool, error)
	Checkout(ctx context.Context, ref string) error
	CheckoutNewBranch(ctx context.Context, name string) error
	Exists(ctx context.Context, rev Revision) (bool, error)

	// IsAlternateObjectStoreValid validates that this working
	// checkout's shared-objects linkage still points at expectedPath
	// (the bare clone it was created from).
	IsAlternateObjectStoreValid(ctx context.Context, expectedPath string) (bool, error)

	// AreIgnored reports, for each of paths, whether the repository's
	// ignore rules exclude it. Implementations must honor ignore rules
	// even when the repository path contains whitespace.
	AreIgnored(ctx context.Context, paths []string) ([]bool, error)
}

// Provider is the abstract VCS driver contract. The manager never
// assumes anything about how Fetch/Copy actually talk to a remote; it
// only relies on the documented pre/postconditions.
type Provider interface {
	// Fetch populates a fresh bare clone at destinationPath. Precondition:
	// destinationPath does not exist. progress may be nil.
	Fetch(ctx context.Context, spec Location, destinationPath string, progress ProgressSink) error

	// Copy makes a byte-for-byte copy of an existing clone at
	// sourcePath into destinationPath, used for cache promotion.
	Copy(ctx context.Context, sourcePath, destinationPath string) error

	// RepositoryExists is a cheap existence check for a clone directory.
	RepositoryExists(ctx context.Context, path string) bool

	// IsValidDirectory performs deeper validation that path contains a
	// usable clone. If spec is non-nil, it additionally validates that
	// the clone is of that specifier.
	IsValidDirectory(ctx context.Context, path string, spec *Location) (bool, error)

	// Open returns a read-only Repository view onto the clone at path.
	Open(ctx context.Context, spec Location, path string) (Repository, error)

	// CreateWorkingCopy materializes a working tree at destinationPath.
	// If editable is false, the working copy points at the local clone
	// (sourcePath); if true, it points at the original remote so pushes
	// go directly upstream.
	CreateWorkingCopy(ctx context.Context, spec Location, sourcePath, destinationPath string, editable bool) (WorkingCheckout, error)

	// WorkingCopyExists reports whether path already holds a working
	// checkout.
	WorkingCopyExists(ctx context.Context, path string) bool

	// OpenWorkingCopy opens an existing working checkout at path.
	OpenWorkingCopy(ctx context.Context, path string) (WorkingCheckout, error)

	// Cancel asks all in-flight operations this provider is performing
	// to stop cooperatively. Operations not finished by deadline may be
	// abandoned by the caller; the provider itself is not required to
	// terminate any background work it cannot interrupt.
	Cancel(ctx context.Context, deadline time.Time) error
}

// Location is the minimal view of a repository specifier a Provider
// needs: its URL and canonical location. It mirrors specifier.Specifier
// without creating an import cycle between provider and specifier.
type Location struct {
	URL      string
	Location string
	IsLocal  bool
}
