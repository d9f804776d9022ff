package vstore

import "context"

// Storage is the contract every backend implements. VirtualStorage talks to
// mounted backends exclusively through this interface, never through
// backend-specific APIs.
//
// Absence is never an error: Lookup and Load return (nil, nil) for a path
// that has no entry. Errors mean the backend itself failed.
type Storage interface {
	// Lookup probes for an entry without loading its payload. For an index
	// path the returned metadata carries the freshest LastModified among
	// the contributing entries.
	Lookup(ctx context.Context, p Path) (*Metadata, error)

	// Load returns the content at p: an *Index snapshot enumerating the
	// immediate children for an index path, the backend-native payload for
	// an object path.
	Load(ctx context.Context, p Path) (any, error)

	// Store writes data at the object path p. Index paths and nil data are
	// rejected with IllegalOperationError before any backend I/O happens.
	Store(ctx context.Context, p Path, data any) error

	// Remove deletes the entry at p. For an index path every descendant is
	// removed first, sub-indices before objects. Removing an absent entry
	// is a no-op.
	Remove(ctx context.Context, p Path) error
}

// Storable is an optional capability of payloads stored in MemoryStorage.
// Init runs exactly once before the payload is inserted, bound to the
// storage that will hold it; an Init failure aborts the store and nothing
// is inserted. Destroy runs exactly once after the entry has been removed;
// a Destroy failure is logged but does not undo the removal.
//
// Hooks run while the storage holds its write lock and must not invoke
// operations on the storage they are bound to; keeping the reference for
// later use is fine.
type Storable interface {
	Init(ctx context.Context, s Storage) error
	Destroy(ctx context.Context, s Storage) error
}
