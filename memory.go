package vstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// BackingTypeMemory tags entries held by MemoryStorage.
const BackingTypeMemory = "memory"

// memoryRecord is the bookkeeping entry behind one path: metadata always,
// plus the child listing when the path is an index.
type memoryRecord struct {
	meta  Metadata
	index *Index
}

// MemoryStorage is the reference backend: an in-memory object map plus an
// index chain that is maintained automatically for every ancestor up to the
// root. Storing /a/b/c materializes indices at /a/b/, /a/ and /; removing
// the last entry of an index collapses the chain again.
//
// All operations are safe for concurrent use; readers share, mutations are
// exclusive.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]any
	meta    map[string]*memoryRecord
}

// NewMemoryStorage returns an empty storage whose root index is defined.
func NewMemoryStorage() *MemoryStorage {
	m := &MemoryStorage{
		objects: make(map[string]any),
		meta:    make(map[string]*memoryRecord),
	}
	m.meta[Root().key()] = &memoryRecord{
		meta:  Metadata{Category: CategoryIndex, BackingType: BackingTypeMemory, LastModified: time.Now()},
		index: NewIndex(),
	}
	return m
}

// Lookup returns the metadata recorded for p, or (nil, nil) when absent.
func (m *MemoryStorage) Lookup(_ context.Context, p Path) (*Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.meta[p.key()]
	if !ok {
		return nil, nil
	}
	md := rec.meta
	return &md, nil
}

// Load returns an *Index snapshot for an index path and the stored payload
// for an object path. The root index is always defined, even when empty.
func (m *MemoryStorage) Load(_ context.Context, p Path) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p.IsIndex() {
		rec, ok := m.meta[p.key()]
		if !ok || rec.index == nil {
			return nil, nil
		}
		return rec.index.Clone(), nil
	}
	payload, ok := m.objects[p.key()]
	if !ok {
		return nil, nil
	}
	return payload, nil
}

// Store inserts data at the object path p, replacing any existing entry
// first so the parent index counts stay correct. A payload implementing
// Storable has its Init hook run before insertion; a hook failure aborts
// the store.
func (m *MemoryStorage) Store(ctx context.Context, p Path, data any) error {
	if p.IsIndex() {
		return &IllegalOperationError{Op: "store", Path: p, Reason: "cannot store at an index path"}
	}
	if data == nil {
		return &IllegalOperationError{Op: "store", Path: p, Reason: "cannot store nil data"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.nameConflictLocked(p); err != nil {
		return err
	}
	if _, ok := m.meta[p.key()]; ok {
		m.removeLocked(ctx, p, true)
	}
	if st, ok := data.(Storable); ok {
		if err := st.Init(ctx, m); err != nil {
			return &AccessError{Path: p, Reason: "storable init hook", Err: err}
		}
	}

	now := time.Now()
	m.objects[p.key()] = data
	m.meta[p.key()] = &memoryRecord{
		meta: Metadata{Category: CategoryObject, BackingType: BackingTypeMemory, LastModified: now},
	}
	m.indexInsert(p, now)
	return nil
}

// Remove deletes the entry at p. An index path loses all its descendants
// first, sub-indices before objects; exactly one parent-index update runs
// for the removed entry itself. Removing an absent entry is a no-op.
func (m *MemoryStorage) Remove(ctx context.Context, p Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(ctx, p, true)
	return nil
}

// nameConflictLocked walks the ancestor chain of p and rejects a store whose
// index propagation would need a name that an existing parent index already
// lists in the other role. Without this check the propagation would stop at
// the conflicting ancestor and silently leave the new entry out of
// enumeration.
func (m *MemoryStorage) nameConflictLocked(p Path) error {
	for cur := p; !cur.IsRoot(); cur = cur.Parent() {
		parent := cur.Parent()
		rec, ok := m.meta[parent.key()]
		if !ok || rec.index == nil {
			continue
		}
		if cur.IsIndex() && rec.index.HasObject(cur.Name()) {
			return &IllegalOperationError{
				Op:   "store",
				Path: p,
				Reason: fmt.Sprintf("name %q is already an object at %s",
					cur.Name(), parent),
			}
		}
		if !cur.IsIndex() && rec.index.HasIndex(cur.Name()) {
			return &IllegalOperationError{
				Op:   "store",
				Path: p,
				Reason: fmt.Sprintf("name %q is already a sub-index at %s",
					cur.Name(), parent),
			}
		}
	}
	return nil
}

// removeLocked removes p and, for index paths, everything below it. Only
// the outermost call propagates the change to the parent index; the inner
// recursion works on entries that vanish together with their parent.
func (m *MemoryStorage) removeLocked(ctx context.Context, p Path, propagate bool) {
	rec, ok := m.meta[p.key()]
	if !ok {
		return
	}

	if p.IsIndex() && rec.index != nil {
		for _, name := range rec.index.SubIndices() {
			child, err := p.Child(name, true)
			if err != nil {
				continue
			}
			m.removeLocked(ctx, child, false)
		}
		for _, name := range rec.index.Objects() {
			child, err := p.Child(name, false)
			if err != nil {
				continue
			}
			m.removeLocked(ctx, child, false)
		}
	}

	if p.IsRoot() {
		// The root stays defined; it merely becomes empty.
		rec.index = NewIndex()
		rec.meta.LastModified = time.Now()
		return
	}

	payload := m.objects[p.key()]
	delete(m.objects, p.key())
	delete(m.meta, p.key())
	if propagate {
		m.indexRemove(p)
	}

	if st, ok := payload.(Storable); ok {
		if err := st.Destroy(ctx, m); err != nil {
			slog.Warn("vstore: storable destroy hook failed", "path", p.String(), "err", err)
		}
	}
}

// indexInsert records p in its parent index, lazily creating the parent.
// The walk continues toward the root only while the parent index actually
// changed, bounding the cost of an insert to O(depth) and making repeated
// inserts of the same name free.
func (m *MemoryStorage) indexInsert(p Path, now time.Time) {
	if p.IsRoot() {
		return
	}
	parent := p.Parent()
	rec, ok := m.meta[parent.key()]
	if !ok || rec.index == nil {
		rec = &memoryRecord{
			meta:  Metadata{Category: CategoryIndex, BackingType: BackingTypeMemory},
			index: NewIndex(),
		}
		m.meta[parent.key()] = rec
	}

	var changed bool
	if p.IsIndex() {
		changed = rec.index.AddIndex(p.Name())
	} else {
		changed = rec.index.AddObject(p.Name())
	}
	if !changed {
		return
	}
	rec.meta.LastModified = LaterModified(rec.meta.LastModified, now)
	m.indexInsert(parent, now)
}

// indexRemove drops p's name from its parent index. A parent left with no
// entries at all disappears itself and the removal walks on toward the
// root; a non-empty parent stops the walk, its aggregate state is
// unaffected by deeper levels.
func (m *MemoryStorage) indexRemove(p Path) {
	if p.IsRoot() {
		return
	}
	parent := p.Parent()
	rec, ok := m.meta[parent.key()]
	if !ok || rec.index == nil {
		return
	}

	if p.IsIndex() {
		rec.index.RemoveIndex(p.Name())
	} else {
		rec.index.RemoveObject(p.Name())
	}
	if rec.index.IsEmpty() && !parent.IsRoot() {
		delete(m.meta, parent.key())
		m.indexRemove(parent)
	}
}
