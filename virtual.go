package vstore

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// BackingTypeVirtual tags metadata synthesized by VirtualStorage itself.
const BackingTypeVirtual = "virtual"

// MountPoint binds one backend into the virtual namespace. Its lifecycle is
// mount, zero or more remounts, unmount; a remount never changes the path
// or the storage, only flags and priority order.
type MountPoint struct {
	storage   Storage
	path      Path
	readWrite bool
	overlay   bool
	priority  int
	mountTime int64
	mountedAt time.Time
}

// Storage returns the mounted backend.
func (mp *MountPoint) Storage() Storage { return mp.storage }

// Path returns the index path the backend is mounted at.
func (mp *MountPoint) Path() Path { return mp.path }

// ReadWrite reports whether writes may be routed to the mount.
func (mp *MountPoint) ReadWrite() bool { return mp.readWrite }

// Overlay reports whether the mount is merged into the root-level view.
func (mp *MountPoint) Overlay() bool { return mp.overlay }

// Priority returns the overlay rank; higher ranks win.
func (mp *MountPoint) Priority() int { return mp.priority }

// VirtualStorage composes mounted backends into a single namespace. A call
// is either delegated to the one mount that owns the path, or fanned out
// across overlay mounts and merged: index lookups union every overlay's
// children, object lookups take the first hit in priority order.
//
// VirtualStorage owns the mount records and the routing; it does not own
// the backends themselves.
type VirtualStorage struct {
	mu     sync.RWMutex
	mounts []*MountPoint // sorted: priority desc, mountTime asc
	byPath map[string]*MountPoint

	// lastMountTime drives the per-instance monotonic tie-break counter.
	lastMountTime int64
}

// NewVirtualStorage returns an empty composite with no mounts.
func NewVirtualStorage() *VirtualStorage {
	return &VirtualStorage{byPath: make(map[string]*MountPoint)}
}

// nextMountTime returns a strictly increasing tick, monotone even under
// wall-clock skew.
func (v *VirtualStorage) nextMountTime() int64 {
	now := time.Now().UnixNano()
	if now <= v.lastMountTime {
		now = v.lastMountTime + 1
	}
	v.lastMountTime = now
	return now
}

func (v *VirtualStorage) sortLocked() {
	sort.SliceStable(v.mounts, func(i, j int) bool {
		a, b := v.mounts[i], v.mounts[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.mountTime < b.mountTime
	})
}

// Mount attaches storage at the index path p. It fails with ConflictError
// when p is not an index path or another backend is already mounted at the
// identical path.
func (v *VirtualStorage) Mount(storage Storage, p Path, opts ...MountOption) error {
	if storage == nil {
		return &IllegalOperationError{Op: "mount", Path: p, Reason: "nil storage"}
	}
	if !p.IsIndex() {
		return &ConflictError{Path: p, Reason: "mount path must be an index path"}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.byPath[p.key()]; ok {
		return &ConflictError{Path: p, Reason: "a storage is already mounted here"}
	}

	var cfg mountConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	mp := &MountPoint{
		storage:   storage,
		path:      p,
		readWrite: cfg.readWrite,
		overlay:   cfg.overlay,
		priority:  cfg.priority,
		mountTime: v.nextMountTime(),
		mountedAt: time.Now(),
	}
	v.byPath[p.key()] = mp
	v.mounts = append(v.mounts, mp)
	v.sortLocked()
	return nil
}

// Remount replaces the flags of the mount at exactly p, starting from the
// defaults again, and bumps its position in the tie-break order. It fails
// with ConflictError when no mount exists at p.
func (v *VirtualStorage) Remount(p Path, opts ...MountOption) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	mp, ok := v.byPath[p.key()]
	if !ok {
		return &ConflictError{Path: p, Reason: "no storage mounted here"}
	}

	var cfg mountConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	mp.readWrite = cfg.readWrite
	mp.overlay = cfg.overlay
	mp.priority = cfg.priority
	mp.mountTime = v.nextMountTime()
	v.sortLocked()
	return nil
}

// Unmount detaches the mount at exactly p. Data inside the unmounted
// backend is untouched. It fails with ConflictError when no mount exists
// at p.
func (v *VirtualStorage) Unmount(p Path) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	mp, ok := v.byPath[p.key()]
	if !ok {
		return &ConflictError{Path: p, Reason: "no storage mounted here"}
	}
	delete(v.byPath, p.key())
	for i, cur := range v.mounts {
		if cur == mp {
			v.mounts = append(v.mounts[:i], v.mounts[i+1:]...)
			break
		}
	}
	return nil
}

// Mounts returns the mount table in priority order as a snapshot.
func (v *VirtualStorage) Mounts() []*MountPoint {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]*MountPoint, len(v.mounts))
	copy(out, v.mounts)
	return out
}

// ownerLocked returns the mount whose path is the longest prefix of p, or
// nil when no mount path contains p. With nested mounts the deepest one
// wins; exact mount paths are unique, so two prefixes of p can never tie on
// depth.
func (v *VirtualStorage) ownerLocked(p Path) *MountPoint {
	var owner *MountPoint
	for _, mp := range v.mounts {
		if !p.StartsWith(mp.path) {
			continue
		}
		if owner == nil || mp.path.Depth() > owner.path.Depth() {
			owner = mp
		}
	}
	return owner
}

// rebase strips the mount prefix from p.
func rebase(p Path, mp *MountPoint) (Path, error) {
	return p.SubPath(mp.path.Depth())
}

// synthesizedIndexLocked derives p's child listing from the mount table
// alone: every mount path passing through p contributes the next segment as
// a sub-index. The second result is the freshest mount time on the chain;
// the Index is nil when p is neither the root nor on any mount chain.
func (v *VirtualStorage) synthesizedIndexLocked(p Path) (*Index, time.Time) {
	var last time.Time
	known := p.IsRoot()
	var idx *Index
	for _, mp := range v.mounts {
		if !mp.path.StartsWith(p) {
			continue
		}
		known = true
		last = LaterModified(last, mp.mountedAt)
		if mp.path.Depth() > p.Depth() {
			if idx == nil {
				idx = NewIndex()
			}
			idx.AddIndex(mp.path.NameAt(p.Depth()))
		}
	}
	if !known {
		return nil, last
	}
	if idx == nil {
		idx = NewIndex()
	}
	return idx, last
}

// Lookup resolves metadata for p: delegated verbatim when a mount owns the
// path (the deepest one with nested mounts), otherwise merged across this
// layer's synthesized view and every overlay mount.
func (v *VirtualStorage) Lookup(ctx context.Context, p Path) (*Metadata, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if mp := v.ownerLocked(p); mp != nil {
		rel, err := rebase(p, mp)
		if err != nil {
			return nil, err
		}
		md, err := mp.storage.Lookup(ctx, rel)
		if err != nil {
			return nil, &AccessError{Path: p, Reason: "backend lookup", Err: err}
		}
		return md, nil
	}

	if p.IsIndex() {
		var md *Metadata
		if idx, last := v.synthesizedIndexLocked(p); idx != nil {
			md = &Metadata{Category: CategoryIndex, BackingType: BackingTypeVirtual, LastModified: last}
		}
		for _, mp := range v.mounts {
			if !mp.overlay {
				continue
			}
			bmd, err := mp.storage.Lookup(ctx, p)
			if err != nil {
				return nil, &AccessError{Path: p, Reason: "backend lookup", Err: err}
			}
			if bmd == nil {
				continue
			}
			if md == nil {
				md = &Metadata{Category: CategoryIndex, BackingType: bmd.BackingType, LastModified: bmd.LastModified}
			} else {
				md.LastModified = LaterModified(md.LastModified, bmd.LastModified)
			}
		}
		return md, nil
	}

	for _, mp := range v.mounts {
		if !mp.overlay {
			continue
		}
		md, err := mp.storage.Lookup(ctx, p)
		if err != nil {
			return nil, &AccessError{Path: p, Reason: "backend lookup", Err: err}
		}
		if md != nil {
			return md, nil
		}
	}
	return nil, nil
}

// Load resolves the content at p. Index paths union every overlay's
// contribution with the synthesized mount-table view; no overlay may
// short-circuit the scan, each can add distinct children. Object paths take
// the first non-nil hit in priority order.
func (v *VirtualStorage) Load(ctx context.Context, p Path) (any, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if mp := v.ownerLocked(p); mp != nil {
		rel, err := rebase(p, mp)
		if err != nil {
			return nil, err
		}
		payload, err := mp.storage.Load(ctx, rel)
		if err != nil {
			return nil, &AccessError{Path: p, Reason: "backend load", Err: err}
		}
		return payload, nil
	}

	if p.IsIndex() {
		idx, _ := v.synthesizedIndexLocked(p)
		for _, mp := range v.mounts {
			if !mp.overlay {
				continue
			}
			payload, err := mp.storage.Load(ctx, p)
			if err != nil {
				return nil, &AccessError{Path: p, Reason: "backend load", Err: err}
			}
			if bidx, ok := payload.(*Index); ok {
				idx = MergeIndexes(idx, bidx)
			}
		}
		if idx == nil {
			return nil, nil
		}
		return idx, nil
	}

	for _, mp := range v.mounts {
		if !mp.overlay {
			continue
		}
		payload, err := mp.storage.Load(ctx, p)
		if err != nil {
			return nil, &AccessError{Path: p, Reason: "backend load", Err: err}
		}
		if payload != nil {
			return payload, nil
		}
	}
	return nil, nil
}

// Store routes data for the object path p to exactly one backend: the
// owning mount when there is one (which must be writable), otherwise the
// first writable overlay in priority order. A write is never duplicated
// across overlays.
func (v *VirtualStorage) Store(ctx context.Context, p Path, data any) error {
	if p.IsIndex() {
		return &IllegalOperationError{Op: "store", Path: p, Reason: "cannot store at an index path"}
	}
	if data == nil {
		return &IllegalOperationError{Op: "store", Path: p, Reason: "cannot store nil data"}
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if mp := v.ownerLocked(p); mp != nil {
		if !mp.readWrite {
			return &AccessError{Path: p, Reason: "storage mounted read-only"}
		}
		rel, err := rebase(p, mp)
		if err != nil {
			return err
		}
		if err := mp.storage.Store(ctx, rel, data); err != nil {
			return &AccessError{Path: p, Reason: "backend store", Err: err}
		}
		return nil
	}

	for _, mp := range v.mounts {
		if !mp.overlay || !mp.readWrite {
			continue
		}
		if err := mp.storage.Store(ctx, p, data); err != nil {
			return &AccessError{Path: p, Reason: "backend store", Err: err}
		}
		return nil
	}
	return &AccessError{Path: p, Reason: "no writable storage for path"}
}

// Remove deletes p. With an owning mount the backend takes full
// responsibility for the recursive delete. Otherwise every writable overlay
// gets a chance to remove whatever it holds at p; unlike Store's
// single-winner pick this is a union across overlays. The fan-out is not
// transactional: each backend is attempted independently, failures are
// combined and returned, and nothing is rolled back.
func (v *VirtualStorage) Remove(ctx context.Context, p Path) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if mp := v.ownerLocked(p); mp != nil {
		if !mp.readWrite {
			return &AccessError{Path: p, Reason: "storage mounted read-only"}
		}
		rel, err := rebase(p, mp)
		if err != nil {
			return err
		}
		if err := mp.storage.Remove(ctx, rel); err != nil {
			return &AccessError{Path: p, Reason: "backend remove", Err: err}
		}
		return nil
	}

	var errs error
	for _, mp := range v.mounts {
		if !mp.overlay || !mp.readWrite {
			continue
		}
		if err := mp.storage.Remove(ctx, p); err != nil {
			slog.Warn("vstore: overlay remove failed", "path", p.String(), "mount", mp.path.String(), "err", err)
			errs = multierr.Append(errs, &AccessError{Path: p, Reason: "backend remove", Err: err})
		}
	}
	return errs
}
