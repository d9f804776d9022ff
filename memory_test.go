package vstore

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreLoadLookup(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	p := MustParsePath("/a/b/c")

	if err := m.Store(ctx, p, "payload"); err != nil {
		t.Fatal(err)
	}

	v, err := m.Load(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if v != "payload" {
		t.Errorf("Load = %v, want payload", v)
	}

	md, err := m.Lookup(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if md == nil || md.Category != CategoryObject || md.BackingType != BackingTypeMemory {
		t.Errorf("Lookup = %+v", md)
	}
	if md.LastModified.IsZero() {
		t.Error("LastModified should be set")
	}
}

func TestMemoryAbsenceIsNotAnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	md, err := m.Lookup(ctx, MustParsePath("/nope"))
	if err != nil || md != nil {
		t.Errorf("Lookup = (%v, %v), want (nil, nil)", md, err)
	}
	v, err := m.Load(ctx, MustParsePath("/nope"))
	if err != nil || v != nil {
		t.Errorf("Load = (%v, %v), want (nil, nil)", v, err)
	}
	v, err = m.Load(ctx, MustParsePath("/nope/"))
	if err != nil || v != nil {
		t.Errorf("Load index = (%v, %v), want (nil, nil)", v, err)
	}
}

func TestMemoryRootAlwaysDefined(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	v, err := m.Load(ctx, Root())
	if err != nil {
		t.Fatal(err)
	}
	idx, ok := v.(*Index)
	if !ok || !idx.IsEmpty() {
		t.Errorf("Load(root) on empty storage = %v, want empty Index", v)
	}

	md, err := m.Lookup(ctx, Root())
	if err != nil || md == nil || md.Category != CategoryIndex {
		t.Errorf("Lookup(root) = (%+v, %v)", md, err)
	}
}

func TestMemoryAncestorIndexChain(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	if err := m.Store(ctx, MustParsePath("/a/b/c"), 1); err != nil {
		t.Fatal(err)
	}

	v, err := m.Load(ctx, MustParsePath("/a/b/"))
	if err != nil {
		t.Fatal(err)
	}
	if idx := v.(*Index); !idx.HasObject("c") {
		t.Errorf("/a/b/ objects = %v, want [c]", idx.Objects())
	}

	v, err = m.Load(ctx, MustParsePath("/a/"))
	if err != nil {
		t.Fatal(err)
	}
	if idx := v.(*Index); !idx.HasIndex("b") {
		t.Errorf("/a/ sub-indices = %v, want [b]", idx.SubIndices())
	}

	v, err = m.Load(ctx, Root())
	if err != nil {
		t.Fatal(err)
	}
	if idx := v.(*Index); !idx.HasIndex("a") {
		t.Errorf("root sub-indices = %v, want [a]", idx.SubIndices())
	}
}

func TestMemoryLoadReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	m.Store(ctx, MustParsePath("/a/x"), 1)

	v, _ := m.Load(ctx, MustParsePath("/a/"))
	v.(*Index).AddObject("rogue")

	again, _ := m.Load(ctx, MustParsePath("/a/"))
	if again.(*Index).HasObject("rogue") {
		t.Error("mutating a loaded Index must not affect the storage")
	}
}

func TestMemoryRestoreReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	p := MustParsePath("/a/x")

	m.Store(ctx, p, "old")
	m.Store(ctx, p, "new")

	v, _ := m.Load(ctx, p)
	if v != "new" {
		t.Errorf("Load = %v, want new", v)
	}
	parent, _ := m.Load(ctx, MustParsePath("/a/"))
	if got := parent.(*Index).Objects(); len(got) != 1 {
		t.Errorf("parent objects = %v, want a single entry", got)
	}
}

func TestMemoryRemoveInverse(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	p := MustParsePath("/a/b/c")

	m.Store(ctx, p, 1)
	if err := m.Remove(ctx, p); err != nil {
		t.Fatal(err)
	}

	if md, _ := m.Lookup(ctx, p); md != nil {
		t.Errorf("Lookup after remove = %+v, want nil", md)
	}
	// The whole now-empty ancestor chain collapses.
	if v, _ := m.Load(ctx, MustParsePath("/a/b/")); v != nil {
		t.Errorf("/a/b/ should have collapsed, got %v", v)
	}
	if v, _ := m.Load(ctx, MustParsePath("/a/")); v != nil {
		t.Errorf("/a/ should have collapsed, got %v", v)
	}
	v, _ := m.Load(ctx, Root())
	if idx := v.(*Index); !idx.IsEmpty() {
		t.Errorf("root should be empty, got %v/%v", idx.SubIndices(), idx.Objects())
	}
}

func TestMemoryRemoveStopsAtNonEmptyAncestor(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	m.Store(ctx, MustParsePath("/a/b/c"), 1)
	m.Store(ctx, MustParsePath("/a/keep"), 2)

	m.Remove(ctx, MustParsePath("/a/b/c"))

	v, _ := m.Load(ctx, MustParsePath("/a/"))
	idx := v.(*Index)
	if idx.HasIndex("b") {
		t.Error("/a/ should have dropped the emptied sub-index b")
	}
	if !idx.HasObject("keep") {
		t.Error("/a/ must keep its remaining object")
	}
}

func TestMemoryRecursiveIndexRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	m.Store(ctx, MustParsePath("/a/x"), 1)
	m.Store(ctx, MustParsePath("/a/b/y"), 2)
	m.Store(ctx, MustParsePath("/other"), 3)

	if err := m.Remove(ctx, MustParsePath("/a/")); err != nil {
		t.Fatal(err)
	}

	for _, raw := range []string{"/a/x", "/a/b/y"} {
		if md, _ := m.Lookup(ctx, MustParsePath(raw)); md != nil {
			t.Errorf("%s should be gone", raw)
		}
	}
	v, _ := m.Load(ctx, Root())
	idx := v.(*Index)
	if idx.HasIndex("a") {
		t.Error("root should no longer list a")
	}
	if !idx.HasObject("other") {
		t.Error("unrelated entries must survive")
	}
}

func TestMemoryStorePreconditions(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	var illegalErr *IllegalOperationError
	if err := m.Store(ctx, MustParsePath("/a/"), 1); !errors.As(err, &illegalErr) {
		t.Errorf("store at index path = %v, want IllegalOperationError", err)
	}
	if err := m.Store(ctx, MustParsePath("/a"), nil); !errors.As(err, &illegalErr) {
		t.Errorf("store of nil data = %v, want IllegalOperationError", err)
	}
	// Nothing may have been touched.
	v, _ := m.Load(ctx, Root())
	if !v.(*Index).IsEmpty() {
		t.Error("failed stores must leave the storage untouched")
	}
}

func TestMemoryNameCannotBeObjectAndSubIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	if err := m.Store(ctx, MustParsePath("/x"), 1); err != nil {
		t.Fatal(err)
	}

	// "x" is an object under the root; the ancestor chain of /x/y would
	// need it as a sub-index as well.
	var illegalErr *IllegalOperationError
	if err := m.Store(ctx, MustParsePath("/x/y"), 2); !errors.As(err, &illegalErr) {
		t.Fatalf("store of /x/y over object /x = %v, want IllegalOperationError", err)
	}
	if v, _ := m.Load(ctx, MustParsePath("/x/y")); v != nil {
		t.Error("rejected store must leave nothing behind")
	}
	if v, _ := m.Load(ctx, MustParsePath("/x/")); v != nil {
		t.Error("rejected store must not materialize the sub-index")
	}

	// Enumeration and entries stay consistent after removing the object.
	if err := m.Remove(ctx, MustParsePath("/x")); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Load(ctx, Root())
	if !v.(*Index).IsEmpty() {
		t.Errorf("root should be empty, got %v/%v",
			v.(*Index).SubIndices(), v.(*Index).Objects())
	}
}

func TestMemoryNameCollisionReverseOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	if err := m.Store(ctx, MustParsePath("/x/y"), 1); err != nil {
		t.Fatal(err)
	}

	// Now "x" is a sub-index under the root; the object /x must be refused.
	var illegalErr *IllegalOperationError
	if err := m.Store(ctx, MustParsePath("/x"), 2); !errors.As(err, &illegalErr) {
		t.Fatalf("store of object /x beside sub-index /x/ = %v, want IllegalOperationError", err)
	}
	if v, _ := m.Load(ctx, MustParsePath("/x")); v != nil {
		t.Error("rejected store must leave nothing behind")
	}

	v, _ := m.Load(ctx, Root())
	idx := v.(*Index)
	if !idx.HasIndex("x") || idx.HasObject("x") {
		t.Errorf("root listing = %v/%v, want only sub-index x",
			idx.SubIndices(), idx.Objects())
	}
}

// hookPayload records Storable hook invocations.
type hookPayload struct {
	initErr    error
	destroyErr error
	inits      int
	destroys   int
	home       Storage
}

func (h *hookPayload) Init(_ context.Context, s Storage) error {
	h.inits++
	h.home = s
	return h.initErr
}

func (h *hookPayload) Destroy(_ context.Context, _ Storage) error {
	h.destroys++
	return h.destroyErr
}

func TestMemoryStorableHooks(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	p := MustParsePath("/a/x")

	h := &hookPayload{}
	if err := m.Store(ctx, p, h); err != nil {
		t.Fatal(err)
	}
	if h.inits != 1 {
		t.Errorf("inits = %d, want 1", h.inits)
	}
	if h.home != m {
		t.Error("Init must be bound to the owning storage")
	}

	if err := m.Remove(ctx, p); err != nil {
		t.Fatal(err)
	}
	if h.destroys != 1 {
		t.Errorf("destroys = %d, want 1", h.destroys)
	}
}

func TestMemoryStorableInitFailureAborts(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	p := MustParsePath("/a/x")

	h := &hookPayload{initErr: errors.New("boom")}
	err := m.Store(ctx, p, h)
	var accessErr *AccessError
	if !errors.As(err, &accessErr) {
		t.Fatalf("Store = %v, want AccessError", err)
	}
	if !errors.Is(err, h.initErr) {
		t.Error("AccessError must wrap the hook's cause")
	}
	if md, _ := m.Lookup(ctx, p); md != nil {
		t.Error("a failed init must leave nothing behind")
	}
}

func TestMemoryStorableDestroyFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	p := MustParsePath("/a/x")

	h := &hookPayload{destroyErr: errors.New("boom")}
	m.Store(ctx, p, h)
	if err := m.Remove(ctx, p); err != nil {
		t.Fatalf("Remove = %v, a failing destroy must not surface", err)
	}
	if md, _ := m.Lookup(ctx, p); md != nil {
		t.Error("entry must be gone despite the failing destroy hook")
	}
	if h.destroys != 1 {
		t.Errorf("destroys = %d, want 1", h.destroys)
	}
}

func TestMemoryRemoveMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	if err := m.Remove(ctx, MustParsePath("/ghost")); err != nil {
		t.Errorf("Remove of missing entry = %v, want nil", err)
	}
}
