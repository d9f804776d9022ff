package vstore

import "sort"

// Index enumerates the immediate children of one index path: the names of
// its sub-indices and the names of its objects. Both sets are kept sorted
// and unique, and a name belongs to at most one of the two sets.
//
// Load returns fresh Index snapshots; mutating a snapshot never affects the
// backend it came from.
type Index struct {
	subIndices []string
	objects    []string
}

// NewIndex returns an empty Index.
func NewIndex() *Index { return &Index{} }

// AddIndex records name as a sub-index. It reports whether the Index
// changed: false when the name is already present in either set.
func (ix *Index) AddIndex(name string) bool {
	if ix.HasObject(name) {
		return false
	}
	var changed bool
	ix.subIndices, changed = insertName(ix.subIndices, name)
	return changed
}

// AddObject records name as an object. It reports whether the Index
// changed: false when the name is already present in either set.
func (ix *Index) AddObject(name string) bool {
	if ix.HasIndex(name) {
		return false
	}
	var changed bool
	ix.objects, changed = insertName(ix.objects, name)
	return changed
}

// RemoveIndex drops name from the sub-index set, reporting whether it was
// present.
func (ix *Index) RemoveIndex(name string) bool {
	var removed bool
	ix.subIndices, removed = removeName(ix.subIndices, name)
	return removed
}

// RemoveObject drops name from the object set, reporting whether it was
// present.
func (ix *Index) RemoveObject(name string) bool {
	var removed bool
	ix.objects, removed = removeName(ix.objects, name)
	return removed
}

// HasIndex reports whether name is listed as a sub-index.
func (ix *Index) HasIndex(name string) bool { return containsName(ix.subIndices, name) }

// HasObject reports whether name is listed as an object.
func (ix *Index) HasObject(name string) bool { return containsName(ix.objects, name) }

// SubIndices returns the sorted sub-index names as a copy.
func (ix *Index) SubIndices() []string { return append([]string(nil), ix.subIndices...) }

// Objects returns the sorted object names as a copy.
func (ix *Index) Objects() []string { return append([]string(nil), ix.objects...) }

// Len returns the total number of listed names.
func (ix *Index) Len() int { return len(ix.subIndices) + len(ix.objects) }

// IsEmpty reports whether both sets are empty.
func (ix *Index) IsEmpty() bool { return len(ix.subIndices) == 0 && len(ix.objects) == 0 }

// Clone returns an independent copy.
func (ix *Index) Clone() *Index {
	return &Index{
		subIndices: append([]string(nil), ix.subIndices...),
		objects:    append([]string(nil), ix.objects...),
	}
}

// MergeIndexes unions two Index values of the same path into a fresh Index.
// Either side may be nil; the merge of two nils is nil.
func MergeIndexes(a, b *Index) *Index {
	if a == nil && b == nil {
		return nil
	}
	if a == nil {
		return b.Clone()
	}
	if b == nil {
		return a.Clone()
	}
	merged := a.Clone()
	for _, name := range b.subIndices {
		merged.AddIndex(name)
	}
	for _, name := range b.objects {
		merged.AddObject(name)
	}
	return merged
}

func insertName(names []string, name string) ([]string, bool) {
	i := sort.SearchStrings(names, name)
	if i < len(names) && names[i] == name {
		return names, false
	}
	names = append(names, "")
	copy(names[i+1:], names[i:])
	names[i] = name
	return names, true
}

func removeName(names []string, name string) ([]string, bool) {
	i := sort.SearchStrings(names, name)
	if i >= len(names) || names[i] != name {
		return names, false
	}
	return append(names[:i], names[i+1:]...), true
}

func containsName(names []string, name string) bool {
	i := sort.SearchStrings(names, name)
	return i < len(names) && names[i] == name
}
