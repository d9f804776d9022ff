package vstore

import "time"

// Category classifies what kind of entry a path resolves to.
type Category int

const (
	// CategoryIndex marks a container of child names.
	CategoryIndex Category = iota
	// CategoryObject marks a stored payload.
	CategoryObject
	// CategoryFile marks a payload backed by a file on disk.
	CategoryFile
)

func (c Category) String() string {
	switch c {
	case CategoryIndex:
		return "index"
	case CategoryObject:
		return "object"
	case CategoryFile:
		return "file"
	default:
		return "unknown"
	}
}

// Metadata describes an entry without exposing its payload: what kind of
// entry it is, which backend type holds it, and when it last changed. For
// an index path LastModified is the freshest timestamp among the entries
// that contribute to it.
type Metadata struct {
	Category     Category
	BackingType  string
	LastModified time.Time
}

// LaterModified returns the later of two timestamps. A zero value on either
// side yields the other.
func LaterModified(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.After(a) {
		return b
	}
	return a
}
