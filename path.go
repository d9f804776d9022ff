package vstore

import (
	"fmt"
	"strings"
)

// Path is an immutable identifier for an entry in the hierarchical
// namespace: an ordered sequence of non-empty segments plus a flag that
// separates index (container) paths from object (leaf) paths.
//
// The zero value is the root index path. Path values are safe to copy and
// to use concurrently; String returns a canonical form suitable as a map
// key and ParsePath round-trips it.
type Path struct {
	segments []string
	leaf     bool
}

// Root returns the zero-segment index path.
func Root() Path { return Path{} }

// ParsePath parses a slash-separated path. A leading slash is stripped; a
// trailing slash or the empty string denotes an index path. Empty interior
// segments are rejected with ErrInvalidPath.
func ParsePath(s string) (Path, error) {
	raw := s
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return Root(), nil
	}
	index := strings.HasSuffix(s, "/")
	if index {
		s = s[:len(s)-1]
	}
	if s == "" {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	segments := strings.Split(s, "/")
	for _, seg := range segments {
		if seg == "" {
			return Path{}, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, raw)
		}
	}
	return Path{segments: segments, leaf: !index}, nil
}

// MustParsePath is ParsePath for statically known inputs; it panics on a
// malformed path.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsIndex reports whether p addresses a container of child names.
func (p Path) IsIndex() bool { return !p.leaf }

// IsRoot reports whether p is the zero-segment index path.
func (p Path) IsRoot() bool { return len(p.segments) == 0 && !p.leaf }

// Depth returns the number of index levels below root: the segment count
// for index paths, one less for object paths.
func (p Path) Depth() int {
	if p.leaf {
		return len(p.segments) - 1
	}
	return len(p.segments)
}

// Parent returns the index path one level up. The root is its own parent.
func (p Path) Parent() Path {
	if len(p.segments) == 0 {
		return Root()
	}
	return Path{segments: p.segments[:len(p.segments)-1]}
}

// Name returns the last segment, or "" for the root.
func (p Path) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// NameAt returns the segment at position i.
func (p Path) NameAt(i int) string { return p.segments[i] }

// Child returns the path for the named entry directly under the index path
// p. The name must be non-empty and free of slashes.
func (p Path) Child(name string, index bool) (Path, error) {
	if p.leaf {
		return Path{}, &IllegalOperationError{Op: "child", Path: p, Reason: "not an index path"}
	}
	if name == "" || strings.Contains(name, "/") {
		return Path{}, fmt.Errorf("%w: child name %q", ErrInvalidPath, name)
	}
	segments := make([]string, len(p.segments)+1)
	copy(segments, p.segments)
	segments[len(p.segments)] = name
	return Path{segments: segments, leaf: !index}, nil
}

// Descendant appends the segments of rel below the index path p; the result
// keeps rel's index/object flag.
func (p Path) Descendant(rel Path) (Path, error) {
	if p.leaf {
		return Path{}, &IllegalOperationError{Op: "descendant", Path: p, Reason: "not an index path"}
	}
	segments := make([]string, 0, len(p.segments)+len(rel.segments))
	segments = append(segments, p.segments...)
	segments = append(segments, rel.segments...)
	return Path{segments: segments, leaf: rel.leaf}, nil
}

// SubPath drops the first fromDepth segments, keeping the index/object
// flag. It is the inverse of Descendant relative to a mount prefix.
func (p Path) SubPath(fromDepth int) (Path, error) {
	if fromDepth < 0 || fromDepth > len(p.segments) {
		return Path{}, fmt.Errorf("%w: sub-path depth %d of %s", ErrInvalidPath, fromDepth, p)
	}
	if p.leaf && fromDepth == len(p.segments) {
		return Path{}, fmt.Errorf("%w: sub-path depth %d of object path %s", ErrInvalidPath, fromDepth, p)
	}
	segments := make([]string, len(p.segments)-fromDepth)
	copy(segments, p.segments[fromDepth:])
	return Path{segments: segments, leaf: p.leaf}, nil
}

// StartsWith reports whether p lies within the index path prefix. An object
// path never starts with the index path of the same segments; the entries
// are distinct.
func (p Path) StartsWith(prefix Path) bool {
	if prefix.leaf {
		return false
	}
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	if p.leaf && len(prefix.segments) == len(p.segments) {
		return false
	}
	for i, seg := range prefix.segments {
		if p.segments[i] != seg {
			return false
		}
	}
	return true
}

// Equal reports structural equality: same segments, same flag.
func (p Path) Equal(o Path) bool {
	if p.leaf != o.leaf || len(p.segments) != len(o.segments) {
		return false
	}
	for i, seg := range p.segments {
		if o.segments[i] != seg {
			return false
		}
	}
	return true
}

// String renders the canonical form: "/" for the root, a leading slash plus
// slash-joined segments otherwise, with a trailing slash on index paths.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, seg := range p.segments {
		sb.WriteByte('/')
		sb.WriteString(seg)
	}
	if !p.leaf {
		sb.WriteByte('/')
	}
	return sb.String()
}

// key is the canonical map key; identical to String.
func (p Path) key() string { return p.String() }
