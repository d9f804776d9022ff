package vstore

import (
	"errors"
	"fmt"
)

// ErrInvalidPath reports a malformed textual path.
var ErrInvalidPath = errors.New("vstore: invalid path")

// ConflictError reports a mount-table violation: mounting over an existing
// exact mount path, or remounting/unmounting a path with no mount.
type ConflictError struct {
	Path   Path
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("vstore: mount conflict at %s: %s", e.Path, e.Reason)
}

// AccessError reports a read-only violation or a backend failure. When a
// backend caused it, Err carries the original cause.
type AccessError struct {
	Path   Path
	Reason string
	Err    error
}

func (e *AccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vstore: access to %s failed: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("vstore: access to %s failed: %s", e.Path, e.Reason)
}

func (e *AccessError) Unwrap() error { return e.Err }

// IllegalOperationError reports a structural precondition violation. It is
// raised synchronously, before any backend is touched.
type IllegalOperationError struct {
	Op     string
	Path   Path
	Reason string
}

func (e *IllegalOperationError) Error() string {
	return fmt.Sprintf("vstore: illegal %s at %s: %s", e.Op, e.Path, e.Reason)
}
