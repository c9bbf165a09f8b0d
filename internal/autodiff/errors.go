package autodiff

import "errors"

// Sentinel errors returned by tape operations.
//
// Both conditions are recoverable: the caller may Reset() and rebuild the
// graph after ErrCapacityExceeded, and ErrStaleHandle signals a handle that
// outlived a Reset() or ReleaseParameters() call.
var (
	// ErrCapacityExceeded is returned when allocating a node would exceed
	// the tape's configured maximum node count.
	ErrCapacityExceeded = errors.New("tape capacity exceeded")

	// ErrStaleHandle is returned when a handle issued before a Reset()
	// (or ReleaseParameters(), for parameter handles) is dereferenced.
	// Stale handles are detected via a generation counter embedded in the
	// handle, never silently aliased to unrelated nodes.
	ErrStaleHandle = errors.New("stale handle")
)
