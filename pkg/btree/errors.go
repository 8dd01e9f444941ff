package btree

import (
	"errors"
)

var (
	// ErrStorageCorruption is returned when a node record is missing or
	// cannot be decoded. The operation in progress is abandoned and nothing
	// is repaired.
	ErrStorageCorruption = errors.New("storage corruption")

	// ErrInvariantViolation signals a structural inconsistency found while
	// walking the tree: a bug, not a runtime condition.
	ErrInvariantViolation = errors.New("tree invariant violated")

	// ErrInvalidDegree is returned when the minimum degree is below 2.
	ErrInvalidDegree = errors.New("minimum degree must be at least 2")

	// ErrDegreeMismatch is returned when a store written with one minimum
	// degree is opened with another.
	ErrDegreeMismatch = errors.New("minimum degree does not match the store")

	// ErrUnencodable is returned when a key or value cannot be written by the
	// store without changing it, e.g. a string that is not valid UTF-8.
	ErrUnencodable = errors.New("entry cannot be encoded")

	// ErrClosed is returned by stores after Close.
	ErrClosed = errors.New("store is closed")
)
