// Package errs defines the sentinel error taxonomy shared by every layer of
// crdtstore, per the failure semantics table: I/O, decode, and store errors
// are distinct so callers can errors.Is/errors.As instead of string-matching.
package errs

import (
	"errors"
	"fmt"

	"github.com/cshekharsharma/crdtstore/id"
)

var (
	// ErrIO wraps an underlying I/O failure from a reader, writer, or the
	// backing store engine.
	ErrIO = errors.New("i/o error")

	// ErrEndOfBuffer is returned when a decoder runs out of bytes mid-value.
	ErrEndOfBuffer = errors.New("unexpected end of buffer")

	// ErrValueOutOfRange is returned when a varint exceeds the maximum
	// number of continuation bytes for its target width.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrMalformedBlock is returned when a decoded block violates a
	// structural invariant (bad flags combination, inconsistent lengths).
	ErrMalformedBlock = errors.New("malformed block")

	// ErrUnsupportedContentType is returned for content types this engine
	// does not integrate (Move, Doc).
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrBlockNotFound is returned when a lookup by ID finds nothing. It is
	// recoverable: callers performing integration should catch it via
	// AsPendingDependency and queue the carrier instead of failing.
	ErrBlockNotFound = errors.New("block not found")

	// ErrKeyTooLong is returned when a map/parent key exceeds 255 bytes.
	ErrKeyTooLong = errors.New("key too long")

	// ErrNonStringKey is returned when an any-value object key is not a
	// string.
	ErrNonStringKey = errors.New("non-string object key")

	// ErrUnknownTag is returned when an any-value tag byte is not in the
	// known vocabulary.
	ErrUnknownTag = errors.New("unknown any-value tag")

	// ErrHashCollision is returned when an interned string's hash collides
	// with a different string already stored under that hash.
	ErrHashCollision = errors.New("interned string hash collision")

	// ErrStore wraps an opaque failure from the backing KV engine.
	ErrStore = errors.New("store error")

	// ErrUpdateIncomplete is returned from Transaction.Commit when one or
	// more carriers are still queued on pending dependencies.
	ErrUpdateIncomplete = errors.New("update incomplete: unresolved dependencies remain")
)

// PendingDependencyError signals that a carrier could not be integrated
// because it references an ID (origin_left, origin_right, or parent) that
// has not been observed yet. It is not a terminal failure: the caller should
// queue the carrier behind Missing and retry once Missing arrives.
type PendingDependencyError struct {
	Missing id.ID
}

func (e *PendingDependencyError) Error() string {
	return fmt.Sprintf("pending dependency on %s", e.Missing)
}

func (e *PendingDependencyError) Is(target error) bool {
	return target == ErrBlockNotFound
}

// NewPendingDependency builds a PendingDependencyError for the given
// missing ID.
func NewPendingDependency(missing id.ID) error {
	return &PendingDependencyError{Missing: missing}
}

// AsPendingDependency reports whether err is a PendingDependencyError and
// returns it.
func AsPendingDependency(err error) (*PendingDependencyError, bool) {
	var pd *PendingDependencyError
	if errors.As(err, &pd) {
		return pd, true
	}
	return nil, false
}
