package block

import "github.com/cshekharsharma/crdtstore/id"

// Flags is the bit vector carried alongside every block header. Grounded on
// original_source/src/block.rs's BlockFlags bitflags, kept at the same bit
// positions so the wire layout matches spec.md §3.3 byte-for-byte.
type Flags uint8

const (
	FlagKeep Flags = 1 << iota
	FlagCountable
	FlagDeleted
	FlagMarked
	FlagHasRight
	FlagHasLeft
	FlagHasOriginRight
	FlagHasOriginLeft
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

func (f Flags) With(bit Flags, set bool) Flags {
	if set {
		return f | bit
	}
	return f &^ bit
}

// Header is the fixed-layout metadata every block carries, independent of
// its content payload. Field order matches original_source/src/block.rs's
// BlockHeader for documentation purposes; this repo serializes it with
// the explicit varint-based codec in codec.go rather than a zero-copy
// repr(C) cast (spec.md §9 notes the original's zero-copy trick is an
// optimization, not a correctness requirement).
type Header struct {
	ClockLen    id.Clock
	Flags       Flags
	ContentType ContentType
	Left        id.ID
	Right       id.ID
	OriginLeft  id.ID
	OriginRight id.ID
	Parent      id.NodeID
	Key         string // parent-relative map key, "" if absent; max 255 bytes
}

// HasLeft/HasRight/HasOriginLeft/HasOriginRight/Deleted/Keep/Marked mirror
// the corresponding Flags bit for callers that don't want to reach into
// Header.Flags directly.

func (h *Header) HasLeft() bool        { return h.Flags.Has(FlagHasLeft) }
func (h *Header) HasRight() bool       { return h.Flags.Has(FlagHasRight) }
func (h *Header) HasOriginLeft() bool  { return h.Flags.Has(FlagHasOriginLeft) }
func (h *Header) HasOriginRight() bool { return h.Flags.Has(FlagHasOriginRight) }
func (h *Header) Deleted() bool        { return h.Flags.Has(FlagDeleted) }
func (h *Header) Keep() bool           { return h.Flags.Has(FlagKeep) }
func (h *Header) Marked() bool         { return h.Flags.Has(FlagMarked) }
func (h *Header) HasKey() bool         { return h.Key != "" }

func (h *Header) SetDeleted(v bool) {
	h.Flags = h.Flags.With(FlagDeleted, v)
}

func (h *Header) SetLeft(v id.ID) {
	h.Left = v
	h.Flags = h.Flags.With(FlagHasLeft, true)
}

func (h *Header) ClearLeft() {
	h.Left = id.ID{}
	h.Flags = h.Flags.With(FlagHasLeft, false)
}

func (h *Header) SetRight(v id.ID) {
	h.Right = v
	h.Flags = h.Flags.With(FlagHasRight, true)
}

func (h *Header) ClearRight() {
	h.Right = id.ID{}
	h.Flags = h.Flags.With(FlagHasRight, false)
}

func (h *Header) SetOriginLeft(v id.ID) {
	h.OriginLeft = v
	h.Flags = h.Flags.With(FlagHasOriginLeft, true)
}

func (h *Header) SetOriginRight(v id.ID) {
	h.OriginRight = v
	h.Flags = h.Flags.With(FlagHasOriginRight, true)
}
