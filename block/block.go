// Package block implements the CRDT block model: the fixed-layout header
// plus typed content, and the split/merge operations that let a stored
// run of clocks be carved up or coalesced as origins demand.
//
// Grounded on cshekharsharma-go-crdt's rga.go Node{ID,ParentID,Value,Deleted,
// Next} (the single-unit ancestor of this multi-unit block), generalized
// per spec.md §3.3/§4.3, with split/merge edge cases resolved against
// original_source/src/block.rs's can_merge/split.
package block

import (
	"unicode/utf8"

	"github.com/cshekharsharma/crdtstore/errs"
	"github.com/cshekharsharma/crdtstore/id"
)

// Block is one stored run: a header describing its identity and neighbor
// links, plus its content. A block with ClockLen > 1 represents multiple
// consecutive logical operations from the same client (e.g. several
// characters of inserted text) compacted into one physical record.
type Block struct {
	ID      id.ID
	Header  Header
	Body    []byte   // String/Binary/Embed: the raw payload
	Parts   [][]byte // Atom/JSON: one any-value-encoded element per unit
	NodeRef uint8    // Node: the nested node's type discriminator

	// Format content carries both a format key and an any-value-encoded
	// value; always a single unit (ClockLen == 1).
	FormatKey   string
	FormatValue []byte
}

// New builds a block with the given identity and header, setting the
// countable flag from the content type. Header.ClockLen is taken as given;
// Body, Parts and the other content fields are left for the caller to fill.
func New(blockID id.ID, header Header) *Block {
	b := &Block{ID: blockID, Header: header}
	b.Header.Flags = b.Header.Flags.With(FlagCountable, header.ContentType.Countable())
	return b
}

// LastID returns the ID of the final logical unit this block covers.
func (b *Block) LastID() id.ID {
	if b.Header.ClockLen == 0 {
		return b.ID
	}
	return id.ID{Client: b.ID.Client, Clock: b.ID.Clock + b.Header.ClockLen - 1}
}

// End returns the clock one past the last unit this block covers — the
// same quantity a state vector entry would hold after integrating it.
func (b *Block) End() id.Clock {
	return b.ID.Clock + b.Header.ClockLen
}

// Contains reports whether target falls within this block's clock range
// (same client, clock in [b.ID.Clock, b.End())).
func (b *Block) Contains(target id.ID) bool {
	return target.Client == b.ID.Client &&
		target.Clock >= b.ID.Clock && target.Clock < b.End()
}

// Offset returns how many units into this block target falls, assuming
// Contains(target) is true.
func (b *Block) Offset(target id.ID) id.Clock {
	return target.Clock - b.ID.Clock
}

// Split divides the block at offset (0 < offset < ClockLen) into two
// blocks: the receiver, truncated to [0, offset), and a new block covering
// [offset, ClockLen). The new right block inherits the receiver's Right
// neighbor and OriginRight; the receiver's Right is rewired to point at
// the new block, and the new block's OriginLeft is set to the receiver's
// new LastID so the two halves remain correctly ordered relative to any
// future insert landing between them.
//
// Only Mergeable content types (string, atom, json, deleted) may be split;
// per spec.md §4.3 invariants.
func (b *Block) Split(offset id.Clock) (*Block, error) {
	if !b.Header.ContentType.Splittable() {
		return nil, errs.ErrMalformedBlock
	}
	if offset <= 0 || offset >= b.Header.ClockLen {
		return nil, errs.ErrMalformedBlock
	}

	rightID := id.ID{Client: b.ID.Client, Clock: b.ID.Clock + offset}
	rightHeader := b.Header
	rightHeader.ClockLen = b.Header.ClockLen - offset
	rightHeader.OriginRight = b.Header.OriginRight
	rightHeader.Flags = rightHeader.Flags.With(FlagHasOriginRight, b.Header.HasOriginRight())
	if b.Header.HasRight() {
		rightHeader.Right = b.Header.Right
		rightHeader.Flags = rightHeader.Flags.With(FlagHasRight, true)
	} else {
		rightHeader.ClearRight()
	}

	right := New(rightID, rightHeader)

	switch b.Header.ContentType {
	case ContentString:
		cut := utf16ByteOffset(string(b.Body), int(offset))
		right.Body = append([]byte(nil), b.Body[cut:]...)
		b.Body = b.Body[:cut]
	case ContentAtom, ContentJSON:
		right.Parts = append([][]byte(nil), b.Parts[offset:]...)
		b.Parts = b.Parts[:offset]
	case ContentDeleted:
		// no body to slice; ClockLen split above already did the work
	}

	right.Header.OriginLeft = id.ID{Client: b.ID.Client, Clock: b.ID.Clock + offset - 1}
	right.Header.Flags = right.Header.Flags.With(FlagHasOriginLeft, true)

	b.Header.ClockLen = offset
	b.Header.SetRight(rightID)

	return right, nil
}

// UTF16Len returns the number of UTF-16 code units s would occupy, matching
// original_source's yrs-derived ClockLen accounting for text blocks: a rune
// outside the Basic Multilingual Plane (astral-plane characters — emoji and
// similar) is a surrogate pair and counts as 2 units, every other rune as 1.
func UTF16Len(s string) id.Clock {
	var n id.Clock
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// utf16ByteOffset returns the UTF-8 byte offset in s whose prefix occupies
// exactly unitOffset UTF-16 code units, the byte cut Split needs since
// ClockLen (and a split offset) are in UTF-16 units, not runes or bytes.
func utf16ByteOffset(s string, unitOffset int) int {
	i := 0
	n := 0
	for n < unitOffset {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
		i += size
	}
	return i
}

// CanMerge reports whether other may be appended onto the receiver: same
// client, contiguous clocks, compatible mergeable content type, matching
// tombstone state, same parent/key, and other's OriginLeft pointing at the
// receiver's LastID (spec.md §4.3).
func (b *Block) CanMerge(other *Block) bool {
	if !b.Header.ContentType.Mergeable() || b.Header.ContentType != other.Header.ContentType {
		return false
	}
	if b.ID.Client != other.ID.Client {
		return false
	}
	if b.End() != other.ID.Clock {
		return false
	}
	if b.Header.Deleted() != other.Header.Deleted() {
		return false
	}
	if b.Header.Parent != other.Header.Parent || b.Header.Key != other.Header.Key {
		return false
	}
	if !other.Header.HasOriginLeft() || other.Header.OriginLeft != b.LastID() {
		return false
	}
	return true
}

// Merge absorbs other onto the receiver in place, returning true if the
// merge happened. Callers are responsible for unlinking other from the
// store afterward.
func (b *Block) Merge(other *Block) bool {
	if !b.CanMerge(other) {
		return false
	}
	switch b.Header.ContentType {
	case ContentString:
		b.Body = append(b.Body, other.Body...)
	case ContentAtom, ContentJSON:
		b.Parts = append(b.Parts, other.Parts...)
	case ContentDeleted:
		// nothing to append; ClockLen carries all the information
	}
	b.Header.ClockLen += other.Header.ClockLen
	if other.Header.HasRight() {
		b.Header.SetRight(other.Header.Right)
	} else {
		b.Header.ClearRight()
	}
	if other.Header.HasOriginRight() {
		b.Header.SetOriginRight(other.Header.OriginRight)
	}
	return true
}
