package block

import "github.com/cshekharsharma/crdtstore/errs"

// ContentType enumerates the kinds of payload a block can carry, as a flat
// byte enum rather than a trait/interface hierarchy (spec.md §9 Design
// Notes: polymorphism via flat enum keeps the on-disk header fixed-size and
// avoids a vtable indirection on every block touched during integration).
//
// Grounded on original_source/src/content.rs's BlockContent enum and
// src/block.rs's CONTENT_TYPE_* constants.
type ContentType uint8

const (
	ContentGC      ContentType = 0
	ContentDeleted ContentType = 1
	ContentJSON    ContentType = 2
	ContentBinary  ContentType = 3
	ContentString  ContentType = 4
	ContentEmbed   ContentType = 5
	ContentFormat  ContentType = 6
	ContentNode    ContentType = 7
	ContentAtom    ContentType = 8
	ContentDoc     ContentType = 9
	ContentSkip    ContentType = 10
	ContentMove    ContentType = 11
)

// Countable reports whether blocks of this content type occupy visible
// positions in their parent's sequence (and so count towards clock_len in
// the position-counting sense used by cursor/index lookups), per spec.md
// §3.4. Deleted and GC/Skip carriers are not countable; everything else is.
func (t ContentType) Countable() bool {
	switch t {
	case ContentDeleted, ContentGC, ContentSkip:
		return false
	default:
		return true
	}
}

// Mergeable reports whether two adjacent blocks of this content type are
// allowed to merge (spec.md §4.3 Split/Merge invariants): only text, atom,
// json, and tombstoned (deleted) runs may merge.
func (t ContentType) Mergeable() bool {
	switch t {
	case ContentString, ContentAtom, ContentJSON, ContentDeleted:
		return true
	default:
		return false
	}
}

// Splittable reports whether a block of this type can be split mid-run.
// Same set as Mergeable: a split is only meaningful for multi-unit runs.
func (t ContentType) Splittable() bool {
	return t.Mergeable()
}

// String names the content type for logging and the inspect CLI.
func (t ContentType) String() string {
	switch t {
	case ContentGC:
		return "gc"
	case ContentDeleted:
		return "deleted"
	case ContentJSON:
		return "json"
	case ContentBinary:
		return "binary"
	case ContentString:
		return "string"
	case ContentEmbed:
		return "embed"
	case ContentFormat:
		return "format"
	case ContentNode:
		return "node"
	case ContentAtom:
		return "atom"
	case ContentDoc:
		return "doc"
	case ContentSkip:
		return "skip"
	case ContentMove:
		return "move"
	default:
		return "unknown"
	}
}

// Validate rejects content types this engine does not integrate (the §9
// Open Question resolution: Move and Doc are recognized on the wire but
// never integrated).
func (t ContentType) Validate() error {
	switch t {
	case ContentMove, ContentDoc:
		return errs.ErrUnsupportedContentType
	}
	return nil
}
