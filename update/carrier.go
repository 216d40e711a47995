// Package update implements the update (carrier) wire codec: the
// lazy-decodable sequence of per-client block/GC/skip runs plus a trailing
// delete set that makes up one update.Update, per spec.md §4.4.
//
// Grounded on original_source/src/block_reader.rs's Carrier enum and
// BlockReader lazy iterator, and cshekharsharma-go-crdt's rga.go
// Merge([]Node) batch-apply idiom (the Go analogue of applying a decoded
// update's carriers one at a time).
package update

import (
	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/id"
)

// Carrier is one entry in an update's per-client block stream: either a
// real Block, or a GC/Skip range that only advances the clock without
// integrating content.
type Carrier interface {
	// Head is the ID of the first clock unit this carrier covers.
	Head() id.ID
	// Len is how many clock units this carrier covers.
	Len() id.Clock
}

// Range is a GC or Skip carrier: it occupies clock space but carries no
// block to integrate. GC means "this range existed and was garbage
// collected by the sender, there is nothing here." Skip means "this
// range is intentionally absent, e.g. used to pad out a gap"; spec.md
// §4.4 treats both as advancing the state vector only.
type Range struct {
	Kind   RangeKind
	Origin id.ID
	Length id.Clock
}

// RangeKind distinguishes a GC range from a Skip range; both share the
// same wire shape (head ID + length) and integration behavior (advance
// the state vector, nothing else).
type RangeKind uint8

const (
	RangeGC RangeKind = iota
	RangeSkip
)

func (r Range) Head() id.ID    { return r.Origin }
func (r Range) Len() id.Clock  { return r.Length }

// ParentRef records how a block's parent node was encoded, for carriers
// where the parent couldn't be inferred from a neighboring block (spec.md
// §4.6 Step 2). When IsRoot is false, the parent NodeID is derived from
// NestedOwner via id.NestedNodeID.
type ParentRef struct {
	IsRoot      bool
	RootName    string
	NestedOwner id.ID
}

// BlockCarrier wraps a decoded block.Block alongside the parent
// information the encoder chose to carry explicitly (nil if the decoder
// should infer the parent from a neighbor at integration time).
type BlockCarrier struct {
	Blk    *block.Block
	Parent *ParentRef
}

func (c *BlockCarrier) Head() id.ID   { return c.Blk.ID }
func (c *BlockCarrier) Len() id.Clock { return c.Blk.Header.ClockLen }
