package integrate

import (
	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/store"
)

// resolveOrigins implements spec.md §4.6 Step 1: locate, splitting as
// needed, the blocks containing T's origin_left and origin_right. L ends
// at origin_left (right edge of the left half); R starts at origin_right
// (left edge of the right half) — the two split directions store.Txn
// exposes as FindBlockEndingAt and FindContaining respectively.
func resolveOrigins(tx *store.Txn, h *block.Header) (L, R *block.Block, err error) {
	if h.HasOriginLeft() {
		L, err = tx.FindBlockEndingAt(h.OriginLeft)
		if err != nil {
			return nil, nil, err
		}
	}
	if h.HasOriginRight() {
		R, err = tx.FindContaining(h.OriginRight)
		if err != nil {
			return nil, nil, err
		}
	}
	return L, R, nil
}

// inferParent implements spec.md §4.6 Step 2: when the carrier didn't
// encode an explicit parent (at least one origin was present on the wire),
// inherit it, and the key it lives under, from whichever origin block is
// available.
func inferParent(blk *block.Block, L, R *block.Block) {
	src := L
	if src == nil {
		src = R
	}
	if src == nil {
		return
	}
	blk.Header.Parent = src.Header.Parent
	blk.Header.Key = src.Header.Key
}
