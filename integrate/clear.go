package integrate

import (
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/store"
)

// Clear implements the map `clear` operation resolved as a spec.md §9 Open
// Question: rather than a new wire block type, it deletes the currently
// visible (terminal) block of every real key under parent, reusing
// ApplyDeleteSet's tombstone path. Grounded on original_source/
// src/types/map.rs's per-key head tracking, expressed here as ordinary
// delete application per SPEC_FULL.md §12.
//
// The anonymous front-of-sequence slot (keyHash == emptySequenceKeyHash,
// see commit.go) is skipped: it isn't a map entry, it's the list/text
// insertion anchor, and clearing a node's keyed attributes must not also
// delete its sequence content.
func Clear(tx *store.Txn, parent id.NodeID) error {
	var heads []id.ID
	err := tx.MapHeads(parent, func(keyHash uint32, head id.ID) bool {
		if keyHash == emptySequenceKeyHash {
			return true
		}
		heads = append(heads, head)
		return true
	})
	if err != nil {
		return err
	}

	for _, head := range heads {
		if err := clearOne(tx, head); err != nil {
			return err
		}
	}
	return nil
}

// clearOne deletes the full range of a single key's currently visible
// block. Shadowed (already-superseded-but-live) history behind it is left
// alone — it was never user-visible, and tombstone GC is out of scope.
func clearOne(tx *store.Txn, head id.ID) error {
	blk, err := tx.GetBlock(head)
	if err != nil {
		return err
	}
	if blk.Header.Deleted() {
		return nil
	}
	ds := id.NewIDSet()
	ds.Insert(blk.ID, blk.Header.ClockLen)
	return ApplyDeleteSet(tx, ds)
}
