package integrate

import (
	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/pkg/metrics"
	"github.com/cshekharsharma/crdtstore/store"
)

// ApplyDeleteSet implements spec.md §4.6 Step 6: every block (or sub-range
// of a block, split to the range's boundaries) named by ds is marked
// deleted, its content dropped to a bare length, and merged into any
// newly-adjacent deleted block where spec.md §3.3's merge conditions
// permit.
func ApplyDeleteSet(tx *store.Txn, ds *id.IDSet) error {
	for _, client := range ds.Clients() {
		for _, r := range ds.Ranges(client) {
			if err := deleteRange(tx, r.Start, r.Length); err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteRange(tx *store.Txn, start id.ID, length id.Clock) error {
	end := start.Clock + length
	cursor := start
	for cursor.Clock < end {
		blk, err := tx.FindContaining(cursor)
		if err != nil {
			return err
		}
		if blk.End() > end {
			right, err := blk.Split(end - blk.ID.Clock)
			if err != nil {
				return err
			}
			if err := tx.PutBlock(blk); err != nil {
				return err
			}
			if err := tx.PutBlock(right); err != nil {
				return err
			}
		}
		if err := tombstone(tx, blk); err != nil {
			return err
		}
		cursor = id.ID{Client: start.Client, Clock: blk.End()}
	}
	return nil
}

// tombstone converts blk into a bare length-only Deleted block, drops its
// payload, and attempts to merge it into any now-adjacent deleted
// neighbors.
func tombstone(tx *store.Txn, blk *block.Block) error {
	blk.Header.ContentType = block.ContentDeleted
	blk.Body = nil
	blk.Parts = nil
	blk.FormatKey = ""
	blk.FormatValue = nil
	blk.NodeRef = 0
	blk.Header.SetDeleted(true)
	blk.Header.Flags = blk.Header.Flags.With(block.FlagCountable, false)
	metrics.DeleteSetBlocksTombstoned.Inc()

	if err := tx.PutBlock(blk); err != nil {
		return err
	}
	return mergeWithNeighbors(tx, blk)
}

// mergeWithNeighbors absorbs blk into its left deleted neighbor, then its
// (possibly new) right deleted neighbor, if spec.md §3.3's merge
// conditions permit, rewiring the remaining neighbor's reciprocal pointer
// and dropping the absorbed block's own record.
func mergeWithNeighbors(tx *store.Txn, blk *block.Block) error {
	cur := blk

	if cur.Header.HasLeft() {
		left, err := tx.GetBlock(cur.Header.Left)
		if err == nil && left.Header.Deleted() && left.CanMerge(cur) {
			absorbedID := cur.ID
			left.Merge(cur)
			if err := tx.PutBlock(left); err != nil {
				return err
			}
			if err := tx.DeleteBlock(absorbedID); err != nil {
				return err
			}
			if err := relinkRight(tx, left); err != nil {
				return err
			}
			cur = left
		}
	}

	if cur.Header.HasRight() {
		right, err := tx.GetBlock(cur.Header.Right)
		if err == nil && right.Header.Deleted() && cur.CanMerge(right) {
			absorbedID := right.ID
			cur.Merge(right)
			if err := tx.PutBlock(cur); err != nil {
				return err
			}
			if err := tx.DeleteBlock(absorbedID); err != nil {
				return err
			}
			if err := relinkRight(tx, cur); err != nil {
				return err
			}
		}
	}

	return nil
}

// relinkRight points merged's right neighbor's left pointer back at
// merged, after merged absorbed a block that used to sit between them.
func relinkRight(tx *store.Txn, merged *block.Block) error {
	if !merged.Header.HasRight() {
		return nil
	}
	rightNeighbor, err := tx.GetBlock(merged.Header.Right)
	if err != nil {
		return err
	}
	rightNeighbor.Header.SetLeft(merged.ID)
	return tx.PutBlock(rightNeighbor)
}
