package integrate

import (
	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/store"
)

// commit implements spec.md §4.6 Step 5: rewire live neighbor pointers,
// persist T, advance the state vector, and update the MAP partition's
// pointer for T's (parent, key) slot.
//
// That pointer serves two different roles depending on what it addresses,
// per DESIGN.md's store-layout decisions: for keyless sequence content
// (Key == "", list/text/xml-fragment children) it is the sequence's front
// — T becomes the new front exactly when T ends up with no left neighbor,
// since Step 4 scans forward from the front to place a concurrent
// prepend. For keyed content (a real map entry) it is spec.md's literal
// "block whose right chain terminates" — T becomes the new terminal
// exactly when T ends up with no right neighbor. Both rules reduce to the
// same update call; only which end of the chain triggers it differs.
func commit(tx *store.Txn, blk *block.Block, left, right *block.Block) error {
	if left != nil {
		left.Header.SetRight(blk.ID)
		blk.Header.SetLeft(left.ID)
		if err := tx.PutBlock(left); err != nil {
			return err
		}
	} else {
		blk.Header.ClearLeft()
	}

	if right != nil {
		blk.Header.SetRight(right.ID)
		right.Header.SetLeft(blk.ID)
		if err := tx.PutBlock(right); err != nil {
			return err
		}
	} else {
		blk.Header.ClearRight()
	}

	if err := tx.PutBlock(blk); err != nil {
		return err
	}
	if err := tx.SetStateVectorEntry(blk.ID.Client, blk.End()); err != nil {
		return err
	}

	isNewAnchor := blk.Header.Key == "" && !blk.Header.HasLeft()
	isNewTerminal := blk.Header.Key != "" && !blk.Header.HasRight()
	if !isNewAnchor && !isNewTerminal {
		return nil
	}
	return tx.SetMapHead(blk.Header.Parent, keyHashFor(&blk.Header), blk.ID)
}
