package integrate

import (
	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/pkg/metrics"
	"github.com/cshekharsharma/crdtstore/store"
)

// emptySequenceKeyHash addresses the anonymous sequence-head slot used for
// non-keyed content (list/text values inserted directly under a parent
// rather than under a map key) — see DESIGN.md's store-layout decisions.
var emptySequenceKeyHash = block.HashString("")

func keyHashFor(h *block.Header) uint32 {
	if h.Key == "" {
		return emptySequenceKeyHash
	}
	return block.HashString(h.Key)
}

// sequenceHead resolves the scan-start candidate for a (parent, key) slot
// via the MAP partition: the sequence front for keyless content, the
// current winning terminal for a map entry — see commit's doc comment.
func sequenceHead(tx *store.Txn, parent id.NodeID, keyHash uint32) (id.ID, bool) {
	return tx.GetMapHead(parent, keyHash)
}

// conflicts implements spec.md §4.6 Step 3.
func conflicts(blk *block.Block, L, R *block.Block) bool {
	if L == nil {
		return R == nil || R.Header.HasLeft()
	}
	if R == nil {
		return L.Header.HasRight()
	}
	return !L.Header.HasRight() || L.Header.Right != R.ID
}

// resolveConflict implements spec.md §4.6 Step 4: walk rightward from the
// current candidate, through every block up to (but excluding) T's right,
// applying the Case A / Case B tiebreak until a stopping point is found,
// and returns the resolved left/right neighbors for T.
func resolveConflict(tx *store.Txn, blk *block.Block, L, R *block.Block) (left, right *block.Block, err error) {
	left = L

	var candidateID id.ID
	haveCandidate := false
	switch {
	case L != nil:
		if L.Header.HasRight() {
			candidateID, haveCandidate = L.Header.Right, true
		}
	default:
		if head, ok := sequenceHead(tx, blk.Header.Parent, keyHashFor(&blk.Header)); ok {
			candidateID, haveCandidate = head, true
		}
	}

	itemsBeforeOrigin := make(map[id.ID]bool)
	conflictingItems := make(map[id.ID]bool)

	for haveCandidate {
		if R != nil && candidateID == R.ID {
			break
		}
		c, cerr := tx.GetBlock(candidateID)
		if cerr != nil {
			return nil, nil, cerr
		}

		if blk.Header.HasOriginLeft() && candidateID == blk.Header.OriginLeft {
			haveCandidate = c.Header.HasRight()
			candidateID = c.Header.Right
			itemsBeforeOrigin = make(map[id.ID]bool)
			conflictingItems = make(map[id.ID]bool)
			continue
		}

		itemsBeforeOrigin[c.ID] = true
		conflictingItems[c.ID] = true

		sameLeftOrigin := c.Header.HasOriginLeft() == blk.Header.HasOriginLeft() &&
			(!blk.Header.HasOriginLeft() || c.Header.OriginLeft == blk.Header.OriginLeft)

		stop := false
		if sameLeftOrigin {
			metrics.ConflictsResolvedTotal.WithLabelValues("A").Inc()
			if c.ID.Client < blk.ID.Client {
				left = c
				conflictingItems = make(map[id.ID]bool)
			} else {
				sameRightOrigin := c.Header.HasOriginRight() == blk.Header.HasOriginRight() &&
					(!blk.Header.HasOriginRight() || c.Header.OriginRight == blk.Header.OriginRight)
				if sameRightOrigin {
					stop = true
				}
			}
		} else if c.Header.HasOriginLeft() {
			metrics.ConflictsResolvedTotal.WithLabelValues("B").Inc()
			col := c.Header.OriginLeft
			if itemsBeforeOrigin[col] && !conflictingItems[col] {
				left, err = tx.GetBlock(col)
				if err != nil {
					return nil, nil, err
				}
				conflictingItems = make(map[id.ID]bool)
			} else {
				stop = true
			}
		} else {
			stop = true
		}

		if stop {
			break
		}

		haveCandidate = c.Header.HasRight()
		candidateID = c.Header.Right
	}

	if left != nil {
		if left.Header.HasRight() {
			right, err = tx.GetBlock(left.Header.Right)
			if err != nil {
				return nil, nil, err
			}
		}
		return left, right, nil
	}

	if head, ok := sequenceHead(tx, blk.Header.Parent, keyHashFor(&blk.Header)); ok {
		right, err = tx.GetBlock(head)
		if err != nil {
			return nil, nil, err
		}
	}
	return nil, right, nil
}
