package txn

import (
	"fmt"

	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/store"
	"github.com/cshekharsharma/crdtstore/update"
)

// createUpdate implements spec.md §4.7's create_update: for every client
// with operations past since, split the block straddling the since
// boundary (if any) so the diff starts on a clean edge, then emit every
// block/tombstone from that edge up to the client's current clock.
func createUpdate(tx *store.Txn, since *id.StateVector) (*update.Update, error) {
	if since == nil {
		since = id.NewStateVector()
	}
	current, err := tx.StateVector()
	if err != nil {
		return nil, err
	}

	upd := update.New()
	for _, client := range current.Clients() {
		from := since.Get(client)
		to := current.Get(client)
		if from >= to {
			continue
		}
		if from > 0 {
			if _, err := tx.FindContaining(id.New(client, from)); err != nil {
				return nil, err
			}
		}

		var walkErr error
		err := tx.BlocksByClient(client, func(b *block.Block) bool {
			if b.ID.Clock < from {
				return true
			}
			if b.ID.Clock >= to {
				return false
			}
			carrier, cerr := carrierFor(tx, b)
			if cerr != nil {
				walkErr = cerr
				return false
			}
			upd.Add(carrier)
			return true
		})
		if err != nil {
			return nil, err
		}
		if walkErr != nil {
			return nil, walkErr
		}
	}

	return upd, nil
}

// carrierFor converts a persisted block into the wire carrier create_update
// emits for it, recovering the explicit ParentRef a fresh decoder would
// need when the block has neither origin to infer a neighbor from.
func carrierFor(tx *store.Txn, blk *block.Block) (*update.BlockCarrier, error) {
	var parent *update.ParentRef
	if !blk.Header.HasOriginLeft() && !blk.Header.HasOriginRight() {
		p := blk.Header.Parent
		if p.IsRoot() {
			name, ok := tx.LookupInternedString(uint32(p.Clock))
			if !ok {
				return nil, fmt.Errorf("create_update: root name for hash %d not interned", uint32(p.Clock))
			}
			parent = &update.ParentRef{IsRoot: true, RootName: name}
		} else {
			parent = &update.ParentRef{IsRoot: false, NestedOwner: id.ID{Client: p.Client, Clock: p.Clock}}
		}
	}
	return &update.BlockCarrier{Blk: blk, Parent: parent}, nil
}
