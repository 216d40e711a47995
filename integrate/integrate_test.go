package integrate

import (
	"errors"
	"testing"

	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/errs"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/store"
	"github.com/cshekharsharma/crdtstore/update"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), "doc", store.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// charBlock builds a single-unit String block. When origin is the zero ID
// with neither flag set, the carrier carries an explicit root parent (the
// wire shape for a block with no neighbor to infer from); otherwise the
// carrier's parent is left nil so integrateBlock must infer it, matching
// how update.Decoder actually produces carriers.
func charBlock(client id.ClientID, clock id.Clock, ch byte, parent id.NodeID, originLeft, originRight *id.ID) *update.BlockCarrier {
	var h block.Header
	h.ContentType = block.ContentString
	h.ClockLen = 1
	if originLeft != nil {
		h.SetOriginLeft(*originLeft)
	}
	if originRight != nil {
		h.SetOriginRight(*originRight)
	}
	blk := block.New(id.New(client, clock), h)
	blk.Body = []byte{ch}

	var pref *update.ParentRef
	if originLeft == nil && originRight == nil {
		blk.Header.Parent = parent
		pref = &update.ParentRef{IsRoot: true}
	}
	return &update.BlockCarrier{Blk: blk, Parent: pref}
}

// readText walks a node's sequence from its front pointer, concatenating
// every live (non-deleted) String block's byte in chain order.
func readText(t *testing.T, tx *store.Txn, parent id.NodeID) string {
	t.Helper()
	head, ok := tx.GetMapHead(parent, emptySequenceKeyHash)
	if !ok {
		return ""
	}
	var out []byte
	cursor := head
	for {
		blk, err := tx.GetBlock(cursor)
		if err != nil {
			t.Fatalf("readText: %v", err)
		}
		if !blk.Header.Deleted() {
			out = append(out, blk.Body...)
		}
		if !blk.Header.HasRight() {
			break
		}
		cursor = blk.Header.Right
	}
	return string(out)
}

func TestIntegrate_SequentialInsert(t *testing.T) {
	s := openTestStore(t)
	parent := id.RootNodeID(1)

	err := s.Tx(func(tx *store.Txn) error {
		h := id.New(1, 0)
		if err := Block(tx, charBlock(1, 0, 'H', parent, nil, nil)); err != nil {
			return err
		}
		e := id.New(1, 1)
		if err := Block(tx, charBlock(1, 1, 'E', parent, &h, nil)); err != nil {
			return err
		}
		if err := Block(tx, charBlock(1, 2, 'Y', parent, &e, nil)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	s.View(func(tx *store.Txn) error {
		if got := readText(t, tx, parent); got != "HEY" {
			t.Errorf("got %q, want HEY", got)
		}
		return nil
	})
}

// TestIntegrate_DuplicateApplyIsIdempotent re-applies the exact same
// carriers a second time and checks the text is unchanged and the state
// vector did not move — spec.md §8's idempotence law.
func TestIntegrate_DuplicateApplyIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	parent := id.RootNodeID(1)

	apply := func() error {
		return s.Tx(func(tx *store.Txn) error {
			h := id.New(1, 0)
			if err := Block(tx, charBlock(1, 0, 'H', parent, nil, nil)); err != nil {
				return err
			}
			e := id.New(1, 1)
			if err := Block(tx, charBlock(1, 1, 'E', parent, &h, nil)); err != nil {
				return err
			}
			if err := Block(tx, charBlock(1, 2, 'Y', parent, &e, nil)); err != nil {
				return err
			}
			return nil
		})
	}

	if err := apply(); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := apply(); err != nil {
		t.Fatalf("second (duplicate) apply: %v", err)
	}

	s.View(func(tx *store.Txn) error {
		if got := readText(t, tx, parent); got != "HEY" {
			t.Errorf("got %q, want HEY (duplicate apply must not re-insert)", got)
		}
		sv, err := tx.StateVector()
		if err != nil {
			t.Fatalf("state vector: %v", err)
		}
		if got := sv.Get(1); got != 3 {
			t.Errorf("state vector for client 1 = %d, want 3", got)
		}
		return nil
	})
}

// TestIntegrate_OverlappingCarrierSplitsAtOffset applies a carrier whose
// clock range partially overlaps what's already integrated (e.g. a client
// re-sending a wider carrier that re-covers an already-seen prefix) and
// checks only the new tail is integrated, per spec.md §4.6's offset
// adjustment.
func TestIntegrate_OverlappingCarrierSplitsAtOffset(t *testing.T) {
	s := openTestStore(t)
	parent := id.RootNodeID(1)

	err := s.Tx(func(tx *store.Txn) error {
		if err := Block(tx, charBlock(1, 0, 'H', parent, nil, nil)); err != nil {
			return err
		}

		// A single multi-unit carrier covering clocks [0, 3) — "HEY" — where
		// clock 0 ('H') was already integrated above. Only clocks [1, 3)
		// ("EY") should actually be integrated.
		var h block.Header
		h.ContentType = block.ContentString
		h.ClockLen = 3
		blk := block.New(id.New(1, 0), h)
		blk.Body = []byte("HEY")
		carrier := &update.BlockCarrier{Blk: blk, Parent: &update.ParentRef{IsRoot: true}}
		blk.Header.Parent = parent

		return Block(tx, carrier)
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	s.View(func(tx *store.Txn) error {
		if got := readText(t, tx, parent); got != "HEY" {
			t.Errorf("got %q, want HEY", got)
		}
		sv, err := tx.StateVector()
		if err != nil {
			t.Fatalf("state vector: %v", err)
		}
		if got := sv.Get(1); got != 3 {
			t.Errorf("state vector for client 1 = %d, want 3", got)
		}
		return nil
	})
}

func TestIntegrate_ConcurrentSiblingInsertConvergesByClient(t *testing.T) {
	parent := id.RootNodeID(2)
	h := id.New(1, 0)
	e := id.New(1, 1)

	run := func(order []update.Carrier) string {
		s, err := store.Open(t.TempDir(), "doc", store.Options{})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer s.Close()

		err = s.Tx(func(tx *store.Txn) error {
			if err := Block(tx, charBlock(1, 0, 'H', parent, nil, nil)); err != nil {
				return err
			}
			if err := Block(tx, charBlock(1, 1, 'E', parent, &h, nil)); err != nil {
				return err
			}
			for _, c := range order {
				if err := Block(tx, c); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("apply: %v", err)
		}

		var out string
		s.View(func(tx *store.Txn) error {
			out = readText(t, tx, parent)
			return nil
		})
		return out
	}

	// client 1 writes 'L' after E, client 2 (higher client id) writes 'Y'
	// after E, both observing only H,E (concurrent). Per the Case A
	// tiebreak, the smaller client id wins the earlier position, so 'L'
	// (client 1) sits before 'Y' (client 2) regardless of apply order.
	l := charBlock(1, 2, 'L', parent, &e, nil)
	y := charBlock(2, 0, 'Y', parent, &e, nil)

	got1 := run([]update.Carrier{l, y})
	got2 := run([]update.Carrier{y, l})

	if got1 != got2 {
		t.Fatalf("divergent convergence: %q vs %q", got1, got2)
	}
	if got1 != "HELY" {
		t.Fatalf("got %q, want HELY", got1)
	}
}

func TestIntegrate_PendingDependencyBuffersUntilParentArrives(t *testing.T) {
	s := openTestStore(t)
	parent := id.RootNodeID(3)
	h := id.New(9, 5)
	child := charBlock(9, 6, 'C', parent, &h, nil)

	err := s.Tx(func(tx *store.Txn) error {
		err := Block(tx, child)
		if !errors.Is(err, errs.ErrBlockNotFound) {
			t.Fatalf("expected pending dependency error, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view should not fail: %v", err)
	}

	err = s.Tx(func(tx *store.Txn) error {
		if err := Block(tx, charBlock(9, 5, 'P', parent, nil, nil)); err != nil {
			return err
		}
		return Block(tx, child)
	})
	if err != nil {
		t.Fatalf("retry after parent arrives: %v", err)
	}

	s.View(func(tx *store.Txn) error {
		if got := readText(t, tx, parent); got != "PC" {
			t.Errorf("got %q, want PC", got)
		}
		return nil
	})
}

func TestIntegrate_DeleteSetTombstonesAndMerges(t *testing.T) {
	s := openTestStore(t)
	parent := id.RootNodeID(4)
	h := id.New(1, 0)
	e := id.New(1, 1)

	err := s.Tx(func(tx *store.Txn) error {
		if err := Block(tx, charBlock(1, 0, 'H', parent, nil, nil)); err != nil {
			return err
		}
		if err := Block(tx, charBlock(1, 1, 'E', parent, &h, nil)); err != nil {
			return err
		}
		if err := Block(tx, charBlock(1, 2, 'Y', parent, &e, nil)); err != nil {
			return err
		}
		ds := id.NewIDSet()
		ds.Insert(id.New(1, 1), 2)
		return ApplyDeleteSet(tx, ds)
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	s.View(func(tx *store.Txn) error {
		if got := readText(t, tx, parent); got != "H" {
			t.Errorf("got %q, want H", got)
		}
		return nil
	})

	s.View(func(tx *store.Txn) error {
		blk, err := tx.GetBlock(id.New(1, 1))
		if err != nil {
			t.Fatalf("get tombstone: %v", err)
		}
		if blk.Header.ClockLen != 2 {
			t.Errorf("expected merged tombstone of length 2, got %d", blk.Header.ClockLen)
		}
		if blk.Header.ContentType != block.ContentDeleted {
			t.Errorf("expected ContentDeleted, got %v", blk.Header.ContentType)
		}
		return nil
	})
}

func TestIntegrate_MapOverwriteAndClear(t *testing.T) {
	s := openTestStore(t)
	node := id.RootNodeID(5)

	var h block.Header
	h.ContentType = block.ContentEmbed
	h.ClockLen = 1
	h.Parent = node
	h.Key = "title"
	v1 := block.New(id.New(1, 0), h)
	v1.Body = []byte("v1")
	c1 := &update.BlockCarrier{Blk: v1, Parent: &update.ParentRef{IsRoot: true}}

	var h2 block.Header
	h2.ContentType = block.ContentEmbed
	h2.ClockLen = 1
	h2.SetOriginLeft(id.New(1, 0))
	v2 := block.New(id.New(2, 0), h2)
	v2.Body = []byte("v2")
	c2 := &update.BlockCarrier{Blk: v2}

	err := s.Tx(func(tx *store.Txn) error {
		if err := Block(tx, c1); err != nil {
			return err
		}
		return Block(tx, c2)
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	s.View(func(tx *store.Txn) error {
		head, ok := tx.GetMapHead(node, block.HashString("title"))
		if !ok {
			t.Fatal("expected map head for title")
		}
		if head != v2.ID {
			t.Errorf("expected terminal to be v2, got %v", head)
		}
		return nil
	})

	err = s.Tx(func(tx *store.Txn) error { return Clear(tx, node) })
	if err != nil {
		t.Fatalf("clear: %v", err)
	}

	s.View(func(tx *store.Txn) error {
		blk, err := tx.GetBlock(v2.ID)
		if err != nil {
			t.Fatalf("get v2: %v", err)
		}
		if !blk.Header.Deleted() {
			t.Error("expected v2 deleted after Clear")
		}
		return nil
	})
}
