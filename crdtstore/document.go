// Package crdtstore is the root of a persistent, multi-document CRDT
// storage engine implementing the Y-style operational model: a
// sequence/map CRDT with tombstones, split/merge, and vector-clock-based
// state tracking. Given a stream of encoded updates originating from
// independent, possibly out-of-order clients, it integrates them into
// durable embedded storage such that concurrent application converges to
// the same document state everywhere, and incremental differences between
// replicas can be computed and exchanged compactly via state vectors.
//
// Each document is one bbolt file, opened by Open and addressed by a
// uuid.UUID. A Document exposes the two operations a caller actually
// needs — apply an incoming update, produce an outgoing one — without
// requiring callers to manage store.Store/txn.Transaction lifetimes
// directly; Begin is there for callers who need to span several mutations
// inside one commit.
//
// Grounded on cshekharsharma-go-crdt's crdt.go package doc-comment style
// (a short statement of what the package guarantees, not a tutorial).
package crdtstore

import (
	"io"

	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/pkg/log"
	"github.com/cshekharsharma/crdtstore/store"
	"github.com/cshekharsharma/crdtstore/txn"
	"github.com/cshekharsharma/crdtstore/update"
	"github.com/google/uuid"
)

// Document is one CRDT document's persisted state.
type Document struct {
	ID    uuid.UUID
	store *store.Store
}

// Open opens (creating if absent) the document identified by id under
// dir, per spec.md §4.5's one-keyspace-per-document layout.
func Open(dir string, docID uuid.UUID, opts store.Options) (*Document, error) {
	st, err := store.Open(dir, docID.String(), opts)
	if err != nil {
		return nil, err
	}
	log.WithComponent("crdtstore").Info().Str("doc_id", docID.String()).Msg("document opened")
	return &Document{ID: docID, store: st}, nil
}

// Close releases the document's underlying store handle.
func (d *Document) Close() error {
	return d.store.Close()
}

// Begin opens a transaction spanning one or more mutations, for callers
// that need ApplyUpdate/Clear calls and the eventual Commit/Rollback
// decision under their own control.
func (d *Document) Begin() (*txn.Transaction, error) {
	return txn.Begin(d.store)
}

// ApplyUpdate integrates r as a single transaction: begin, apply, commit.
// Returns errs.ErrUpdateIncomplete (without losing already-integrated
// state from other committed transactions) if r references a causal
// dependency this document never receives.
func (d *Document) ApplyUpdate(r io.Reader) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	if err := tx.ApplyUpdate(r); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateUpdate diff-encodes every operation integrated since since (nil
// means "from the beginning").
func (d *Document) CreateUpdate(since *id.StateVector) (*update.Update, error) {
	tx, err := d.Begin()
	if err != nil {
		return nil, err
	}
	upd, err := tx.CreateUpdate(since)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return upd, nil
}

// StateVector reads the document's current causal frontier.
func (d *Document) StateVector() (*id.StateVector, error) {
	var sv *id.StateVector
	err := d.store.View(func(vtx *store.Txn) error {
		var err error
		sv, err = vtx.StateVector()
		return err
	})
	return sv, err
}

// Clear applies the map `clear` operation to node in its own transaction.
func (d *Document) Clear(node id.NodeID) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	if err := tx.Clear(node); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Inspect walks every block in the document in (client, clock) order,
// the read-only debugging aid cmd/crdtstore's inspect subcommand uses.
func (d *Document) Inspect(fn func(b *block.Block) bool) error {
	return d.store.View(func(vtx *store.Txn) error {
		return vtx.AllBlocks(fn)
	})
}
