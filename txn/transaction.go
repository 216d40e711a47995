// Package txn implements spec.md §4.7's transaction: one KV write
// transaction over a document, wrapping store.Store with the integration
// pipeline (package integrate) and the update wire codec (package update).
//
// Grounded on cshekharsharma-go-crdt's RGA method-per-mutation shape
// (Insert/Delete/Merge each acting on the in-memory tree) generalized to
// operate through a single bbolt write transaction per cuemby-warren's
// db.Update(func(tx) error) closure idiom — except here the transaction's
// lifetime is held open across several ApplyUpdate calls, so Begin/Commit
// are exposed directly rather than wrapped in one closure.
package txn

import (
	"io"

	"github.com/cshekharsharma/crdtstore/errs"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/integrate"
	"github.com/cshekharsharma/crdtstore/pkg/log"
	"github.com/cshekharsharma/crdtstore/pkg/metrics"
	"github.com/cshekharsharma/crdtstore/store"
	"github.com/cshekharsharma/crdtstore/update"
)

// Transaction wraps one store.Txn write transaction over one document,
// adding the pending-dependency queue spec.md §4.7 describes as
// "transaction state."
type Transaction struct {
	store   *store.Store
	tx      *store.Txn
	pending *integrate.PendingQueue
	closed  bool
	timer   *metrics.Timer
}

// Begin acquires a write transaction over st and constructs the empty
// pending-dependency queue.
func Begin(st *store.Store) (*Transaction, error) {
	tx, err := st.Begin()
	if err != nil {
		return nil, err
	}
	return &Transaction{store: st, tx: tx, pending: integrate.NewPendingQueue(), timer: metrics.NewTimer()}, nil
}

// ApplyUpdate decodes carriers from r one at a time and integrates each.
// A carrier that fails with a pending-dependency error is buffered instead
// of failing the whole update; every successful integration then tries to
// release and retry carriers waiting on the ID range it just advanced.
// Unlike update.DecodeAll, nothing beyond the current carrier and the
// pending queue is held in memory.
func (t *Transaction) ApplyUpdate(r io.Reader) error {
	if t.closed {
		return errs.ErrStore
	}
	dec, err := update.NewDecoder(r)
	if err != nil {
		return err
	}

	for {
		c, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := t.integrateAndRetry(c); err != nil {
			return err
		}
	}

	ds, err := dec.DecodeDeleteSet()
	if err != nil {
		return err
	}
	return integrate.ApplyDeleteSet(t.tx, ds)
}

// integrateAndRetry integrates c, queuing it on PendingDependencyError
// instead of failing, then releases and retries every carrier depth-first
// that was waiting on the ID range c just made available.
func (t *Transaction) integrateAndRetry(c update.Carrier) error {
	if err := integrate.Block(t.tx, c); err != nil {
		pd, ok := errs.AsPendingDependency(err)
		if !ok {
			return err
		}
		t.pending.Add(pd.Missing, c)
		return nil
	}

	head, length := c.Head(), c.Len()
	for clock := head.Clock; clock < head.Clock+length; clock++ {
		released := t.pending.Release(id.New(head.Client, clock))
		for _, r := range released {
			if err := t.integrateAndRetry(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clear applies the map `clear` operation to node within this transaction.
func (t *Transaction) Clear(node id.NodeID) error {
	return integrate.Clear(t.tx, node)
}

// StateVector reads the document's current causal frontier.
func (t *Transaction) StateVector() (*id.StateVector, error) {
	return t.tx.StateVector()
}

// CreateUpdate diff-encodes every operation this document has integrated
// since since (nil or empty means "from the beginning") into an
// update.Update ready for Encode.
func (t *Transaction) CreateUpdate(since *id.StateVector) (*update.Update, error) {
	return createUpdate(t.tx, since)
}

// Commit flushes the underlying KV transaction. It fails with
// errs.ErrUpdateIncomplete if any carrier integrated during this
// transaction is still waiting on a dependency that never arrived.
func (t *Transaction) Commit() error {
	if t.closed {
		return errs.ErrStore
	}
	t.closed = true
	metrics.PendingQueueDepth.Set(float64(t.pending.Len()))
	if t.pending.Len() > 0 {
		log.WithComponent("txn").Warn().
			Int("pending", t.pending.Len()).
			Interface("missing", t.pending.Missing()).
			Msg("commit with unresolved dependencies")
		metrics.TransactionsIncompleteTotal.Inc()
		if err := t.tx.Rollback(); err != nil {
			return err
		}
		return errs.ErrUpdateIncomplete
	}
	if err := t.tx.Commit(); err != nil {
		return err
	}
	t.timer.ObserveDuration(metrics.TransactionCommitDuration)
	return nil
}

// Rollback discards every mutation made within this transaction.
func (t *Transaction) Rollback() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.tx.Rollback()
}
