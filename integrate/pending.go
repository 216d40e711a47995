package integrate

import (
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/update"
)

// PendingQueue buffers carriers whose integration failed because a causal
// dependency (an origin they reference) hasn't arrived yet, releasing them
// once that dependency's clock unit is integrated — grounded on
// cshekharsharma-go-crdt's RGA.pendingOrphans buffer (rga.go), generalized
// from a single missing parent ID to the block model's origin_left/
// origin_right.
type PendingQueue struct {
	byMissing map[id.ID][]update.Carrier
}

// NewPendingQueue returns an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{byMissing: make(map[id.ID][]update.Carrier)}
}

// Add buffers c under the dependency it's missing.
func (q *PendingQueue) Add(missing id.ID, c update.Carrier) {
	q.byMissing[missing] = append(q.byMissing[missing], c)
}

// Release pops every carrier waiting on newlyAvailable, for the caller to
// retry.
func (q *PendingQueue) Release(newlyAvailable id.ID) []update.Carrier {
	waiting, ok := q.byMissing[newlyAvailable]
	if !ok {
		return nil
	}
	delete(q.byMissing, newlyAvailable)
	return waiting
}

// Len reports how many carriers are still waiting on some dependency.
func (q *PendingQueue) Len() int {
	n := 0
	for _, v := range q.byMissing {
		n += len(v)
	}
	return n
}

// Missing returns every dependency ID at least one carrier is still
// waiting on, for errs.ErrUpdateIncomplete diagnostics.
func (q *PendingQueue) Missing() []id.ID {
	out := make([]id.ID, 0, len(q.byMissing))
	for m := range q.byMissing {
		out = append(out, m)
	}
	return out
}
