package store

import (
	"bytes"
	"encoding/binary"

	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/errs"
	"github.com/cshekharsharma/crdtstore/id"
	bolt "go.etcd.io/bbolt"
)

// Txn is a single bbolt transaction scoped to one Store, exposing typed
// accessors for each of the six partitions.
type Txn struct {
	tx *bolt.Tx
}

func newTxn(tx *bolt.Tx) *Txn {
	return &Txn{tx: tx}
}

func (t *Txn) bucket(name []byte) *bolt.Bucket {
	return t.tx.Bucket(name)
}

// Commit flushes a transaction opened via Store.Begin. Transactions opened
// via Store.Tx/Store.View must not call this; their lifetime is managed by
// the enclosing closure.
func (t *Txn) Commit() error {
	return wrapStoreErr(t.tx.Commit())
}

// Rollback discards a transaction opened via Store.Begin.
func (t *Txn) Rollback() error {
	return wrapStoreErr(t.tx.Rollback())
}

// --- BLOCK partition ---

// PutBlock writes b under its own ID key.
func (t *Txn) PutBlock(b *block.Block) error {
	var buf bytes.Buffer
	if err := block.EncodeStored(&buf, b); err != nil {
		return err
	}
	if err := t.bucket(bucketBlock).Put(blockKey(b.ID), buf.Bytes()); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// GetBlock looks up the block whose ID exactly matches target.
func (t *Txn) GetBlock(target id.ID) (*block.Block, error) {
	raw := t.bucket(bucketBlock).Get(blockKey(target))
	if raw == nil {
		return nil, errs.NewPendingDependency(target)
	}
	return block.DecodeStored(bytes.NewReader(raw))
}

// FindContaining returns the block whose clock range contains target,
// splitting it in place (persisting both halves) if target falls strictly
// inside it, per spec.md §4.6 Step 1 / SplitResult semantics.
func (t *Txn) FindContaining(target id.ID) (*block.Block, error) {
	b := t.bucket(bucketBlock)
	cur := newCursor(b)
	_, v, ok := cur.SeekContaining(blockKey(target), func(k, v []byte) bool {
		candidate, err := block.DecodeStored(bytes.NewReader(v))
		if err != nil {
			return false
		}
		return candidate.Contains(target)
	})
	if !ok {
		return nil, errs.NewPendingDependency(target)
	}
	found, err := block.DecodeStored(bytes.NewReader(v))
	if err != nil {
		return nil, err
	}
	if found.ID == target {
		return found, nil
	}
	offset := found.Offset(target)
	right, err := found.Split(offset)
	if err != nil {
		return nil, err
	}
	if err := t.PutBlock(found); err != nil {
		return nil, err
	}
	if err := t.PutBlock(right); err != nil {
		return nil, err
	}
	return right, nil
}

// DeleteBlock removes a block record outright, used when two adjacent
// tombstoned blocks are coalesced by integrate.ApplyDeleteSet and the
// absorbed half's own record is no longer needed.
func (t *Txn) DeleteBlock(blockID id.ID) error {
	return wrapStoreErr(t.bucket(bucketBlock).Delete(blockKey(blockID)))
}

// FindBlockEndingAt returns the block whose LastID equals target, splitting
// the block containing target (if target isn't already its last unit) so
// that target becomes the last unit of the left half — the mirror image of
// FindContaining, used to resolve origin_left per spec.md §4.6 Step 1 ("split
// it so origin_left sits at right edge of left half").
func (t *Txn) FindBlockEndingAt(target id.ID) (*block.Block, error) {
	b := t.bucket(bucketBlock)
	cur := newCursor(b)
	_, v, ok := cur.SeekContaining(blockKey(target), func(k, v []byte) bool {
		candidate, err := block.DecodeStored(bytes.NewReader(v))
		if err != nil {
			return false
		}
		return candidate.Contains(target)
	})
	if !ok {
		return nil, errs.NewPendingDependency(target)
	}
	found, err := block.DecodeStored(bytes.NewReader(v))
	if err != nil {
		return nil, err
	}
	if found.LastID() == target {
		return found, nil
	}
	offset := found.Offset(target) + 1
	right, err := found.Split(offset)
	if err != nil {
		return nil, err
	}
	if err := t.PutBlock(found); err != nil {
		return nil, err
	}
	if err := t.PutBlock(right); err != nil {
		return nil, err
	}
	return found, nil
}

// BlocksByClient iterates every block for client in clock order, calling
// fn for each until it returns false or the client's blocks are exhausted.
func (t *Txn) BlocksByClient(client id.ClientID, fn func(*block.Block) bool) error {
	b := t.bucket(bucketBlock)
	cur := newCursor(b)
	prefix := clientKeyPrefix(client)
	if !cur.SeekGTE(prefix) {
		return nil
	}
	for {
		k, v := cur.Current()
		if k == nil || !hasPrefix(k, prefix) {
			return nil
		}
		blk, err := block.DecodeStored(bytes.NewReader(v))
		if err != nil {
			return err
		}
		if !fn(blk) {
			return nil
		}
		if !cur.Next() {
			return nil
		}
	}
}

// AllBlocks iterates every block across every client in (client, clock)
// key order, used by the inspect CLI subcommand.
func (t *Txn) AllBlocks(fn func(*block.Block) bool) error {
	b := t.bucket(bucketBlock)
	cur := newCursor(b)
	if !cur.SeekGTE(nil) {
		return nil
	}
	for {
		k, v := cur.Current()
		if k == nil {
			return nil
		}
		blk, err := block.DecodeStored(bytes.NewReader(v))
		if err != nil {
			return err
		}
		if !fn(blk) {
			return nil
		}
		if !cur.Next() {
			return nil
		}
	}
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// --- STATE_VECTOR partition ---

// StateVector reconstructs the full state vector by scanning every entry.
func (t *Txn) StateVector() (*id.StateVector, error) {
	sv := id.NewStateVector()
	b := t.bucket(bucketStateVector)
	err := b.ForEach(func(k, v []byte) error {
		client := id.ClientID(binary.BigEndian.Uint64(k))
		clock := id.Clock(binary.BigEndian.Uint64(v))
		sv.SetMax(client, clock)
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return sv, nil
}

// StateVectorEntry returns the currently persisted next-expected clock for
// client, or 0 if client has never been observed.
func (t *Txn) StateVectorEntry(client id.ClientID) id.Clock {
	v := t.bucket(bucketStateVector).Get(stateVectorKey(client))
	if v == nil {
		return 0
	}
	return id.Clock(binary.BigEndian.Uint64(v))
}

// SetStateVectorEntry advances the persisted next-expected clock for client
// to max(existing, next) — spec.md §4.6 Step 5's
// stateVector[client] := max(stateVector[client], next). State vectors only
// ever move forward; a regression here would let a later offset check
// (integrate.integrateBlock) wrongly treat already-integrated clocks as new.
func (t *Txn) SetStateVectorEntry(client id.ClientID, next id.Clock) error {
	if next <= t.StateVectorEntry(client) {
		return nil
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(next))
	return wrapStoreErr(t.bucket(bucketStateVector).Put(stateVectorKey(client), buf[:]))
}

// --- INTERN_STR partition ---

// InternString records name under its hash, returning ErrHashCollision if
// a different string is already stored under the same hash.
func (t *Txn) InternString(name string) (uint32, error) {
	h := block.HashString(name)
	b := t.bucket(bucketInternStr)
	existing := b.Get(internKey(h))
	if existing != nil {
		if string(existing) != name {
			return 0, errs.ErrHashCollision
		}
		return h, nil
	}
	if err := b.Put(internKey(h), []byte(name)); err != nil {
		return 0, wrapStoreErr(err)
	}
	return h, nil
}

// LookupInternedString resolves a hash back to its string, if known.
func (t *Txn) LookupInternedString(hash uint32) (string, bool) {
	v := t.bucket(bucketInternStr).Get(internKey(hash))
	if v == nil {
		return "", false
	}
	return string(v), true
}

// --- CONTENT partition ---

// PutContentElement stores one any-value-encoded element of an atom/json
// block under its own per-unit ID, per spec.md's bucket-sliced addressing.
func (t *Txn) PutContentElement(elementID id.ID, raw []byte) error {
	return wrapStoreErr(t.bucket(bucketContent).Put(contentKey(elementID), raw))
}

// GetContentElement retrieves one previously stored element.
func (t *Txn) GetContentElement(elementID id.ID) ([]byte, bool) {
	v := t.bucket(bucketContent).Get(contentKey(elementID))
	if v == nil {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// DeleteContentElement removes a stored element from the CONTENT partition.
func (t *Txn) DeleteContentElement(elementID id.ID) error {
	return wrapStoreErr(t.bucket(bucketContent).Delete(contentKey(elementID)))
}

// --- MAP partition ---

// SetMapHead records id as the current winning head for key under parent.
func (t *Txn) SetMapHead(parent id.NodeID, keyHash uint32, head id.ID) error {
	return wrapStoreErr(t.bucket(bucketMap).Put(mapKey(parent, keyHash), blockKey(head)))
}

// GetMapHead returns the current winning head for key under parent, if
// any.
func (t *Txn) GetMapHead(parent id.NodeID, keyHash uint32) (id.ID, bool) {
	v := t.bucket(bucketMap).Get(mapKey(parent, keyHash))
	if v == nil {
		return id.ID{}, false
	}
	return decodeBlockKey(v), true
}

// MapHeads iterates every (keyHash, head) pair currently recorded for
// parent, used by integrate.Clear.
func (t *Txn) MapHeads(parent id.NodeID, fn func(keyHash uint32, head id.ID) bool) error {
	b := t.bucket(bucketMap)
	cur := newCursor(b)
	prefix := mapKeyPrefix(parent)
	if !cur.SeekGTE(prefix) {
		return nil
	}
	for {
		k, v := cur.Current()
		if k == nil || !hasPrefix(k, prefix) {
			return nil
		}
		keyHash := binary.BigEndian.Uint32(k[16:20])
		if !fn(keyHash, decodeBlockKey(v)) {
			return nil
		}
		if !cur.Next() {
			return nil
		}
	}
}

// --- META partition ---

func (t *Txn) PutMeta(key string, value []byte) error {
	return wrapStoreErr(t.bucket(bucketMeta).Put([]byte(key), value))
}

func (t *Txn) GetMeta(key string) ([]byte, bool) {
	v := t.bucket(bucketMeta).Get([]byte(key))
	if v == nil {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	return &storeError{cause: err}
}

type storeError struct{ cause error }

func (e *storeError) Error() string { return "store error: " + e.cause.Error() }
func (e *storeError) Unwrap() error { return e.cause }
func (e *storeError) Is(target error) bool {
	return target == errs.ErrStore
}
