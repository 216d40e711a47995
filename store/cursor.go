package store

import (
	"bytes"

	bolt "go.etcd.io/bbolt"
)

// Cursor wraps a bbolt cursor with the typed-access contract spec.md §4.5
// asks for: seek, seek_gte, current, next, prev, set, replace, delete, and
// seek_containing. bbolt's own *bolt.Cursor already provides ordered
// Seek/Next/Prev; this type adds seek_containing and the mutation helpers
// that need the owning bucket.
type Cursor struct {
	bucket *bolt.Bucket
	cur    *bolt.Cursor
	key    []byte
	value  []byte
}

func newCursor(b *bolt.Bucket) *Cursor {
	return &Cursor{bucket: b, cur: b.Cursor()}
}

// Seek positions the cursor at key if present, else at the first key
// greater than it (bbolt's native Seek semantics, which is exactly
// seek_gte), and reports whether the match was exact.
func (c *Cursor) Seek(key []byte) (found bool) {
	c.key, c.value = c.cur.Seek(key)
	return c.key != nil && bytes.Equal(c.key, key)
}

// SeekGTE positions the cursor at the first key >= key.
func (c *Cursor) SeekGTE(key []byte) bool {
	c.key, c.value = c.cur.Seek(key)
	return c.key != nil
}

// Current returns the key/value the cursor is positioned on, or (nil,nil)
// if the cursor is off the end.
func (c *Cursor) Current() ([]byte, []byte) {
	return c.key, c.value
}

func (c *Cursor) Next() bool {
	c.key, c.value = c.cur.Next()
	return c.key != nil
}

func (c *Cursor) Prev() bool {
	c.key, c.value = c.cur.Prev()
	return c.key != nil
}

// Set upserts key/value without moving the cursor off its current logical
// position.
func (c *Cursor) Set(key, value []byte) error {
	return c.bucket.Put(key, value)
}

// Replace overwrites the value at the cursor's current key.
func (c *Cursor) Replace(value []byte) error {
	if c.key == nil {
		return bolt.ErrKeyRequired
	}
	return c.bucket.Put(c.key, value)
}

// Delete removes the entry at the cursor's current position.
func (c *Cursor) Delete() error {
	return c.cur.Delete()
}

// SeekContaining finds the entry whose key range contains target, given a
// contains predicate that reports whether a stored key/value covers target
// (a block's ClockLen run, for example). It first seeks to target; on an
// exact miss it steps back one entry and checks containment via contains — the two-step "seek_gte then
// one prev" shape spec.md §4.5 asks for, grounded on original_source/
// src/block_cursor.rs and src/store/lmdb/store.rs's SplitResult-returning
// split_block.
func (c *Cursor) SeekContaining(target []byte, contains func(key, value []byte) bool) (key, value []byte, ok bool) {
	if c.Seek(target) {
		k, v := c.Current()
		return k, v, true
	}
	// Seek landed on the first key > target (or nil if target is past the
	// end of the bucket); step back once to check the preceding entry.
	if c.key == nil {
		if !c.toLast() {
			return nil, nil, false
		}
	} else if !c.Prev() {
		return nil, nil, false
	}
	k, v := c.Current()
	if k == nil {
		return nil, nil, false
	}
	if contains(k, v) {
		return k, v, true
	}
	return nil, nil, false
}

func (c *Cursor) toLast() bool {
	c.key, c.value = c.cur.Last()
	return c.key != nil
}
