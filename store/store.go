// Package store implements the persisted keyspace of spec.md §4.5: six
// logical partitions — metadata, interned strings, state vector, blocks,
// content, and the map index — realized as separate bbolt buckets inside
// one document database, each exposing the typed cursor contract callers
// need (seek, seek_gte, next, prev, seek_containing).
//
// Grounded on cuemby-warren/pkg/storage/boltdb.go's bucket-per-concern
// layout and db.Update/db.View transaction idiom, adapted from "one bucket
// per entity kind" to "one bucket per spec.md partition."
package store

import (
	"fmt"
	"path/filepath"

	"github.com/cshekharsharma/crdtstore/pkg/log"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketMeta         = []byte("meta")
	bucketInternStr    = []byte("intern_str")
	bucketStateVector  = []byte("state_vector")
	bucketBlock        = []byte("block")
	bucketContent      = []byte("content")
	bucketMap          = []byte("map")
	allBuckets         = [][]byte{bucketMeta, bucketInternStr, bucketStateVector, bucketBlock, bucketContent, bucketMap}
)

// Store is the bbolt-backed persisted keyspace for one document.
type Store struct {
	db *bolt.DB
}

// Options configures Open.
type Options struct {
	// NoSync and NoGrowSync are passed through to bbolt's matching
	// *bolt.Options fields, letting callers trade durability for
	// throughput in tests or bulk-load scenarios.
	NoSync     bool
	NoGrowSync bool
}

// Open opens (creating if absent) the bbolt file for docID under dir and
// ensures all six partitions exist.
func Open(dir string, docID string, opts Options) (*Store, error) {
	path := filepath.Join(dir, docID+".crdt.db")
	db, err := bolt.Open(path, 0600, &bolt.Options{
		NoSync:     opts.NoSync,
		NoGrowSync: opts.NoGrowSync,
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	log.WithComponent("store").Info().Str("doc_id", docID).Str("path", path).Msg("store opened")
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx begins a read-write transaction and runs fn within it, committing on
// a nil return and rolling back otherwise — the same db.Update(func(tx)
// error) shape as warren's BoltStore.
func (s *Store) Tx(fn func(*Txn) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(newTxn(btx))
	})
}

// View begins a read-only transaction.
func (s *Store) View(fn func(*Txn) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(newTxn(btx))
	})
}

// Begin starts a write transaction whose lifetime the caller controls
// directly via Txn.Commit/Txn.Rollback, for callers (txn.Transaction) that
// need to span several operations — applying more than one update, or
// reading the state vector — before deciding to flush or discard. Prefer
// Tx for anything that fits in one closure.
func (s *Store) Begin() (*Txn, error) {
	btx, err := s.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return newTxn(btx), nil
}
