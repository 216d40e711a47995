package store

import (
	"encoding/binary"

	"github.com/cshekharsharma/crdtstore/id"
)

// blockKey encodes a block's identity as a fixed-width, big-endian key so
// bbolt's native byte-lexicographic ordering sorts blocks by (client,
// clock) — grounded on other_examples' progressdb keys-format.go
// fixed-width-padded key discipline, adapted from decimal zero-padding to
// raw big-endian integers (bbolt compares bytes, not parsed numbers, so
// fixed-width binary is both shorter and simpler than padded decimal).
func blockKey(blockID id.ID) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[0:8], uint64(blockID.Client))
	binary.BigEndian.PutUint64(key[8:16], uint64(blockID.Clock))
	return key
}

func decodeBlockKey(key []byte) id.ID {
	client := binary.BigEndian.Uint64(key[0:8])
	clock := binary.BigEndian.Uint64(key[8:16])
	return id.New(id.ClientID(client), id.Clock(clock))
}

// clientKeyPrefix returns the key prefix covering every clock a client
// has, for prefix-scoped cursor seeks.
func clientKeyPrefix(client id.ClientID) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(client))
	return key
}

func stateVectorKey(client id.ClientID) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(client))
	return key
}

func internKey(hash uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, hash)
	return key
}

// contentKey addresses one element of a multi-unit atom/json block's
// content, by the ID of that specific element (the block's own ID plus a
// clock offset per element) — spec.md §4.5's bucket-sliced content
// addressing, grounded on original_source/src/store/content_store.rs.
func contentKey(elementID id.ID) []byte {
	return blockKey(elementID)
}

// mapKey addresses the current winning head for one key of a map-type
// node: NodeID (16 bytes) followed by the 4-byte hash of the key string.
func mapKey(parent id.NodeID, keyHash uint32) []byte {
	key := make([]byte, 20)
	binary.BigEndian.PutUint64(key[0:8], uint64(parent.Client))
	binary.BigEndian.PutUint64(key[8:16], uint64(parent.Clock))
	binary.BigEndian.PutUint32(key[16:20], keyHash)
	return key
}

// mapKeyPrefix returns the prefix covering every key under parent, used
// by Clear to enumerate a map node's current heads.
func mapKeyPrefix(parent id.NodeID) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[0:8], uint64(parent.Client))
	binary.BigEndian.PutUint64(key[8:16], uint64(parent.Clock))
	return key
}
