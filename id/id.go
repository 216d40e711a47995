// Package id defines the CRDT identity primitives: per-client clocks, the
// composite (client, clock) ID, node identifiers, and the state-vector and
// delete-set bookkeeping built on top of them.
//
// Grounded on cshekharsharma-go-crdt's rga.go ID{Timestamp,NodeID} with its
// Greater tiebreak, generalized from a single logical timestamp to a
// per-client monotone clock per spec.md §3.1/§3.5/§3.6.
package id

import "fmt"

// ClientID identifies the replica that authored a block. RootParent is a
// reserved sentinel used as the client half of a root node's NodeID so that
// root names never collide with a nested block's own ID.
type ClientID uint64

// RootParent is the sentinel ClientID marking a NodeID as a root (named)
// node rather than a nested (block-owned) one.
const RootParent ClientID = ^ClientID(0)

// Clock is a per-client monotonically increasing sequence counter. Clock 0
// is the first operation a client ever issues.
type Clock uint64

// ID identifies a single CRDT operation (or the first unit of a multi-unit
// block) by the client that authored it and that client's clock at the
// time.
type ID struct {
	Client ClientID
	Clock  Clock
}

// New builds an ID.
func New(client ClientID, clock Clock) ID {
	return ID{Client: client, Clock: clock}
}

// String renders an ID as "client:clock" for logs and error messages.
func (i ID) String() string {
	return fmt.Sprintf("%d:%d", uint64(i.Client), uint64(i.Clock))
}

// Next returns the ID immediately following i in the same client's clock
// sequence.
func (i ID) Next() ID {
	return ID{Client: i.Client, Clock: i.Clock + 1}
}

// NodeID identifies a CRDT container (the document root, a named root
// node, or a nested node owned by a block). Root nodes use the RootParent
// sentinel client and a 32-bit hash of their name as the clock; nested
// nodes reuse the owning block's own ID.
type NodeID struct {
	Client ClientID
	Clock  Clock
}

// RootNodeID builds the NodeID for a named root node, hashing name into
// the clock slot. Callers are expected to pass the interned-string hash
// (see block.HashString) so root names remain stable across encodings.
func RootNodeID(nameHash uint32) NodeID {
	return NodeID{Client: RootParent, Clock: Clock(nameHash)}
}

// NestedNodeID builds the NodeID for a node owned by a specific block.
func NestedNodeID(owner ID) NodeID {
	return NodeID{Client: owner.Client, Clock: owner.Clock}
}

// IsRoot reports whether this NodeID names a root node rather than a
// nested one.
func (n NodeID) IsRoot() bool {
	return n.Client == RootParent
}

func (n NodeID) String() string {
	if n.IsRoot() {
		return fmt.Sprintf("root#%d", uint64(n.Clock))
	}
	return fmt.Sprintf("node(%d:%d)", uint64(n.Client), uint64(n.Clock))
}
