package txn

import (
	"bytes"
	"testing"

	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/errs"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/store"
	"github.com/cshekharsharma/crdtstore/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), "doc", store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// charBlock builds a one-byte String carrier for a named root.
func charBlock(client id.ClientID, clock id.Clock, ch byte, rootName string, originLeft, originRight *id.ID) *update.BlockCarrier {
	var h block.Header
	h.ContentType = block.ContentString
	h.ClockLen = 1
	if originLeft != nil {
		h.SetOriginLeft(*originLeft)
	}
	if originRight != nil {
		h.SetOriginRight(*originRight)
	}
	var parent *update.ParentRef
	if originLeft == nil && originRight == nil {
		h.Parent = id.RootNodeID(block.HashString(rootName))
		parent = &update.ParentRef{IsRoot: true, RootName: rootName}
	}
	blk := block.New(id.New(client, clock), h)
	blk.Body = []byte{ch}
	return &update.BlockCarrier{Blk: blk, Parent: parent}
}

func encode(t *testing.T, carriers ...update.Carrier) []byte {
	t.Helper()
	u := update.New()
	for _, c := range carriers {
		u.Add(c)
	}
	var buf bytes.Buffer
	require.NoError(t, u.Encode(&buf))
	return buf.Bytes()
}

func TestTransaction_ApplyUpdateThenCommit(t *testing.T) {
	s := openTestStore(t)

	h := id.New(1, 0)
	e := id.New(1, 1)
	wire := encode(t,
		charBlock(1, 0, 'H', "title", nil, nil),
		charBlock(1, 1, 'E', "title", &h, nil),
		charBlock(1, 2, 'Y', "title", &e, nil),
	)

	tx, err := Begin(s)
	require.NoError(t, err)
	require.NoError(t, tx.ApplyUpdate(bytes.NewReader(wire)))
	require.NoError(t, tx.Commit())

	s.View(func(vtx *store.Txn) error {
		sv, err := vtx.StateVector()
		require.NoError(t, err)
		assert.Equal(t, id.Clock(3), sv.Get(1))
		return nil
	})
}

func TestTransaction_CommitFailsWhenDependencyNeverArrives(t *testing.T) {
	s := openTestStore(t)

	missing := id.New(9, 5)
	wire := encode(t, charBlock(9, 6, 'C', "body", &missing, nil))

	tx, err := Begin(s)
	require.NoError(t, err)
	require.NoError(t, tx.ApplyUpdate(bytes.NewReader(wire)))

	err = tx.Commit()
	assert.ErrorIs(t, err, errs.ErrUpdateIncomplete)

	// The whole transaction rolled back: nothing from it is visible.
	s.View(func(vtx *store.Txn) error {
		sv, err := vtx.StateVector()
		require.NoError(t, err)
		assert.True(t, sv.IsEmpty())
		return nil
	})
}

func TestTransaction_PendingCarrierIntegratesWhenDependencyArrivesLater(t *testing.T) {
	s := openTestStore(t)

	// spec.md §9 scenario S6: a block's origin_left names a client the
	// document has never seen. The carrier is queued, not rejected; a
	// later update introducing that client's prefix releases it without
	// needing to replay the first update.
	origin := id.New(7, 3)
	wire1 := encode(t, charBlock(9, 6, 'C', "body", &origin, nil))
	wire2 := encode(t, charBlock(7, 3, 'P', "body", nil, nil))

	tx, err := Begin(s)
	require.NoError(t, err)
	require.NoError(t, tx.ApplyUpdate(bytes.NewReader(wire1)))
	require.NoError(t, tx.ApplyUpdate(bytes.NewReader(wire2)))
	require.NoError(t, tx.Commit())

	s.View(func(vtx *store.Txn) error {
		sv, err := vtx.StateVector()
		require.NoError(t, err)
		assert.Equal(t, id.Clock(7), sv.Get(9))
		assert.Equal(t, id.Clock(4), sv.Get(7))
		return nil
	})
}

func TestTransaction_CreateUpdateRoundTrips(t *testing.T) {
	s := openTestStore(t)

	h := id.New(1, 0)
	wire := encode(t,
		charBlock(1, 0, 'H', "title", nil, nil),
		charBlock(1, 1, 'I', "title", &h, nil),
	)

	tx, err := Begin(s)
	require.NoError(t, err)
	require.NoError(t, tx.ApplyUpdate(bytes.NewReader(wire)))
	require.NoError(t, tx.Commit())

	tx2, err := Begin(s)
	require.NoError(t, err)
	upd, err := tx2.CreateUpdate(nil)
	require.NoError(t, err)
	require.NoError(t, tx2.Commit())

	var buf bytes.Buffer
	require.NoError(t, upd.Encode(&buf))

	carriers, _, err := update.DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, carriers, 2)
	assert.Equal(t, id.New(1, 0), carriers[0].Head())
	assert.Equal(t, id.New(1, 1), carriers[1].Head())
}

func TestTransaction_CreateUpdateSinceSplitsAtBoundary(t *testing.T) {
	s := openTestStore(t)

	h := id.New(1, 0)
	e := id.New(1, 1)
	wire := encode(t,
		charBlock(1, 0, 'H', "title", nil, nil),
		charBlock(1, 1, 'E', "title", &h, nil),
		charBlock(1, 2, 'Y', "title", &e, nil),
	)

	tx, err := Begin(s)
	require.NoError(t, err)
	require.NoError(t, tx.ApplyUpdate(bytes.NewReader(wire)))
	require.NoError(t, tx.Commit())

	since := id.NewStateVector()
	since.SetMax(1, 1)

	tx2, err := Begin(s)
	require.NoError(t, err)
	upd, err := tx2.CreateUpdate(since)
	require.NoError(t, err)
	require.NoError(t, tx2.Commit())

	var buf bytes.Buffer
	require.NoError(t, upd.Encode(&buf))
	carriers, _, err := update.DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, carriers, 2)
	assert.Equal(t, id.New(1, 1), carriers[0].Head())
	assert.Equal(t, id.New(1, 2), carriers[1].Head())
}
