package update

import (
	"io"
	"sort"

	"github.com/cshekharsharma/crdtstore/anyvalue"
	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/errs"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/varint"
)

// Update is a fully materialized update: per-client carrier runs plus a
// delete set. txn.CreateUpdate builds one of these from a store diff;
// txn.ApplyUpdate consumes one via Decoder instead, to integrate carriers
// as they arrive rather than buffering the whole update in memory — but
// Update/Encode is how a caller emitting a from-scratch update (e.g. the
// CLI's `export` command) serializes what it already holds in memory.
type Update struct {
	Blocks    map[id.ClientID][]Carrier
	DeleteSet *id.IDSet
}

// New returns an empty Update ready to accumulate carriers.
func New() *Update {
	return &Update{Blocks: make(map[id.ClientID][]Carrier), DeleteSet: id.NewIDSet()}
}

// Add appends a carrier to its client's run. Carriers for a given client
// must be appended in increasing clock order; Encode does not re-sort
// within a client, only across clients.
func (u *Update) Add(c Carrier) {
	client := c.Head().Client
	u.Blocks[client] = append(u.Blocks[client], c)
}

// Encode writes u to w in the wire format Decoder reads.
func (u *Update) Encode(w io.Writer) error {
	clients := make([]id.ClientID, 0, len(u.Blocks))
	for c, carriers := range u.Blocks {
		if len(carriers) > 0 {
			clients = append(clients, c)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })

	if err := varint.WriteUvarint(w, uint64(len(clients))); err != nil {
		return err
	}
	for _, client := range clients {
		carriers := u.Blocks[client]
		if err := varint.WriteUvarint(w, uint64(len(carriers))); err != nil {
			return err
		}
		if err := varint.WriteUvarint(w, uint64(client)); err != nil {
			return err
		}
		if err := varint.WriteUvarint(w, uint64(carriers[0].Head().Clock)); err != nil {
			return err
		}
		for _, c := range carriers {
			if err := encodeOneCarrier(w, c); err != nil {
				return err
			}
		}
	}

	ds := u.DeleteSet
	if ds == nil {
		ds = id.NewIDSet()
	}
	return encodeIDSet(w, ds)
}

func encodeOneCarrier(w io.Writer, c Carrier) error {
	switch v := c.(type) {
	case Range:
		info := byte(contentKindGC)
		if v.Kind == RangeSkip {
			info = byte(contentKindSkip)
		}
		if err := writeByte(w, info); err != nil {
			return err
		}
		return varint.WriteUvarint(w, uint64(v.Length))
	case *BlockCarrier:
		return encodeBlockCarrier(w, v)
	default:
		return errs.ErrMalformedBlock
	}
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	if err != nil {
		return errs.ErrIO
	}
	return nil
}

func encodeBlockCarrier(w io.Writer, c *BlockCarrier) error {
	h := c.Blk.Header
	info := byte(h.ContentType) & infoContentMask
	if h.HasOriginLeft() {
		info |= infoHasOriginLeft
	}
	if h.HasOriginRight() {
		info |= infoHasOriginRight
	}
	cannotInferParent := c.Parent != nil
	if cannotInferParent && h.HasKey() {
		info |= infoHasParentKey
	}

	if err := writeByte(w, info); err != nil {
		return err
	}
	if h.HasOriginLeft() {
		if err := writeID(w, h.OriginLeft); err != nil {
			return err
		}
	}
	if h.HasOriginRight() {
		if err := writeID(w, h.OriginRight); err != nil {
			return err
		}
	}
	if cannotInferParent {
		if c.Parent.IsRoot {
			if err := writeByte(w, 1); err != nil {
				return err
			}
			if err := writeRawString(w, c.Parent.RootName); err != nil {
				return err
			}
		} else {
			if err := writeByte(w, 0); err != nil {
				return err
			}
			if err := writeID(w, c.Parent.NestedOwner); err != nil {
				return err
			}
		}
		if h.HasKey() {
			if err := writeRawString(w, h.Key); err != nil {
				return err
			}
		}
	}

	return writeContent(w, c.Blk)
}

func writeID(w io.Writer, v id.ID) error {
	if err := varint.WriteUvarint(w, uint64(v.Client)); err != nil {
		return err
	}
	return varint.WriteUvarint(w, uint64(v.Clock))
}

func writeRawString(w io.Writer, s string) error {
	if err := varint.WriteUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	if err != nil {
		return errs.ErrIO
	}
	return nil
}

func writeContent(w io.Writer, blk *block.Block) error {
	switch blk.Header.ContentType {
	case block.ContentDeleted:
		return varint.WriteUvarint(w, uint64(blk.Header.ClockLen))
	case block.ContentString:
		return writeRawString(w, string(blk.Body))
	case block.ContentBinary:
		if err := varint.WriteUvarint(w, uint64(len(blk.Body))); err != nil {
			return err
		}
		_, err := w.Write(blk.Body)
		if err != nil {
			return errs.ErrIO
		}
		return nil
	case block.ContentAtom, block.ContentJSON:
		if err := varint.WriteUvarint(w, uint64(len(blk.Parts))); err != nil {
			return err
		}
		for _, part := range blk.Parts {
			if err := anyvalue.Copy(anyvalue.NewReader(bytesReader(part)), w); err != nil {
				return err
			}
		}
		return nil
	case block.ContentEmbed:
		return anyvalue.Copy(anyvalue.NewReader(bytesReader(blk.Body)), w)
	case block.ContentFormat:
		if err := writeRawString(w, blk.FormatKey); err != nil {
			return err
		}
		return anyvalue.Copy(anyvalue.NewReader(bytesReader(blk.FormatValue)), w)
	case block.ContentNode:
		return writeByte(w, blk.NodeRef)
	default:
		return errs.ErrUnsupportedContentType
	}
}

// bytesReader wraps a []byte as an io.Reader for re-streaming through
// anyvalue.Copy.
type bytesReaderT struct {
	b   []byte
	pos int
}

func bytesReader(b []byte) *bytesReaderT { return &bytesReaderT{b: b} }

func (r *bytesReaderT) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

func encodeIDSet(w io.Writer, set *id.IDSet) error {
	clients := set.Clients()
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })
	if err := varint.WriteUvarint(w, uint64(len(clients))); err != nil {
		return err
	}
	for _, client := range clients {
		ranges := set.Ranges(client)
		if err := varint.WriteUvarint(w, uint64(client)); err != nil {
			return err
		}
		if err := varint.WriteUvarint(w, uint64(len(ranges))); err != nil {
			return err
		}
		cursor := id.Clock(0)
		for _, r := range ranges {
			delta := r.Start.Clock - cursor
			if err := varint.WriteUvarint(w, uint64(delta)); err != nil {
				return err
			}
			if err := varint.WriteUvarint(w, uint64(r.Length)); err != nil {
				return err
			}
			cursor = r.Start.Clock + r.Length
		}
	}
	return nil
}
