package update

import (
	"bufio"
	"io"

	"github.com/cshekharsharma/crdtstore/anyvalue"
	"github.com/cshekharsharma/crdtstore/block"
	"github.com/cshekharsharma/crdtstore/errs"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/varint"
)

// Decoder lazily yields the carriers of an update one at a time, without
// materializing the whole thing into memory — the Go analogue of
// original_source/src/block_reader.rs's BlockReader.
type Decoder struct {
	r                *bufio.Reader
	remainingClients int
	remainingBlocks  int
	currentClient    id.ClientID
	currentClock     id.Clock
}

// NewDecoder starts decoding the block-stream portion of an update. The
// delete set trails the block stream; call DecodeDeleteSet once Next
// returns io.EOF.
func NewDecoder(r io.Reader) (*Decoder, error) {
	br := bufio.NewReader(r)
	n, err := varint.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: br, remainingClients: int(n)}, nil
}

// Next returns the next carrier, or io.EOF once the block stream is
// exhausted.
func (d *Decoder) Next() (Carrier, error) {
	for d.remainingBlocks == 0 {
		if d.remainingClients == 0 {
			return nil, io.EOF
		}
		n, err := varint.ReadUvarint(d.r)
		if err != nil {
			return nil, err
		}
		d.remainingBlocks = int(n)
		client, err := varint.ReadUvarint(d.r)
		if err != nil {
			return nil, err
		}
		clock, err := varint.ReadUvarint(d.r)
		if err != nil {
			return nil, err
		}
		d.currentClient = id.ClientID(client)
		d.currentClock = id.Clock(clock)
		d.remainingClients--
	}

	head := id.New(d.currentClient, d.currentClock)
	carrier, err := decodeOneCarrier(d.r, head)
	if err != nil {
		return nil, err
	}
	d.remainingBlocks--
	d.currentClock += carrier.Len()
	return carrier, nil
}

// DecodeDeleteSet reads the trailing delete set after the block stream is
// exhausted.
func (d *Decoder) DecodeDeleteSet() (*id.IDSet, error) {
	return decodeIDSet(d.r)
}

// DecodeAll reads every carrier plus the trailing delete set. Most callers
// (txn.ApplyUpdate) want the lazy Decoder instead so a BlockNotFound
// failure on an early carrier doesn't force decoding the whole update
// first.
func DecodeAll(r io.Reader) (carriers []Carrier, deleteSet *id.IDSet, err error) {
	dec, err := NewDecoder(r)
	if err != nil {
		return nil, nil, err
	}
	for {
		c, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		carriers = append(carriers, c)
	}
	ds, err := dec.DecodeDeleteSet()
	if err != nil {
		return nil, nil, err
	}
	return carriers, ds, nil
}

func decodeOneCarrier(r *bufio.Reader, head id.ID) (Carrier, error) {
	info, err := r.ReadByte()
	if err != nil {
		return nil, errs.ErrEndOfBuffer
	}
	switch info & infoContentMask {
	case contentKindGC:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		return Range{Kind: RangeGC, Origin: head, Length: id.Clock(n)}, nil
	case contentKindSkip:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		return Range{Kind: RangeSkip, Origin: head, Length: id.Clock(n)}, nil
	default:
		return decodeBlockCarrier(r, head, info)
	}
}

func decodeBlockCarrier(r *bufio.Reader, head id.ID, info byte) (Carrier, error) {
	var header block.Header
	hasOriginLeft := info&infoHasOriginLeft != 0
	hasOriginRight := info&infoHasOriginRight != 0

	if hasOriginLeft {
		oid, err := readID(r)
		if err != nil {
			return nil, err
		}
		header.SetOriginLeft(oid)
	}
	if hasOriginRight {
		oid, err := readID(r)
		if err != nil {
			return nil, err
		}
		header.SetOriginRight(oid)
	}

	var parentRef *ParentRef
	cannotInferParent := !hasOriginLeft && !hasOriginRight
	if cannotInferParent {
		isRoot, err := r.ReadByte()
		if err != nil {
			return nil, errs.ErrEndOfBuffer
		}
		if isRoot != 0 {
			name, err := readRawString(r)
			if err != nil {
				return nil, err
			}
			parentRef = &ParentRef{IsRoot: true, RootName: name}
			header.Parent = id.RootNodeID(block.HashString(name))
		} else {
			owner, err := readID(r)
			if err != nil {
				return nil, err
			}
			parentRef = &ParentRef{IsRoot: false, NestedOwner: owner}
			header.Parent = id.NestedNodeID(owner)
		}
	}

	if cannotInferParent && info&infoHasParentKey != 0 {
		key, err := readRawString(r)
		if err != nil {
			return nil, err
		}
		if len(key) > 255 {
			return nil, errs.ErrKeyTooLong
		}
		header.Key = key
	}

	contentType := block.ContentType(info & infoContentMask)
	if err := contentType.Validate(); err != nil {
		return nil, err
	}
	header.ContentType = contentType

	blk := block.New(head, header)
	if err := readContent(r, blk); err != nil {
		return nil, err
	}

	return &BlockCarrier{Blk: blk, Parent: parentRef}, nil
}

func readID(r *bufio.Reader) (id.ID, error) {
	client, err := varint.ReadUvarint(r)
	if err != nil {
		return id.ID{}, err
	}
	clock, err := varint.ReadUvarint(r)
	if err != nil {
		return id.ID{}, err
	}
	return id.New(id.ClientID(client), id.Clock(clock)), nil
}

func readRawString(r *bufio.Reader) (string, error) {
	n, err := varint.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errs.ErrEndOfBuffer
	}
	return string(buf), nil
}

func readContent(r *bufio.Reader, blk *block.Block) error {
	switch blk.Header.ContentType {
	case block.ContentDeleted:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		blk.Header.ClockLen = id.Clock(n)
	case block.ContentString:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return errs.ErrEndOfBuffer
		}
		blk.Body = buf
		blk.Header.ClockLen = block.UTF16Len(string(buf))
	case block.ContentBinary:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return errs.ErrEndOfBuffer
		}
		blk.Body = buf
		blk.Header.ClockLen = 1
	case block.ContentAtom, block.ContentJSON:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		parts := make([][]byte, 0, n)
		for i := uint64(0); i < n; i++ {
			var buf []byte
			w := bytesWriter{&buf}
			if err := anyvalue.Copy(r, w); err != nil {
				return err
			}
			parts = append(parts, buf)
		}
		blk.Parts = parts
		blk.Header.ClockLen = id.Clock(n)
	case block.ContentEmbed:
		var buf []byte
		w := bytesWriter{&buf}
		if err := anyvalue.Copy(r, w); err != nil {
			return err
		}
		blk.Body = buf
		blk.Header.ClockLen = 1
	case block.ContentFormat:
		key, err := readRawString(r)
		if err != nil {
			return err
		}
		var valBuf []byte
		w := bytesWriter{&valBuf}
		if err := anyvalue.Copy(r, w); err != nil {
			return err
		}
		blk.FormatKey = key
		blk.FormatValue = valBuf
		blk.Header.ClockLen = 1
	case block.ContentNode:
		typeRef, err := r.ReadByte()
		if err != nil {
			return errs.ErrEndOfBuffer
		}
		blk.NodeRef = typeRef
		blk.Header.ClockLen = 1
	default:
		return errs.ErrUnsupportedContentType
	}
	return nil
}

// bytesWriter adapts a *[]byte to io.Writer for anyvalue.Copy's destination.
type bytesWriter struct{ buf *[]byte }

func (w bytesWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

func decodeIDSet(r *bufio.Reader) (*id.IDSet, error) {
	set := id.NewIDSet()
	clientsLen, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < clientsLen; i++ {
		client, err := varint.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		rangesLen, err := varint.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		cursor := id.Clock(0)
		for j := uint64(0); j < rangesLen; j++ {
			startDelta, err := varint.ReadUvarint(r)
			if err != nil {
				return nil, err
			}
			length, err := varint.ReadUvarint(r)
			if err != nil {
				return nil, err
			}
			cursor += id.Clock(startDelta)
			set.Insert(id.New(id.ClientID(client), cursor), id.Clock(length))
			cursor += id.Clock(length)
		}
	}
	return set, nil
}
