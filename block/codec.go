package block

import (
	"bufio"
	"io"

	"github.com/cshekharsharma/crdtstore/anyvalue"
	"github.com/cshekharsharma/crdtstore/errs"
	"github.com/cshekharsharma/crdtstore/id"
	"github.com/cshekharsharma/crdtstore/varint"
)

// EncodeStored writes a complete, self-contained representation of b —
// full header plus content — for persistence in the store's BLOCK
// partition. This differs from the update package's carrier wire format
// (which omits fields it can infer from a neighboring block to save
// bytes on the network): a stored block must be reconstructable on its
// own, since neighbors may be looked up lazily long after the block that
// referenced them was written.
func EncodeStored(w io.Writer, b *Block) error {
	if err := writeID(w, b.ID); err != nil {
		return err
	}
	if err := varint.WriteUvarint(w, uint64(b.Header.ClockLen)); err != nil {
		return err
	}
	if err := writeByte(w, byte(b.Header.Flags)); err != nil {
		return err
	}
	if err := writeByte(w, byte(b.Header.ContentType)); err != nil {
		return err
	}
	if b.Header.HasLeft() {
		if err := writeID(w, b.Header.Left); err != nil {
			return err
		}
	}
	if b.Header.HasRight() {
		if err := writeID(w, b.Header.Right); err != nil {
			return err
		}
	}
	if b.Header.HasOriginLeft() {
		if err := writeID(w, b.Header.OriginLeft); err != nil {
			return err
		}
	}
	if b.Header.HasOriginRight() {
		if err := writeID(w, b.Header.OriginRight); err != nil {
			return err
		}
	}
	if err := writeID(w, id.ID{Client: b.Header.Parent.Client, Clock: b.Header.Parent.Clock}); err != nil {
		return err
	}
	if err := writeRawString(w, b.Header.Key); err != nil {
		return err
	}
	return writeContent(w, b)
}

// DecodeStored reads a block previously written by EncodeStored.
func DecodeStored(r io.Reader) (*Block, error) {
	br := bufio.NewReader(r)
	blkID, err := readID(br)
	if err != nil {
		return nil, err
	}
	clockLen, err := varint.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	flagsByte, err := br.ReadByte()
	if err != nil {
		return nil, errs.ErrEndOfBuffer
	}
	ctByte, err := br.ReadByte()
	if err != nil {
		return nil, errs.ErrEndOfBuffer
	}

	h := Header{ClockLen: id.Clock(clockLen), Flags: Flags(flagsByte), ContentType: ContentType(ctByte)}
	if h.HasLeft() {
		v, err := readID(br)
		if err != nil {
			return nil, err
		}
		h.Left = v
	}
	if h.HasRight() {
		v, err := readID(br)
		if err != nil {
			return nil, err
		}
		h.Right = v
	}
	if h.HasOriginLeft() {
		v, err := readID(br)
		if err != nil {
			return nil, err
		}
		h.OriginLeft = v
	}
	if h.HasOriginRight() {
		v, err := readID(br)
		if err != nil {
			return nil, err
		}
		h.OriginRight = v
	}
	parentID, err := readID(br)
	if err != nil {
		return nil, err
	}
	h.Parent = id.NodeID{Client: parentID.Client, Clock: parentID.Clock}
	key, err := readRawString(br)
	if err != nil {
		return nil, err
	}
	h.Key = key

	blk := &Block{ID: blkID, Header: h}
	if err := readContentStored(br, blk); err != nil {
		return nil, err
	}
	return blk, nil
}

func writeID(w io.Writer, v id.ID) error {
	if err := varint.WriteUvarint(w, uint64(v.Client)); err != nil {
		return err
	}
	return varint.WriteUvarint(w, uint64(v.Clock))
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

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	if err != nil {
		return errs.ErrIO
	}
	return nil
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

func writeContent(w io.Writer, b *Block) error {
	switch b.Header.ContentType {
	case ContentDeleted:
		return nil // ClockLen already carries all needed information
	case ContentString, ContentBinary, ContentEmbed:
		if err := varint.WriteUvarint(w, uint64(len(b.Body))); err != nil {
			return err
		}
		_, err := w.Write(b.Body)
		if err != nil {
			return errs.ErrIO
		}
		return nil
	case ContentAtom, ContentJSON:
		if err := varint.WriteUvarint(w, uint64(len(b.Parts))); err != nil {
			return err
		}
		for _, part := range b.Parts {
			if err := varint.WriteUvarint(w, uint64(len(part))); err != nil {
				return err
			}
			if _, err := w.Write(part); err != nil {
				return errs.ErrIO
			}
		}
		return nil
	case ContentFormat:
		if err := writeRawString(w, b.FormatKey); err != nil {
			return err
		}
		if err := varint.WriteUvarint(w, uint64(len(b.FormatValue))); err != nil {
			return err
		}
		_, err := w.Write(b.FormatValue)
		if err != nil {
			return errs.ErrIO
		}
		return nil
	case ContentNode:
		return writeByte(w, b.NodeRef)
	default:
		return errs.ErrUnsupportedContentType
	}
}

func readContentStored(r *bufio.Reader, b *Block) error {
	switch b.Header.ContentType {
	case ContentDeleted:
		return nil
	case ContentString, ContentBinary, ContentEmbed:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return errs.ErrEndOfBuffer
		}
		b.Body = buf
		return nil
	case ContentAtom, ContentJSON:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		parts := make([][]byte, 0, n)
		for i := uint64(0); i < n; i++ {
			plen, err := varint.ReadUvarint(r)
			if err != nil {
				return err
			}
			buf := make([]byte, plen)
			if _, err := io.ReadFull(r, buf); err != nil {
				return errs.ErrEndOfBuffer
			}
			parts = append(parts, buf)
		}
		b.Parts = parts
		return nil
	case ContentFormat:
		key, err := readRawString(r)
		if err != nil {
			return err
		}
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return errs.ErrEndOfBuffer
		}
		b.FormatKey = key
		b.FormatValue = buf
		return nil
	case ContentNode:
		ref, err := r.ReadByte()
		if err != nil {
			return errs.ErrEndOfBuffer
		}
		b.NodeRef = ref
		return nil
	default:
		return errs.ErrUnsupportedContentType
	}
}

// DecodeAnyElement decodes a single any-value-encoded CONTENT-partition
// element (one unit of an atom/json block's Parts), for callers that need
// the materialized Go value rather than the raw bytes.
func DecodeAnyElement(raw []byte) (any, error) {
	return anyvalue.Decode(anyvalue.NewReader(newByteSliceReader(raw)))
}

type byteSliceReader struct {
	b   []byte
	pos int
}

func newByteSliceReader(b []byte) *byteSliceReader { return &byteSliceReader{b: b} }

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
