// Package varint implements the unsigned and signed variable-length integer
// codec used as the base of every other wire format in crdtstore: 7 data
// bits per byte, high bit set to signal a continuation byte.
//
// Grounded on original_source/src/varint.rs: the signed encoding reserves
// bit 6 of the first byte for the sign, distinguishing +0 from -0 so that
// round-tripping a negative zero doesn't collapse it to a positive one.
package varint

import (
	"io"

	"github.com/cshekharsharma/crdtstore/errs"
)

// maxContinuationBytes bounds how many continuation bytes a u64/i64 varint
// may use before it is considered corrupt. 10 bytes covers 70 data bits,
// matching original_source's `len > 70` bound with headroom for the signed
// encoding's narrower first byte.
const maxContinuationBytes = 10

// WriteUvarint writes v to w as an unsigned varint.
func WriteUvarint(w io.Writer, v uint64) error {
	var buf [maxContinuationBytes]byte
	n := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf[n] = b | 0x80
			n++
		} else {
			buf[n] = b
			n++
			break
		}
	}
	_, err := w.Write(buf[:n])
	if err != nil {
		return errs.ErrIO
	}
	return nil
}

// ReadUvarint reads an unsigned varint from r.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		if i >= maxContinuationBytes {
			return 0, errs.ErrValueOutOfRange
		}
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, errs.ErrEndOfBuffer
			}
			return 0, errs.ErrIO
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result, nil
}

// WriteVarint writes v to w as a signed varint. The first byte carries a
// continuation bit (0x80), a sign bit (0x40), and 6 data bits; subsequent
// bytes carry a continuation bit and 7 data bits. The sign bit is written
// even when the magnitude is zero, so -0 and +0 round-trip distinctly.
func WriteVarint(w io.Writer, v int64, negative bool) error {
	mag := uint64(v)
	if v < 0 {
		mag = uint64(-v)
	}
	first := byte(mag & 0x3f)
	mag >>= 6
	if negative {
		first |= 0x40
	}
	if mag != 0 {
		first |= 0x80
	}
	if err := writeByte(w, first); err != nil {
		return err
	}
	if mag == 0 {
		return nil
	}
	var buf [maxContinuationBytes]byte
	n := 0
	for {
		b := byte(mag & 0x7f)
		mag >>= 7
		if mag != 0 {
			buf[n] = b | 0x80
			n++
		} else {
			buf[n] = b
			n++
			break
		}
	}
	_, err := w.Write(buf[:n])
	if err != nil {
		return errs.ErrIO
	}
	return nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	if err != nil {
		return errs.ErrIO
	}
	return nil
}

// ReadVarint reads a signed varint from r, returning its magnitude and
// whether it is negative. Callers that need a plain int64 should call
// ReadInt64 instead; ReadVarint is exposed so that -0 can be observed where
// it matters (content.Deleted ranges never need it, but tests do).
func ReadVarint(r io.ByteReader) (magnitude uint64, negative bool, err error) {
	b, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, false, errs.ErrEndOfBuffer
		}
		return 0, false, errs.ErrIO
	}
	negative = b&0x40 != 0
	magnitude = uint64(b & 0x3f)
	if b&0x80 == 0 {
		return magnitude, negative, nil
	}
	var shift uint = 6
	for i := 0; ; i++ {
		if i >= maxContinuationBytes {
			return 0, false, errs.ErrValueOutOfRange
		}
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, false, errs.ErrEndOfBuffer
			}
			return 0, false, errs.ErrIO
		}
		magnitude |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return magnitude, negative, nil
}

// WriteInt64 writes v as a signed varint, treating zero as positive.
func WriteInt64(w io.Writer, v int64) error {
	return WriteVarint(w, v, v < 0)
}

// ReadInt64 reads a signed varint as a plain int64 (negative zero collapses
// to 0, same as the language's own int64 zero value).
func ReadInt64(r io.ByteReader) (int64, error) {
	mag, neg, err := ReadVarint(r)
	if err != nil {
		return 0, err
	}
	if neg {
		return -int64(mag), nil
	}
	return int64(mag), nil
}
