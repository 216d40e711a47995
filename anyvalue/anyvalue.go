// Package anyvalue implements the tagged any-value codec used for atom and
// json block content (spec.md §4.2): a one-byte tag followed by a
// tag-specific payload, plus a streaming Copy that relocates an encoded
// value without decoding it into a Go value.
//
// Grounded on original_source/src/lib0/{mod,value,ser,de,copy}.rs for the
// tag vocabulary and integer-selection policy. Two disambiguations of that
// source are recorded in DESIGN.md ("Wire-format disambiguations"): object
// keys are bare (untagged) strings, and the bigint payload is a fixed
// 8-byte big-endian two's complement integer.
package anyvalue

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sort"

	"github.com/cshekharsharma/crdtstore/errs"
	"github.com/cshekharsharma/crdtstore/varint"
)

// Tag values, exactly per spec.md §4.2's table.
const (
	TagUndefined uint8 = 127
	TagNull      uint8 = 126
	TagInteger   uint8 = 125
	TagFloat32   uint8 = 124
	TagFloat64   uint8 = 123
	TagBigInt    uint8 = 122
	TagFalse     uint8 = 121
	TagTrue      uint8 = 120
	TagString    uint8 = 119
	TagObject    uint8 = 118
	TagArray     uint8 = 117
	TagBytes     uint8 = 116
)

// f64MaxSafeInteger / f64MinSafeInteger bound the range an integer can
// occupy and still be encoded as TagInteger (a varint) rather than
// TagBigInt (a fixed 8-byte payload). 2^53-1, matching IEEE-754 double
// precision's exact-integer range.
const (
	f64MaxSafeInteger int64 = 1<<53 - 1
	f64MinSafeInteger int64 = -(1<<53 - 1)
)

// Undefined is the sentinel value for the "undefined" tag: a concept
// distinct from "null" that Go doesn't otherwise represent.
type Undefined struct{}

// Null is the sentinel value for the "null" tag.
type Null struct{}

// Reader is the minimal surface anyvalue needs to decode: byte-at-a-time
// access for varints alongside bulk reads for strings/floats/bytes.
type Reader interface {
	io.Reader
	io.ByteReader
}

// NewReader wraps r for use with Decode/Copy if it doesn't already
// implement Reader.
func NewReader(r io.Reader) Reader {
	if rr, ok := r.(Reader); ok {
		return rr
	}
	return bufio.NewReader(r)
}

// Encode writes v to w using the tag vocabulary above.
func Encode(w io.Writer, v any) error {
	switch val := v.(type) {
	case nil, Undefined:
		return writeTag(w, TagUndefined)
	case Null:
		return writeTag(w, TagNull)
	case bool:
		if val {
			return writeTag(w, TagTrue)
		}
		return writeTag(w, TagFalse)
	case string:
		return encodeString(w, val)
	case []byte:
		return encodeBytes(w, val)
	case int:
		return encodeInt(w, int64(val))
	case int32:
		return encodeInt(w, int64(val))
	case int64:
		return encodeInt(w, val)
	case uint:
		return encodeInt(w, int64(val))
	case uint32:
		return encodeInt(w, int64(val))
	case uint64:
		return encodeInt(w, int64(val))
	case float32:
		return encodeFloat(w, float64(val))
	case float64:
		return encodeFloat(w, val)
	case map[string]any:
		return encodeObject(w, val)
	case map[any]any:
		return encodeLooseObject(w, val)
	case []any:
		return encodeArray(w, val)
	default:
		return errors.New("anyvalue: unsupported Go type for Encode")
	}
}

func writeTag(w io.Writer, tag uint8) error {
	if _, err := w.Write([]byte{tag}); err != nil {
		return errs.ErrIO
	}
	return nil
}

func encodeString(w io.Writer, s string) error {
	if err := writeTag(w, TagString); err != nil {
		return err
	}
	return writeRawString(w, s)
}

func writeRawString(w io.Writer, s string) error {
	if err := varint.WriteUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return errs.ErrIO
	}
	return nil
}

func encodeBytes(w io.Writer, b []byte) error {
	if err := writeTag(w, TagBytes); err != nil {
		return err
	}
	if err := varint.WriteUvarint(w, uint64(len(b))); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return errs.ErrIO
	}
	return nil
}

// encodeInt applies the integer-selection policy: values within the
// IEEE-754 safe-integer range encode as a compact varint; anything wider
// falls back to a fixed 8-byte bigint payload.
func encodeInt(w io.Writer, v int64) error {
	if v >= f64MinSafeInteger && v <= f64MaxSafeInteger {
		if err := writeTag(w, TagInteger); err != nil {
			return err
		}
		return varint.WriteInt64(w, v)
	}
	if err := writeTag(w, TagBigInt); err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	if _, err := w.Write(buf[:]); err != nil {
		return errs.ErrIO
	}
	return nil
}

// encodeFloat picks the narrowest IEEE-754 width that round-trips v
// exactly, falling back to float64 otherwise.
func encodeFloat(w io.Writer, v float64) error {
	if f32 := float32(v); float64(f32) == v {
		if err := writeTag(w, TagFloat32); err != nil {
			return err
		}
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], math.Float32bits(f32))
		_, err := w.Write(buf[:])
		if err != nil {
			return errs.ErrIO
		}
		return nil
	}
	if err := writeTag(w, TagFloat64); err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	if _, err := w.Write(buf[:]); err != nil {
		return errs.ErrIO
	}
	return nil
}

func encodeObject(w io.Writer, obj map[string]any) error {
	if err := writeTag(w, TagObject); err != nil {
		return err
	}
	if err := varint.WriteUvarint(w, uint64(len(obj))); err != nil {
		return err
	}
	// Deterministic key order: the wire format doesn't require it, but a
	// document store diffing and re-encoding updates benefits from stable
	// byte output.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeRawString(w, k); err != nil {
			return err
		}
		if err := Encode(w, obj[k]); err != nil {
			return err
		}
	}
	return nil
}

// encodeLooseObject handles the case where a caller built an object with
// non-string-typed keys (e.g. decoded JSON with interface{} keys); any key
// that isn't actually a string is rejected per spec.md §7's NonStringKey
// failure mode.
func encodeLooseObject(w io.Writer, obj map[any]any) error {
	strObj := make(map[string]any, len(obj))
	for k, v := range obj {
		sk, ok := k.(string)
		if !ok {
			return errs.ErrNonStringKey
		}
		strObj[sk] = v
	}
	return encodeObject(w, strObj)
}

func encodeArray(w io.Writer, arr []any) error {
	if err := writeTag(w, TagArray); err != nil {
		return err
	}
	if err := varint.WriteUvarint(w, uint64(len(arr))); err != nil {
		return err
	}
	for _, el := range arr {
		if err := Encode(w, el); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads one tagged value from r.
func Decode(r Reader) (any, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return nil, errs.ErrEndOfBuffer
		}
		return nil, errs.ErrIO
	}
	return decodeBody(r, tagByte)
}

func decodeBody(r Reader, tag uint8) (any, error) {
	switch tag {
	case TagUndefined:
		return Undefined{}, nil
	case TagNull:
		return Null{}, nil
	case TagTrue:
		return true, nil
	case TagFalse:
		return false, nil
	case TagInteger:
		return varint.ReadInt64(r)
	case TagBigInt:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, errs.ErrEndOfBuffer
		}
		return int64(binary.BigEndian.Uint64(buf[:])), nil
	case TagFloat32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, errs.ErrEndOfBuffer
		}
		return float64(math.Float32frombits(binary.BigEndian.Uint32(buf[:]))), nil
	case TagFloat64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, errs.ErrEndOfBuffer
		}
		return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
	case TagString:
		return readRawString(r)
	case TagBytes:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errs.ErrEndOfBuffer
		}
		return buf, nil
	case TagObject:
		return decodeObject(r)
	case TagArray:
		return decodeArray(r)
	default:
		return nil, errs.ErrUnknownTag
	}
}

func readRawString(r Reader) (string, error) {
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

func decodeObject(r Reader) (any, error) {
	count, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, count)
	for i := uint64(0); i < count; i++ {
		key, err := readRawString(r)
		if err != nil {
			return nil, err
		}
		val, err := Decode(r)
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

func decodeArray(r Reader) (any, error) {
	count, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, count)
	for i := uint64(0); i < count; i++ {
		val, err := Decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

// Copy streams one tagged value from r to w without materializing it into
// a Go value, recursing into objects/arrays tag-by-tag. Used by
// the update package's readContent so atom/json content is relocated into storage
// without a decode/re-encode round trip.
//
// Grounded on original_source/src/lib0/copy.rs's copy_any, with the
// object-key and bigint disambiguations noted at the package level.
func Copy(r Reader, w io.Writer) error {
	tag, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return errs.ErrEndOfBuffer
		}
		return errs.ErrIO
	}
	if err := writeTag(w, tag); err != nil {
		return err
	}
	switch tag {
	case TagUndefined, TagNull, TagTrue, TagFalse:
		return nil
	case TagInteger:
		mag, neg, err := varint.ReadVarint(r)
		if err != nil {
			return err
		}
		return varint.WriteVarint(w, int64(mag), neg)
	case TagBigInt:
		return copyN(r, w, 8)
	case TagFloat32:
		return copyN(r, w, 4)
	case TagFloat64:
		return copyN(r, w, 8)
	case TagString:
		return copyRawString(r, w)
	case TagBytes:
		n, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		if err := varint.WriteUvarint(w, n); err != nil {
			return err
		}
		return copyN(r, w, int64(n))
	case TagObject:
		count, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		if err := varint.WriteUvarint(w, count); err != nil {
			return err
		}
		for i := uint64(0); i < count; i++ {
			if err := copyRawString(r, w); err != nil {
				return err
			}
			if err := Copy(r, w); err != nil {
				return err
			}
		}
		return nil
	case TagArray:
		count, err := varint.ReadUvarint(r)
		if err != nil {
			return err
		}
		if err := varint.WriteUvarint(w, count); err != nil {
			return err
		}
		for i := uint64(0); i < count; i++ {
			if err := Copy(r, w); err != nil {
				return err
			}
		}
		return nil
	default:
		return errs.ErrUnknownTag
	}
}

func copyN(r Reader, w io.Writer, n int64) error {
	written, err := io.CopyN(w, r, n)
	if err != nil || written != n {
		return errs.ErrEndOfBuffer
	}
	return nil
}

func copyRawString(r Reader, w io.Writer) error {
	n, err := varint.ReadUvarint(r)
	if err != nil {
		return err
	}
	if err := varint.WriteUvarint(w, n); err != nil {
		return err
	}
	return copyN(r, w, int64(n))
}
