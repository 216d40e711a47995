package varint

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cshekharsharma/crdtstore/errs"
)

func TestUvarint_RoundTripSmallValues(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 127, 128, 16383, 16384}
	for _, v := range values {
		var buf bytes.Buffer
		if err := WriteUvarint(&buf, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		got, err := ReadUvarint(&buf)
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
	}
}

func TestUvarint_RoundTripMaxValue(t *testing.T) {
	var buf bytes.Buffer
	v := uint64(1<<64 - 1)
	if err := WriteUvarint(&buf, v); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadUvarint(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != v {
		t.Fatalf("round trip max u64: got %d want %d", got, v)
	}
}

func TestUvarint_EndOfBuffer(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x80, 0x80})
	_, err := ReadUvarint(buf)
	if !errors.Is(err, errs.ErrEndOfBuffer) {
		t.Fatalf("expected ErrEndOfBuffer, got %v", err)
	}
}

func TestUvarint_ValueOutOfRange(t *testing.T) {
	var garbage []byte
	for i := 0; i < 20; i++ {
		garbage = append(garbage, 0x80)
	}
	garbage = append(garbage, 0x01)
	buf := bytes.NewBuffer(garbage)
	_, err := ReadUvarint(buf)
	if !errors.Is(err, errs.ErrValueOutOfRange) {
		t.Fatalf("expected ErrValueOutOfRange, got %v", err)
	}
}

func TestVarint_RoundTripPositiveAndNegative(t *testing.T) {
	values := []int64{0, 1, -1, 63, -63, 64, -64, 1000000, -1000000}
	for _, v := range values {
		var buf bytes.Buffer
		if err := WriteInt64(&buf, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		got, err := ReadInt64(&buf)
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
	}
}

func TestVarint_NegativeZeroPreservedThroughRawRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVarint(&buf, 0, true); err != nil {
		t.Fatalf("write -0: %v", err)
	}
	mag, neg, err := ReadVarint(&buf)
	if err != nil {
		t.Fatalf("read -0: %v", err)
	}
	if mag != 0 || !neg {
		t.Fatalf("expected negative zero to round trip as (0, true), got (%d, %v)", mag, neg)
	}
}

func TestVarint_PositiveZeroDistinctFromNegativeZero(t *testing.T) {
	var posBuf, negBuf bytes.Buffer
	if err := WriteVarint(&posBuf, 0, false); err != nil {
		t.Fatalf("write +0: %v", err)
	}
	if err := WriteVarint(&negBuf, 0, true); err != nil {
		t.Fatalf("write -0: %v", err)
	}
	if bytes.Equal(posBuf.Bytes(), negBuf.Bytes()) {
		t.Fatalf("expected +0 and -0 to encode differently, both were %v", posBuf.Bytes())
	}
}
