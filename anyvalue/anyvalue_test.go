package anyvalue

import (
	"bufio"
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/cshekharsharma/crdtstore/errs"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		t.Fatalf("encode %v: %v", v, err)
	}
	got, err := Decode(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("decode %v: %v", v, err)
	}
	return got
}

func TestEncodeDecode_Primitives(t *testing.T) {
	cases := []any{
		nil, Undefined{}, Null{}, true, false, "hello", "",
	}
	for _, v := range cases {
		got := roundTrip(t, v)
		want := v
		if v == nil {
			want = Undefined{}
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip %#v: got %#v", v, got)
		}
	}
}

func TestEncodeDecode_IntegerUsesTagIntegerInSafeRange(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, int64(42)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	bytesOut := buf.Bytes()
	if bytesOut[0] != TagInteger {
		t.Fatalf("expected TagInteger, got tag %d", bytesOut[0])
	}
	got, err := Decode(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.(int64) != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}

func TestEncodeDecode_IntegerOutsideSafeRangeUsesBigInt(t *testing.T) {
	huge := int64(1) << 60
	var buf bytes.Buffer
	if err := Encode(&buf, huge); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf.Bytes()[0] != TagBigInt {
		t.Fatalf("expected TagBigInt, got tag %d", buf.Bytes()[0])
	}
	got, err := Decode(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.(int64) != huge {
		t.Fatalf("expected %d, got %v", huge, got)
	}
}

func TestEncodeDecode_Float32RoundTripsExactly(t *testing.T) {
	v := 1.5 // exactly representable in float32
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf.Bytes()[0] != TagFloat32 {
		t.Fatalf("expected TagFloat32, got tag %d", buf.Bytes()[0])
	}
	got, err := Decode(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.(float64) != v {
		t.Fatalf("expected %v, got %v", v, got)
	}
}

func TestEncodeDecode_Float64WhenNotFloat32Representable(t *testing.T) {
	v := 0.1 + 0.2 // not exactly representable in float32
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf.Bytes()[0] != TagFloat64 {
		t.Fatalf("expected TagFloat64, got tag %d", buf.Bytes()[0])
	}
	got, err := Decode(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.(float64) != v {
		t.Fatalf("expected %v, got %v", v, got)
	}
}

func TestEncodeDecode_BytesAndArray(t *testing.T) {
	got := roundTrip(t, []byte{1, 2, 3})
	if !bytes.Equal(got.([]byte), []byte{1, 2, 3}) {
		t.Fatalf("bytes round trip mismatch: %v", got)
	}
	arr := []any{int64(1), "two", true}
	got = roundTrip(t, arr)
	gotArr := got.([]any)
	if len(gotArr) != 3 || gotArr[0].(int64) != 1 || gotArr[1].(string) != "two" || gotArr[2].(bool) != true {
		t.Fatalf("array round trip mismatch: %#v", gotArr)
	}
}

func TestEncodeDecode_ObjectKeysAreBareStrings(t *testing.T) {
	obj := map[string]any{"a": int64(1), "b": "x"}
	var buf bytes.Buffer
	if err := Encode(&buf, obj); err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw := buf.Bytes()
	if raw[0] != TagObject {
		t.Fatalf("expected TagObject, got %d", raw[0])
	}
	// field count varint, then key "a" as bare len-prefixed string (no tag
	// byte): next byte should be the key length (1), not TagString (119).
	if raw[2] != 1 {
		t.Fatalf("expected bare key length byte 1, got %d", raw[2])
	}
	got, err := Decode(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gotObj := got.(map[string]any)
	if gotObj["a"].(int64) != 1 || gotObj["b"].(string) != "x" {
		t.Fatalf("object round trip mismatch: %#v", gotObj)
	}
}

func TestEncode_NonStringKeyRejected(t *testing.T) {
	obj := map[any]any{int64(1): "x"}
	var buf bytes.Buffer
	err := Encode(&buf, obj)
	if !errors.Is(err, errs.ErrNonStringKey) {
		t.Fatalf("expected ErrNonStringKey, got %v", err)
	}
}

func TestDecode_UnknownTagRejected(t *testing.T) {
	buf := bytes.NewBuffer([]byte{200})
	_, err := Decode(bufio.NewReader(buf))
	if !errors.Is(err, errs.ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
}

func TestCopy_StreamsWithoutMaterializing(t *testing.T) {
	obj := map[string]any{
		"nested": []any{int64(1), int64(2), "three"},
	}
	var src bytes.Buffer
	if err := Encode(&src, obj); err != nil {
		t.Fatalf("encode: %v", err)
	}
	encoded := src.Bytes()

	var dst bytes.Buffer
	if err := Copy(bufio.NewReader(bytes.NewReader(encoded)), &dst); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !bytes.Equal(dst.Bytes(), encoded) {
		t.Fatalf("copy did not reproduce identical bytes: got %v want %v", dst.Bytes(), encoded)
	}

	got, err := Decode(bufio.NewReader(&dst))
	if err != nil {
		t.Fatalf("decode copied bytes: %v", err)
	}
	gotObj := got.(map[string]any)
	nested := gotObj["nested"].([]any)
	if len(nested) != 3 || nested[2].(string) != "three" {
		t.Fatalf("copied value mismatch: %#v", gotObj)
	}
}

func TestCopy_BigIntPayloadIsFixedEightBytes(t *testing.T) {
	huge := int64(1) << 60
	var src bytes.Buffer
	if err := Encode(&src, huge); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(src.Bytes()) != 1+8 {
		t.Fatalf("expected tag + 8 byte payload, got %d bytes", len(src.Bytes()))
	}
	var dst bytes.Buffer
	if err := Copy(bufio.NewReader(bytes.NewReader(src.Bytes())), &dst); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !bytes.Equal(dst.Bytes(), src.Bytes()) {
		t.Fatalf("copy mismatch for bigint")
	}
}
