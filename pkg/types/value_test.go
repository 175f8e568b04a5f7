package types_test

import (
	"testing"

	"github.com/bobboyms/algebraicdb/pkg/types"
)

func maybeType(t *testing.T) (*types.TypeRegistry, types.TypeId) {
	t.Helper()
	reg := types.NewTypeRegistry()
	id, err := reg.Insert("Maybe", types.Sum([]types.Variant{
		{Name: "Nil"},
		{Name: "Some", Payload: []types.TypeId{types.IntegerTypeId}},
	}))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return reg, id
}

func TestSumValueToBytesPadsSmallerVariantToMaxWidth(t *testing.T) {
	reg, id := maybeType(t)
	want := reg.SizeOf(id)

	nilBytes := types.SumValue{Id: id, Tag: 0}.ToBytes(reg, nil)
	if len(nilBytes) != want {
		t.Fatalf("Nil() serialized to %d bytes, want %d", len(nilBytes), want)
	}

	someBytes := types.SumValue{
		Id:      id,
		Tag:     1,
		Payload: []types.Value{types.IntegerValue{Id: types.IntegerTypeId, V: 7}},
	}.ToBytes(reg, nil)
	if len(someBytes) != want {
		t.Fatalf("Some(7) serialized to %d bytes, want %d", len(someBytes), want)
	}
}

func TestSumValueToBytesRoundTripsThroughDecode(t *testing.T) {
	reg, id := maybeType(t)

	nilBytes := types.SumValue{Id: id, Tag: 0}.ToBytes(reg, nil)
	decoded, err := types.Decode(reg, id, nilBytes)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sv, ok := decoded.(types.SumValue)
	if !ok || sv.Tag != 0 {
		t.Fatalf("decoded = %+v, want Tag 0", decoded)
	}
}

func TestSumValueToBytesConcatenatesAtFixedStride(t *testing.T) {
	// Two consecutive sum values in a row buffer must each occupy exactly
	// reg.SizeOf(id) bytes, or the second value's fields would land at the
	// wrong offsets.
	reg, id := maybeType(t)
	stride := reg.SizeOf(id)

	var buf []byte
	buf = types.SumValue{Id: id, Tag: 0}.ToBytes(reg, buf)
	buf = types.SumValue{
		Id:      id,
		Tag:     1,
		Payload: []types.Value{types.IntegerValue{Id: types.IntegerTypeId, V: 99}},
	}.ToBytes(reg, buf)

	if len(buf) != 2*stride {
		t.Fatalf("buffer length = %d, want %d", len(buf), 2*stride)
	}

	second, err := types.Decode(reg, id, buf[stride:2*stride])
	if err != nil {
		t.Fatalf("Decode second value: %v", err)
	}
	sv := second.(types.SumValue)
	if sv.Tag != 1 || sv.Payload[0].(types.IntegerValue).V != 99 {
		t.Fatalf("second value = %+v, want Some(99)", sv)
	}
}
