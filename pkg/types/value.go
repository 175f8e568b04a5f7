package types

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Value is a runtime value tagged with the TypeId it was produced as. Every
// Value can serialize to and from the fixed-width byte layout its Type
// dictates, and can be ordered against another Value of the same TypeId.
type Value interface {
	TypeId() TypeId
	// ToBytes appends this value's fixed-width encoding to dst and returns
	// the result. reg is consulted only by SumValue, to pad the payload
	// out to the variant's max width; scalar values ignore it.
	ToBytes(reg *TypeRegistry, dst []byte) []byte
	// Compare orders this value against other, which must carry the same
	// TypeId. Ordering is native-per-Kind: numeric values compare
	// numerically, not as raw little-endian bytes, which would put e.g.
	// 256 before 1.
	Compare(other Value) int
}

type CharValue struct {
	Id TypeId
	V  byte
}

func (v CharValue) TypeId() TypeId { return v.Id }
func (v CharValue) ToBytes(_ *TypeRegistry, dst []byte) []byte {
	return append(dst, v.V)
}
func (v CharValue) Compare(other Value) int {
	o := other.(CharValue)
	switch {
	case v.V < o.V:
		return -1
	case v.V > o.V:
		return 1
	default:
		return 0
	}
}

type IntegerValue struct {
	Id TypeId
	V  int32
}

func (v IntegerValue) TypeId() TypeId { return v.Id }
func (v IntegerValue) ToBytes(_ *TypeRegistry, dst []byte) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v.V))
	return append(dst, buf[:]...)
}
func (v IntegerValue) Compare(other Value) int {
	o := other.(IntegerValue)
	switch {
	case v.V < o.V:
		return -1
	case v.V > o.V:
		return 1
	default:
		return 0
	}
}

type DoubleValue struct {
	Id TypeId
	V  float64
}

func (v DoubleValue) TypeId() TypeId { return v.Id }
func (v DoubleValue) ToBytes(_ *TypeRegistry, dst []byte) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.V))
	return append(dst, buf[:]...)
}
func (v DoubleValue) Compare(other Value) int {
	o := other.(DoubleValue)
	switch {
	case v.V < o.V:
		return -1
	case v.V > o.V:
		return 1
	default:
		return 0
	}
}

type BoolValue struct {
	Id TypeId
	V  bool
}

func (v BoolValue) TypeId() TypeId { return v.Id }
func (v BoolValue) ToBytes(_ *TypeRegistry, dst []byte) []byte {
	if v.V {
		return append(dst, 1)
	}
	return append(dst, 0)
}
func (v BoolValue) Compare(other Value) int {
	o := other.(BoolValue)
	if v.V == o.V {
		return 0
	}
	if !v.V && o.V {
		return -1
	}
	return 1
}

// SumValue is a tagged union value: a variant tag plus that variant's
// payload values, in declaration order.
type SumValue struct {
	Id      TypeId
	Tag     uint32
	Payload []Value
}

func (v SumValue) TypeId() TypeId { return v.Id }

// ToBytes writes tag || payload, then zero-pads the payload out to
// reg.SizeOf(v.Id) - TagSize so every value of this sum type serializes to
// the same length regardless of which variant it holds.
func (v SumValue) ToBytes(reg *TypeRegistry, dst []byte) []byte {
	var tagBuf [TagSize]byte
	binary.LittleEndian.PutUint32(tagBuf[:], v.Tag)
	dst = append(dst, tagBuf[:]...)
	start := len(dst)
	for _, p := range v.Payload {
		dst = p.ToBytes(reg, dst)
	}
	want := reg.SizeOf(v.Id) - TagSize
	for len(dst)-start < want {
		dst = append(dst, 0)
	}
	return dst
}

func (v SumValue) Compare(other Value) int {
	o := other.(SumValue)
	if v.Tag != o.Tag {
		if v.Tag < o.Tag {
			return -1
		}
		return 1
	}
	for i := range v.Payload {
		if c := v.Payload[i].Compare(o.Payload[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Render formats a value for result output: scalars in their literal form,
// sums as "Ctor(arg1, arg2, …)" with nested sums rendered the same way.
func Render(reg *TypeRegistry, v Value) string {
	switch x := v.(type) {
	case CharValue:
		return fmt.Sprintf("%c", x.V)
	case IntegerValue:
		return fmt.Sprintf("%d", x.V)
	case DoubleValue:
		return fmt.Sprintf("%g", x.V)
	case BoolValue:
		return fmt.Sprintf("%t", x.V)
	case SumValue:
		t, _ := reg.GetById(x.Id)
		name := "?"
		if int(x.Tag) < len(t.Variants) {
			name = t.Variants[x.Tag].Name
		}
		var b []byte
		b = append(b, name...)
		b = append(b, '(')
		for i, p := range x.Payload {
			if i > 0 {
				b = append(b, ", "...)
			}
			b = append(b, Render(reg, p)...)
		}
		b = append(b, ')')
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Decode reads a Value of the given type out of src, which must be at
// least reg.SizeOf(id) bytes long.
func Decode(reg *TypeRegistry, id TypeId, src []byte) (Value, error) {
	t, ok := reg.GetById(id)
	if !ok {
		return nil, fmt.Errorf("types: Decode of unknown TypeId %d", id)
	}
	switch t.Kind {
	case KindChar:
		return CharValue{Id: id, V: src[0]}, nil
	case KindBool:
		return BoolValue{Id: id, V: src[0] != 0}, nil
	case KindInteger:
		return IntegerValue{Id: id, V: int32(binary.LittleEndian.Uint32(src[:4]))}, nil
	case KindDouble:
		return DoubleValue{Id: id, V: math.Float64frombits(binary.LittleEndian.Uint64(src[:8]))}, nil
	case KindSum:
		tag := binary.LittleEndian.Uint32(src[:TagSize])
		if int(tag) >= len(t.Variants) {
			return nil, fmt.Errorf("types: Decode found out-of-range variant tag %d", tag)
		}
		variant := t.Variants[tag]
		payload := make([]Value, len(variant.Payload))
		offset := TagSize
		for i, pid := range variant.Payload {
			psize := reg.SizeOf(pid)
			pv, err := Decode(reg, pid, src[offset:offset+psize])
			if err != nil {
				return nil, err
			}
			payload[i] = pv
			offset += psize
		}
		return SumValue{Id: id, Tag: tag, Payload: payload}, nil
	default:
		return nil, fmt.Errorf("types: Decode called on malformed Type %#v", t)
	}
}
