// Package pattern compiles WHERE-clause patterns into byte-level match and
// binding lists, and implements the lazy row iterator that scans a table
// applying those patterns column by column without ever deserializing a
// whole row.
package pattern

import (
	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/errors"
	"github.com/bobboyms/algebraicdb/pkg/storage"
	"github.com/bobboyms/algebraicdb/pkg/types"
)

// byteMatch requires the row's bytes at Offset to equal Want.
type byteMatch struct {
	Offset int
	Want   []byte
}

// binding names the type and byte range a matched value should be exposed
// under.
type binding struct {
	Offset int
	TypeId types.TypeId
	Name   string
}

// CompiledPattern is a WHERE clause lowered against one row's schema: a
// set of byte-equality checks plus a set of named bindings, both expressed
// purely in terms of byte offsets into a serialized row.
type CompiledPattern struct {
	Matches  []byteMatch
	Bindings []binding
}

// Compile lowers every "column: pattern" item of a WHERE clause against
// schema. Bare boolean Expr items are left for the executor's expression
// evaluator and ignored here, matching how the system this mirrors only
// ever pattern-compiled the match items and evaluated Expr items
// separately.
func Compile(items []ast.WhereItem, schema storage.Schema, reg *types.TypeRegistry) (CompiledPattern, error) {
	var cp CompiledPattern
	for _, item := range items {
		if item.Pattern == nil {
			continue
		}
		idx, ok := schema.IndexOf(item.PatternName)
		if !ok {
			return CompiledPattern{}, &errors.UndefinedError{Kind: "column", Name: item.PatternName, Span: item.Pattern.Span}
		}
		col := schema.Columns[idx]
		offset := schema.Offset(idx)
		if err := build(*item.Pattern, offset, col.TypeId, reg, &cp); err != nil {
			return CompiledPattern{}, err
		}
	}
	return cp, nil
}

func build(p ast.Pattern, offset int, typeId types.TypeId, reg *types.TypeRegistry, cp *CompiledPattern) error {
	switch {
	case p.IntLit != nil:
		v := types.IntegerValue{Id: types.IntegerTypeId, V: *p.IntLit}
		cp.Matches = append(cp.Matches, byteMatch{Offset: offset, Want: v.ToBytes(reg, nil)})
		return nil
	case p.DoubleLit != nil:
		v := types.DoubleValue{Id: types.DoubleTypeId, V: *p.DoubleLit}
		cp.Matches = append(cp.Matches, byteMatch{Offset: offset, Want: v.ToBytes(reg, nil)})
		return nil
	case p.BoolLit != nil:
		v := types.BoolValue{Id: types.BoolTypeId, V: *p.BoolLit}
		cp.Matches = append(cp.Matches, byteMatch{Offset: offset, Want: v.ToBytes(reg, nil)})
		return nil
	case p.CharLit != nil:
		v := types.CharValue{Id: types.CharTypeId, V: *p.CharLit}
		cp.Matches = append(cp.Matches, byteMatch{Offset: offset, Want: v.ToBytes(reg, nil)})
		return nil
	case p.Ignore:
		return nil
	case p.Name != "":
		t, ok := reg.GetById(typeId)
		if !ok || t.Kind != types.KindSum {
			return &errors.InvalidTypeError{Expected: "Sum", Actual: t.Kind.String(), Span: p.Span}
		}
		tag, ok := t.VariantIndex(p.Name)
		if !ok {
			return &errors.UndefinedError{Kind: "constructor", Name: p.Name, Span: p.Span}
		}
		variant := t.Variants[tag]
		if len(variant.Payload) != len(p.SubPatterns) {
			return &errors.InvalidCountError{Item: p.Name, Expected: len(variant.Payload), Actual: len(p.SubPatterns), Span: p.Span}
		}

		var tagBuf [types.TagSize]byte
		putLE32(tagBuf[:], uint32(tag))
		cp.Matches = append(cp.Matches, byteMatch{Offset: offset, Want: tagBuf[:]})

		sub := offset + types.TagSize
		for i, payloadType := range variant.Payload {
			if err := build(p.SubPatterns[i], sub, payloadType, reg, cp); err != nil {
				return err
			}
			sub += reg.SizeOf(payloadType)
		}
		return nil
	default:
		// Binding: bare identifier pattern with no literal, no '_', no
		// constructor name.
		cp.Bindings = append(cp.Bindings, binding{Offset: offset, TypeId: typeId, Name: p.Binding})
		return nil
	}
}

func putLE32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

// MatchesRow reports whether row satisfies every byte-equality check.
func (cp CompiledPattern) MatchesRow(row []byte) bool {
	for _, m := range cp.Matches {
		if !bytesEqual(row[m.Offset:m.Offset+len(m.Want)], m.Want) {
			return false
		}
	}
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
