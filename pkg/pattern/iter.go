package pattern

import (
	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/errors"
	"github.com/bobboyms/algebraicdb/pkg/storage"
	"github.com/bobboyms/algebraicdb/pkg/types"
)

// CellRef names one bound column: which byte slice it reads from, the
// stride between rows in that slice, and this column's offset and size
// within a row. CellRefs may point into different source slices; a join
// (see InnerJoin) instead materializes its combined rows into one buffer
// and iterates that.
type CellRef struct {
	Source []byte
	Name   string
	TypeId types.TypeId
	RowSize int
	Offset  int
	Size    int
}

func cellRefsFromSchema(data []byte, schema storage.Schema, reg *types.TypeRegistry) []CellRef {
	rowSize := schema.RowSize()
	refs := make([]CellRef, len(schema.Columns))
	for i, col := range schema.Columns {
		refs[i] = CellRef{
			Source:  data,
			Name:    col.Name,
			TypeId:  col.TypeId,
			RowSize: rowSize,
			Offset:  schema.Offset(i),
			Size:    reg.SizeOf(col.TypeId),
		}
	}
	return refs
}

// rowFilter is a CompiledPattern's byteMatch pinned to a specific source
// slice and row stride, ready to be checked against any row index.
type rowFilter struct {
	Source  []byte
	RowSize int
	Offset  int
	Want    []byte
}

func (f rowFilter) check(row int) bool {
	start := row*f.RowSize + f.Offset
	return bytesEqual(f.Source[start:start+len(f.Want)], f.Want)
}

// RowIter lazily scans one or more joined sources row by row, applying
// accumulated filters and yielding only rows that satisfy all of them. It
// is cheap to copy: bindings and filters are shared slices plus a cursor,
// mirroring how the system this mirrors kept RowIter Clone-able without
// copying the underlying table bytes.
type RowIter struct {
	bindings []CellRef
	filters  []rowFilter
	reg      *types.TypeRegistry
	row      int
	done     bool
}

// NewTableScan builds a RowIter over a single table's full column set.
func NewTableScan(t *storage.Table, reg *types.TypeRegistry) RowIter {
	return RowIter{
		bindings: cellRefsFromSchema(t.Data, t.Schema, reg),
		reg:      reg,
	}
}

// ColumnType returns the TypeId a bound name currently resolves to, without
// needing an actual row — used to work out a projected column's type for a
// nested SELECT used as another query's FROM source, where no row may ever
// be produced.
func (r RowIter) ColumnType(name string) (types.TypeId, bool) {
	for _, b := range r.bindings {
		if b.Name == name {
			return b.TypeId, true
		}
	}
	return 0, false
}

// Clone returns an independent cursor sharing this iterator's bindings and
// filters, used when a Rows value needs to be scanned more than once (the
// right-hand side of a nested-loop join).
func (r RowIter) Clone() RowIter {
	return r
}

// ApplyPattern folds the "column: pattern" items of a WHERE clause into
// this iterator's bindings and filters. Each item's column name is
// resolved against the CellRefs already bound (by a prior scan, select, or
// join), so patterns can reference either side of a join by whichever
// name that side's columns are currently known under. Bare boolean Expr
// items are left untouched for the executor's expression evaluator.
func (r *RowIter) ApplyPattern(items []ast.WhereItem, reg *types.TypeRegistry) error {
	var newBindings []CellRef
	var newFilters []rowFilter

	for _, item := range items {
		if item.Pattern == nil {
			continue
		}
		for _, cr := range r.bindings {
			if cr.Name != item.PatternName {
				continue
			}
			if err := buildIterPattern(*item.Pattern, cr.Offset, reg, cr.TypeId, cr.Source, cr.RowSize, &newBindings, &newFilters); err != nil {
				return err
			}
			break
		}
	}

	if len(newBindings) > 0 {
		r.bindings = append(newBindings, r.bindings...)
	}
	if len(newFilters) > 0 {
		r.filters = append(newFilters, r.filters...)
	}
	return nil
}

func buildIterPattern(p ast.Pattern, byteIndex int, reg *types.TypeRegistry, typeId types.TypeId, source []byte, rowSize int, bindings *[]CellRef, filters *[]rowFilter) error {
	switch {
	case p.IntLit != nil:
		v := types.IntegerValue{Id: types.IntegerTypeId, V: *p.IntLit}
		*filters = append(*filters, rowFilter{Source: source, RowSize: rowSize, Offset: byteIndex, Want: v.ToBytes(reg, nil)})
		return nil
	case p.DoubleLit != nil:
		v := types.DoubleValue{Id: types.DoubleTypeId, V: *p.DoubleLit}
		*filters = append(*filters, rowFilter{Source: source, RowSize: rowSize, Offset: byteIndex, Want: v.ToBytes(reg, nil)})
		return nil
	case p.BoolLit != nil:
		v := types.BoolValue{Id: types.BoolTypeId, V: *p.BoolLit}
		*filters = append(*filters, rowFilter{Source: source, RowSize: rowSize, Offset: byteIndex, Want: v.ToBytes(reg, nil)})
		return nil
	case p.CharLit != nil:
		v := types.CharValue{Id: types.CharTypeId, V: *p.CharLit}
		*filters = append(*filters, rowFilter{Source: source, RowSize: rowSize, Offset: byteIndex, Want: v.ToBytes(reg, nil)})
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
		*filters = append(*filters, rowFilter{Source: source, RowSize: rowSize, Offset: byteIndex, Want: append([]byte{}, tagBuf[:]...)})

		sub := byteIndex + types.TagSize
		for i, payloadType := range variant.Payload {
			if err := buildIterPattern(p.SubPatterns[i], sub, reg, payloadType, source, rowSize, bindings, filters); err != nil {
				return err
			}
			sub += reg.SizeOf(payloadType)
		}
		return nil
	default:
		*bindings = append(*bindings, CellRef{
			Source: source, Name: p.Binding, TypeId: typeId, RowSize: rowSize,
			Offset: byteIndex, Size: reg.SizeOf(typeId),
		})
		return nil
	}
}

func rowOutOfBounds(row int, bindings []CellRef) bool {
	for _, b := range bindings {
		if (row+1)*b.RowSize > len(b.Source) {
			return true
		}
	}
	return false
}

// Next advances to the next row satisfying every filter, returning its
// bound cells, or ok=false once the shortest source is exhausted.
func (r *RowIter) Next() (CellIter, bool) {
	if r.done {
		return CellIter{}, false
	}
	for {
		if rowOutOfBounds(r.row, r.bindings) {
			r.done = true
			return CellIter{}, false
		}
		matched := true
		for _, f := range r.filters {
			if !f.check(r.row) {
				matched = false
				break
			}
		}
		if matched {
			ci := CellIter{bindings: r.bindings, reg: r.reg, row: r.row}
			r.row++
			return ci, true
		}
		r.row++
	}
}

// Select narrows bindings down to items, which must all be bare
// identifiers referring to currently bound names — the engine this
// mirrors never implemented projecting computed expressions, and neither
// does this one: it rejects them with a typed, user-facing error instead
// of silently guessing a behavior.
func (r *RowIter) Select(items []SelectItem) error {
	bindings := make([]CellRef, 0, len(items))
	for _, item := range items {
		if !item.IsIdent {
			return &errors.UnsupportedError{Feature: "selecting non-identifier expressions"}
		}
		found := false
		for _, b := range r.bindings {
			if b.Name == item.Name {
				bindings = append(bindings, b)
				found = true
				break
			}
		}
		if !found {
			return &errors.UndefinedError{Kind: "column", Name: item.Name}
		}
	}
	r.bindings = bindings
	return nil
}

// SelectItem is the minimal shape Select needs: whether this projection
// item is a bare identifier, and if so its name.
type SelectItem struct {
	IsIdent bool
	Name    string
}

// CellIter walks the bound cells of one matched row.
type CellIter struct {
	bindings []CellRef
	reg      *types.TypeRegistry
	row      int
	cell     int
}

// Lookup decodes the named bound cell of this row, used by the expression
// evaluator to resolve an Ident against whichever row is currently bound —
// the Go analogue of threading a (name, Cell) binding iterator through
// expression evaluation.
func (c CellIter) Lookup(name string) (types.Value, bool, error) {
	for _, b := range c.bindings {
		if b.Name != name {
			continue
		}
		start := c.row*b.RowSize + b.Offset
		v, err := types.Decode(c.reg, b.TypeId, b.Source[start:start+b.Size])
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	return nil, false, nil
}

// Names returns the bound column names of this row, in bound order, used
// to render a SELECT's result rows.
func (c CellIter) Names() []string {
	names := make([]string, len(c.bindings))
	for i, b := range c.bindings {
		names[i] = b.Name
	}
	return names
}

// Next returns the next (name, Value) pair of this row, or ok=false once
// every bound cell has been read.
func (c *CellIter) Next() (string, types.Value, bool, error) {
	if c.cell >= len(c.bindings) {
		return "", nil, false, nil
	}
	b := c.bindings[c.cell]
	c.cell++
	start := c.row*b.RowSize + b.Offset
	v, err := types.Decode(c.reg, b.TypeId, b.Source[start:start+b.Size])
	if err != nil {
		return "", nil, false, err
	}
	return b.Name, v, true, nil
}
