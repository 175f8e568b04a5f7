package pattern

import (
	"github.com/bobboyms/algebraicdb/pkg/types"
)

// NewValueRows builds a RowIter over already-computed values rather than a
// stored table, by serializing each row into one flat buffer exactly the
// way a table scan's bindings would lay it out. This is what lets a nested
// SELECT's result feed a further WHERE/JOIN/SELECT as if it were a table:
// the rest of the pipeline never needs to know the rows didn't come from
// disk.
func NewValueRows(columns []string, typeIds []types.TypeId, rows [][]types.Value, reg *types.TypeRegistry) RowIter {
	sizes := make([]int, len(typeIds))
	rowSize := 0
	for i, id := range typeIds {
		sizes[i] = reg.SizeOf(id)
		rowSize += sizes[i]
	}

	var data []byte
	for _, row := range rows {
		for _, v := range row {
			data = v.ToBytes(reg, data)
		}
	}

	bindings := make([]CellRef, len(columns))
	offset := 0
	for i, name := range columns {
		bindings[i] = CellRef{Source: data, Name: name, TypeId: typeIds[i], RowSize: rowSize, Offset: offset, Size: sizes[i]}
		offset += sizes[i]
	}
	return RowIter{bindings: bindings, reg: reg}
}
