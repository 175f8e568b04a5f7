package storage

import (
	"github.com/bobboyms/algebraicdb/pkg/types"
)

// Column names one fixed-width slot in a row.
type Column struct {
	Name   string
	TypeId types.TypeId
}

// Schema is a table's ordered column list, plus the derived byte offset
// of each column and the total row width. Both are computed once, at
// CreateTable time, since neither ever changes afterwards: this engine has
// no ALTER TABLE.
type Schema struct {
	Columns []Column
	offsets []int
	rowSize int
}

// NewSchema computes column offsets and total row size from an ordered
// column list.
func NewSchema(columns []Column, reg *types.TypeRegistry) Schema {
	offsets := make([]int, len(columns))
	size := 0
	for i, c := range columns {
		offsets[i] = size
		size += reg.SizeOf(c.TypeId)
	}
	return Schema{Columns: columns, offsets: offsets, rowSize: size}
}

func (s Schema) RowSize() int { return s.rowSize }

// Offset returns the byte offset of the i-th column within a row.
func (s Schema) Offset(i int) int { return s.offsets[i] }

// IndexOf finds a column by name.
func (s Schema) IndexOf(name string) (int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}
