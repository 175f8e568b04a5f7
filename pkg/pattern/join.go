package pattern

import (
	"github.com/bobboyms/algebraicdb/pkg/errors"
)

// InnerJoin materializes the nested-loop INNER JOIN of left and right into
// a single flat byte buffer, concatenating each matching pair of rows
// (and, when on is non-nil, keeping only pairs for which it evaluates to
// true). The result's CellRefs all point into this one buffer, which lets
// the rest of the pipeline (further WHERE filters, SELECT projection)
// treat a join's output exactly like a plain table scan.
//
// LEFT/RIGHT/FULL OUTER joins are parsed but rejected here: nothing
// upstream of this ever produced rows for an unmatched side, and adding
// that without a settled NULL representation in the value model would be
// guessing at a behavior the original implementation never committed to
// either.
func InnerJoin(left, right RowIter, onCheck func(CellIter, CellIter) (bool, error)) (RowIter, error) {
	leftRows, err := materializeRows(left)
	if err != nil {
		return RowIter{}, err
	}
	rightRows, err := materializeRows(right)
	if err != nil {
		return RowIter{}, err
	}

	combinedBindings := append(append([]CellRef{}, left.bindings...), right.bindings...)
	rowSize := rowWidth(combinedBindings)

	var data []byte
	for _, lrow := range leftRows {
		for _, rrow := range rightRows {
			if onCheck != nil {
				lc := CellIter{bindings: left.bindings, reg: left.reg}
				rc := CellIter{bindings: right.bindings, reg: right.reg}
				// onCheck evaluates against the already-materialized rows,
				// not live cursors, so point each CellIter at a
				// single-row synthetic source.
				lc.bindings = rebind(left.bindings, lrow)
				rc.bindings = rebind(right.bindings, rrow)
				ok, err := onCheck(lc, rc)
				if err != nil {
					return RowIter{}, err
				}
				if !ok {
					continue
				}
			}
			data = append(data, lrow...)
			data = append(data, rrow...)
		}
	}

	rebound := rebindCombined(combinedBindings, data, rowSize)
	return RowIter{bindings: rebound, reg: left.reg}, nil
}

// RejectOuterJoin returns the typed error an OUTER join is rejected with.
func RejectOuterJoin(kind string) error {
	return &errors.UnsupportedError{Feature: kind + " join"}
}

func materializeRows(r RowIter) ([][]byte, error) {
	var rows [][]byte
	cursor := r
	for {
		ci, ok := cursor.Next()
		if !ok {
			break
		}
		row := rowBytes(ci)
		rows = append(rows, row)
	}
	return rows, nil
}

// rowBytes reconstructs one bound row's raw bytes in binding order, which
// is exactly the layout rebindCombined expects on the other end.
func rowBytes(ci CellIter) []byte {
	var out []byte
	for _, b := range ci.bindings {
		start := ci.row*b.RowSize + b.Offset
		out = append(out, b.Source[start:start+b.Size]...)
	}
	return out
}

func rowWidth(bindings []CellRef) int {
	w := 0
	for _, b := range bindings {
		w += b.Size
	}
	return w
}

// rebind points bindings at a single materialized row buffer, offset 0,
// stride = the row's own width, used to let the ON-clause evaluator read
// a candidate pair of rows before they're committed to the joined output.
func rebind(bindings []CellRef, row []byte) []CellRef {
	width := rowWidth(bindings)
	out := make([]CellRef, len(bindings))
	offset := 0
	for i, b := range bindings {
		out[i] = CellRef{Source: row, Name: b.Name, TypeId: b.TypeId, RowSize: width, Offset: offset, Size: b.Size}
		offset += b.Size
	}
	return out
}

// rebindCombined lays out bindings against the final concatenated buffer,
// whose stride is rowSize.
func rebindCombined(bindings []CellRef, data []byte, rowSize int) []CellRef {
	out := make([]CellRef, len(bindings))
	offset := 0
	for i, b := range bindings {
		out[i] = CellRef{Source: data, Name: b.Name, TypeId: b.TypeId, RowSize: rowSize, Offset: offset, Size: b.Size}
		offset += b.Size
	}
	return out
}
