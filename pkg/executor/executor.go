// Package executor interprets an already-typechecked statement against an
// already-acquired set of resources. It never re-derives what tables or
// locks a statement needs — that's pkg/resource and pkg/typecheck's job —
// it only walks the AST and does the reading, writing, or row production
// the statement asks for.
package executor

import (
	"fmt"

	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/errors"
	"github.com/bobboyms/algebraicdb/pkg/pattern"
	"github.com/bobboyms/algebraicdb/pkg/resource"
	"github.com/bobboyms/algebraicdb/pkg/storage"
	"github.com/bobboyms/algebraicdb/pkg/types"
)

// Result is what running one statement produces: either a set of named
// columns and rendered rows (SELECT), or a one-line status message
// (everything else).
type Result struct {
	Columns []string
	Rows    [][]string
	Message string
}

// Execute runs stmt against guard's already-held locks. tables is needed
// only by CREATE TABLE and DROP, which add or remove a directory entry
// rather than read or write an already-acquired table's rows.
func Execute(stmt ast.Stmt, guard *resource.Guard[storage.Table], tables *storage.TableSet) (Result, error) {
	switch {
	case stmt.Select != nil:
		return executeSelect(stmt.Select, guard)
	case stmt.Insert != nil:
		return executeInsert(stmt.Insert, guard)
	case stmt.Update != nil:
		return executeUpdate(stmt.Update, guard)
	case stmt.Delete != nil:
		return executeDelete(stmt.Delete, guard)
	case stmt.CreateTable != nil:
		return executeCreateTable(stmt.CreateTable, guard, tables)
	case stmt.CreateType != nil:
		return executeCreateType(stmt.CreateType, guard)
	case stmt.Drop != nil:
		return executeDrop(stmt.Drop, tables)
	default:
		return Result{}, fmt.Errorf("executor: statement has no recognized kind")
	}
}

var noBindings = func(string) (types.Value, bool, error) { return nil, false, nil }

// ---- SELECT ----

func executeSelect(sel *ast.Select, guard *resource.Guard[storage.Table]) (Result, error) {
	reg := guard.TypeMap.Get()
	columns, _, rows, err := evalSelect(sel, guard, reg)
	if err != nil {
		return Result{}, err
	}
	rendered := make([][]string, len(rows))
	for i, row := range rows {
		r := make([]string, len(row))
		for j, v := range row {
			r[j] = types.Render(reg, v)
		}
		rendered[i] = r
	}
	return Result{Columns: columns, Rows: rendered}, nil
}

// evalSelect runs sel's full pipeline (FROM, WHERE, projection) and
// returns typed values rather than rendered strings, so a nested SELECT
// can feed an outer query the same way a table would.
func evalSelect(sel *ast.Select, guard *resource.Guard[storage.Table], reg *types.TypeRegistry) ([]string, []types.TypeId, [][]types.Value, error) {
	if sel.From == nil {
		columns := make([]string, len(sel.Items))
		typeIds := make([]types.TypeId, len(sel.Items))
		row := make([]types.Value, len(sel.Items))
		for i, item := range sel.Items {
			v, err := evalValue(item, nil, noBindings, reg)
			if err != nil {
				return nil, nil, nil, err
			}
			if item.IsIdent() {
				columns[i] = item.Ident
			} else {
				columns[i] = fmt.Sprintf("?column%d", i+1)
			}
			typeIds[i] = v.TypeId()
			row[i] = v
		}
		return columns, typeIds, [][]types.Value{row}, nil
	}

	iter, err := buildFromIter(sel.From, guard, reg)
	if err != nil {
		return nil, nil, nil, err
	}

	var bareExprs []ast.Expr
	if sel.Where != nil {
		if err := iter.ApplyPattern(sel.Where.Items, reg); err != nil {
			return nil, nil, nil, err
		}
		for _, item := range sel.Where.Items {
			if item.Pattern == nil {
				bareExprs = append(bareExprs, item.Expr)
			}
		}
	}

	columns := make([]string, len(sel.Items))
	typeIds := make([]types.TypeId, len(sel.Items))
	for i, item := range sel.Items {
		if !item.IsIdent() {
			return nil, nil, nil, &errors.UnsupportedError{Feature: "selecting non-identifier expressions"}
		}
		tid, ok := iter.ColumnType(item.Ident)
		if !ok {
			return nil, nil, nil, &errors.UndefinedError{Kind: "column", Name: item.Ident}
		}
		columns[i] = item.Ident
		typeIds[i] = tid
	}

	var rows [][]types.Value
	for {
		ci, ok := iter.Next()
		if !ok {
			break
		}
		passed := true
		for _, be := range bareExprs {
			v, err := evalBool(be, ci.Lookup, reg)
			if err != nil {
				return nil, nil, nil, err
			}
			if !v {
				passed = false
				break
			}
		}
		if !passed {
			continue
		}
		row := make([]types.Value, len(sel.Items))
		for i, item := range sel.Items {
			v, ok, err := ci.Lookup(item.Ident)
			if err != nil {
				return nil, nil, nil, err
			}
			if !ok {
				return nil, nil, nil, &errors.UndefinedError{Kind: "column", Name: item.Ident}
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return columns, typeIds, rows, nil
}

func buildFromIter(from *ast.SelectFrom, guard *resource.Guard[storage.Table], reg *types.TypeRegistry) (pattern.RowIter, error) {
	switch {
	case from.Select != nil:
		columns, typeIds, rows, err := evalSelect(from.Select, guard, reg)
		if err != nil {
			return pattern.RowIter{}, err
		}
		return pattern.NewValueRows(columns, typeIds, rows, reg), nil

	case from.Join != nil:
		left, err := buildFromIter(&from.Join.TableA, guard, reg)
		if err != nil {
			return pattern.RowIter{}, err
		}
		right, err := buildFromIter(&from.Join.TableB, guard, reg)
		if err != nil {
			return pattern.RowIter{}, err
		}
		if from.Join.JoinType != ast.JoinInner {
			return pattern.RowIter{}, pattern.RejectOuterJoin(from.Join.JoinType.String())
		}
		var onCheck func(pattern.CellIter, pattern.CellIter) (bool, error)
		if from.Join.On != nil {
			onExpr := *from.Join.On
			onCheck = func(lc, rc pattern.CellIter) (bool, error) {
				lookup := func(name string) (types.Value, bool, error) {
					if v, ok, err := lc.Lookup(name); err != nil || ok {
						return v, ok, err
					}
					return rc.Lookup(name)
				}
				return evalBool(onExpr, lookup, reg)
			}
		}
		return pattern.InnerJoin(left, right, onCheck)

	default:
		t := guard.Table(from.Table).Get()
		return pattern.NewTableScan(t, reg), nil
	}
}

// ---- INSERT ----

func executeInsert(insert *ast.Insert, guard *resource.Guard[storage.Table]) (Result, error) {
	table := guard.Table(insert.Table).GetMut()
	reg := guard.TypeMap.Get()
	schema := table.Schema

	var valueRows [][]types.Value

	if insert.Select != nil {
		_, _, rows, err := evalSelect(insert.Select, guard, reg)
		if err != nil {
			return Result{}, err
		}
		for _, row := range rows {
			full := make([]types.Value, len(schema.Columns))
			for i, col := range insert.Columns {
				idx, ok := schema.IndexOf(col)
				if !ok {
					return Result{}, &errors.UndefinedError{Kind: "column", Name: col}
				}
				full[idx] = row[i]
			}
			valueRows = append(valueRows, full)
		}
	} else {
		for _, exprRow := range insert.Values {
			full := make([]types.Value, len(schema.Columns))
			for i, col := range insert.Columns {
				idx, ok := schema.IndexOf(col)
				if !ok {
					return Result{}, &errors.UndefinedError{Kind: "column", Name: col}
				}
				expected := schema.Columns[idx].TypeId
				v, err := evalValue(exprRow[i], &expected, noBindings, reg)
				if err != nil {
					return Result{}, err
				}
				full[idx] = v
			}
			valueRows = append(valueRows, full)
		}
	}

	for _, row := range valueRows {
		var buf []byte
		for _, v := range row {
			buf = v.ToBytes(reg, buf)
		}
		table.PushRow(buf)
	}

	return Result{Message: fmt.Sprintf("%d row(s) inserted\n", len(valueRows))}, nil
}

// ---- UPDATE ----

func executeUpdate(update *ast.Update, guard *resource.Guard[storage.Table]) (Result, error) {
	table := guard.Table(update.Table).GetMut()
	reg := guard.TypeMap.Get()
	schema := table.Schema
	rowSize := schema.RowSize()
	n := table.RowCount()

	var patternItems []ast.WhereItem
	var bareExprs []ast.Expr
	if update.Where != nil {
		for _, item := range update.Where.Items {
			if item.Pattern != nil {
				patternItems = append(patternItems, item)
			} else {
				bareExprs = append(bareExprs, item.Expr)
			}
		}
	}

	updated := 0
	newData := make([]byte, 0, len(table.Data))
	for i := 0; i < n; i++ {
		row := table.Data[i*rowSize : (i+1)*rowSize]
		match, err := rowMatchesWhere(row, schema, reg, patternItems, bareExprs)
		if err != nil {
			return Result{}, err
		}
		if !match {
			newData = append(newData, row...)
			continue
		}
		updated++

		values, err := decodeRow(row, schema, reg)
		if err != nil {
			return Result{}, err
		}
		lookup := func(name string) (types.Value, bool, error) {
			idx, ok := schema.IndexOf(name)
			if !ok {
				return nil, false, nil
			}
			return values[idx], true, nil
		}
		for _, assignment := range update.Set {
			idx, ok := schema.IndexOf(assignment.Column)
			if !ok {
				return Result{}, &errors.UndefinedError{Kind: "column", Name: assignment.Column}
			}
			expected := schema.Columns[idx].TypeId
			v, err := evalValue(assignment.Expr, &expected, lookup, reg)
			if err != nil {
				return Result{}, err
			}
			values[idx] = v
		}

		var buf []byte
		for _, v := range values {
			buf = v.ToBytes(reg, buf)
		}
		newData = append(newData, buf...)
	}
	table.Data = newData

	return Result{Message: fmt.Sprintf("%d row(s) updated\n", updated)}, nil
}

// ---- DELETE ----

func executeDelete(del *ast.Delete, guard *resource.Guard[storage.Table]) (Result, error) {
	table := guard.Table(del.Table).GetMut()
	reg := guard.TypeMap.Get()
	schema := table.Schema

	var patternItems []ast.WhereItem
	var bareExprs []ast.Expr
	if del.Where != nil {
		for _, item := range del.Where.Items {
			if item.Pattern != nil {
				patternItems = append(patternItems, item)
			} else {
				bareExprs = append(bareExprs, item.Expr)
			}
		}
	}

	var matchErr error
	removed := table.DeleteWhere(func(row []byte) bool {
		if matchErr != nil {
			return true
		}
		matches, err := rowMatchesWhere(row, schema, reg, patternItems, bareExprs)
		if err != nil {
			matchErr = err
			return true
		}
		return !matches
	})
	if matchErr != nil {
		return Result{}, matchErr
	}

	return Result{Message: fmt.Sprintf("%d row(s) deleted\n", removed)}, nil
}

// rowMatchesWhere evaluates a raw row against the pattern and bare boolean
// items of a WHERE clause, used by UPDATE and DELETE, which mutate a
// table's rows directly rather than scanning it through pkg/pattern.
func rowMatchesWhere(row []byte, schema storage.Schema, reg *types.TypeRegistry, patternItems []ast.WhereItem, bareExprs []ast.Expr) (bool, error) {
	bound := make(map[string]types.Value)

	for _, item := range patternItems {
		idx, ok := schema.IndexOf(item.PatternName)
		if !ok {
			return false, &errors.UndefinedError{Kind: "column", Name: item.PatternName}
		}
		col := schema.Columns[idx]
		size := reg.SizeOf(col.TypeId)
		off := schema.Offset(idx)
		v, err := types.Decode(reg, col.TypeId, row[off:off+size])
		if err != nil {
			return false, err
		}
		matched, err := matchPattern(*item.Pattern, v, reg, bound)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}

	if len(bareExprs) > 0 {
		lookup := func(name string) (types.Value, bool, error) {
			if v, ok := bound[name]; ok {
				return v, true, nil
			}
			idx, ok := schema.IndexOf(name)
			if !ok {
				return nil, false, nil
			}
			col := schema.Columns[idx]
			size := reg.SizeOf(col.TypeId)
			off := schema.Offset(idx)
			v, err := types.Decode(reg, col.TypeId, row[off:off+size])
			return v, true, err
		}
		for _, be := range bareExprs {
			v, err := evalBool(be, lookup, reg)
			if err != nil {
				return false, err
			}
			if !v {
				return false, nil
			}
		}
	}
	return true, nil
}

// matchPattern checks an already-decoded Value against a WHERE pattern,
// the raw-row analogue of the byte-level matching pkg/pattern does for
// SELECT's table scans. Any binding sub-pattern it matches is recorded
// into bound, so a later bare boolean item in the same WHERE clause
// ("x: Some(n), n > 5") can refer to it.
func matchPattern(p ast.Pattern, v types.Value, reg *types.TypeRegistry, bound map[string]types.Value) (bool, error) {
	switch {
	case p.IntLit != nil:
		iv, ok := v.(types.IntegerValue)
		return ok && iv.V == *p.IntLit, nil
	case p.DoubleLit != nil:
		dv, ok := v.(types.DoubleValue)
		return ok && dv.V == *p.DoubleLit, nil
	case p.BoolLit != nil:
		bv, ok := v.(types.BoolValue)
		return ok && bv.V == *p.BoolLit, nil
	case p.CharLit != nil:
		cv, ok := v.(types.CharValue)
		return ok && cv.V == *p.CharLit, nil
	case p.Ignore:
		return true, nil
	case p.Name != "":
		sv, ok := v.(types.SumValue)
		if !ok {
			return false, &errors.InvalidTypeError{Expected: "Sum", Actual: fmt.Sprintf("%T", v)}
		}
		t, ok := reg.GetById(sv.Id)
		if !ok {
			return false, fmt.Errorf("executor: unknown type id %d", sv.Id)
		}
		idx, ok := t.VariantIndex(p.Name)
		if !ok {
			return false, &errors.UndefinedError{Kind: "constructor", Name: p.Name}
		}
		if uint32(idx) != sv.Tag {
			return false, nil
		}
		variant := t.Variants[idx]
		if len(variant.Payload) != len(p.SubPatterns) {
			return false, &errors.InvalidCountError{Item: p.Name, Expected: len(variant.Payload), Actual: len(p.SubPatterns)}
		}
		for i, sub := range p.SubPatterns {
			matched, err := matchPattern(sub, sv.Payload[i], reg, bound)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil
			}
		}
		return true, nil
	case p.Binding != "":
		bound[p.Binding] = v
		return true, nil
	default:
		return true, nil
	}
}

func decodeRow(row []byte, schema storage.Schema, reg *types.TypeRegistry) ([]types.Value, error) {
	values := make([]types.Value, len(schema.Columns))
	for i, col := range schema.Columns {
		off := schema.Offset(i)
		size := reg.SizeOf(col.TypeId)
		v, err := types.Decode(reg, col.TypeId, row[off:off+size])
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// ---- CREATE TABLE / CREATE TYPE / DROP ----

func executeCreateTable(create *ast.CreateTable, guard *resource.Guard[storage.Table], tables *storage.TableSet) (Result, error) {
	reg := guard.TypeMap.Get()
	columns := make([]storage.Column, len(create.Columns))
	for i, c := range create.Columns {
		id, ok := reg.GetId(c.TypeName)
		if !ok {
			return Result{}, &errors.UndefinedError{Kind: "type", Name: c.TypeName}
		}
		columns[i] = storage.Column{Name: c.Name, TypeId: id}
	}
	schema := storage.NewSchema(columns, reg)
	if err := tables.Create(create.Table, schema); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("table %q created\n", create.Table)}, nil
}

func executeCreateType(create *ast.CreateType, guard *resource.Guard[storage.Table]) (Result, error) {
	reg := guard.TypeMap.GetMut()
	variants := make([]types.Variant, len(create.Variants))
	for i, v := range create.Variants {
		payload := make([]types.TypeId, len(v.Payload))
		for j, name := range v.Payload {
			id, ok := reg.GetId(name)
			if !ok {
				return Result{}, &errors.UndefinedError{Kind: "type", Name: name}
			}
			payload[j] = id
		}
		variants[i] = types.Variant{Name: v.Name, Payload: payload}
	}
	if _, err := reg.Insert(create.Name, types.Sum(variants)); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("type %q created\n", create.Name)}, nil
}

func executeDrop(drop *ast.Drop, tables *storage.TableSet) (Result, error) {
	if err := tables.Drop(drop.Table); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("table %q dropped\n", drop.Table)}, nil
}
