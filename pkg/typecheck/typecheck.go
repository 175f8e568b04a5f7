// Package typecheck verifies a statement's types line up before the
// executor ever touches table data: every identifier resolves, every
// comparison compares like types, every inserted or assigned value matches
// its column's type, and every pattern matches the shape of the type it's
// matched against.
package typecheck

import (
	"fmt"

	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/errors"
	"github.com/bobboyms/algebraicdb/pkg/resource"
	"github.com/bobboyms/algebraicdb/pkg/storage"
	"github.com/bobboyms/algebraicdb/pkg/types"
)

// scope maps a name to every type it's been bound to in this scope. More
// than one entry means the name is ambiguous, e.g. two joined tables with a
// column of the same name that was never disambiguated.
type scope map[string][]types.TypeId

// Context carries the locked resources a statement typechecks against plus
// a stack of local scopes built up while walking FROM/JOIN/pattern-binding
// constructs.
type Context struct {
	guard  *resource.Guard[storage.Table]
	locals []scope
}

// NewContext starts a fresh context over an already-acquired resource guard,
// with one empty top-level scope.
func NewContext(guard *resource.Guard[storage.Table]) *Context {
	return &Context{guard: guard, locals: []scope{make(scope)}}
}

func (c *Context) searchLocals(ident string) (types.TypeId, error) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if ids, ok := c.locals[i][ident]; ok {
			if len(ids) != 1 {
				return 0, &errors.AmbiguousReferenceError{Name: ident}
			}
			return ids[0], nil
		}
	}
	return 0, &errors.UndefinedError{Kind: "identifier", Name: ident}
}

func (c *Context) pushScope() {
	c.locals = append(c.locals, make(scope))
}

func (c *Context) popScope() scope {
	n := len(c.locals)
	top := c.locals[n-1]
	c.locals = c.locals[:n-1]
	return top
}

// mergeScope folds another scope's bindings into the current top scope,
// used after checking both sides of a JOIN so names from either side are
// visible (and conflicting names become ambiguous) to the rest of the
// query, the same way SQL joins expose both tables' columns as siblings
// rather than one nested inside the other.
func (c *Context) mergeScope(other scope) {
	top := c.locals[len(c.locals)-1]
	for name, ids := range other {
		top[name] = append(top[name], ids...)
	}
}

func (c *Context) pushLocal(name string, id types.TypeId) {
	top := c.locals[len(c.locals)-1]
	top[name] = append(top[name], id)
}

func (c *Context) typeRegistry() *types.TypeRegistry {
	return c.guard.TypeMap.Get()
}

// duckType is either a resolved concrete type, or an unresolved sum
// constructor application whose type is only known once it's checked
// against an expected column or comparison-partner type — mirroring how a
// bare "Some(1)" literal can't be assigned a TypeId until its context picks
// which sum type it's constructing.
type duckType struct {
	concrete *types.TypeId
	ctor     *ast.SumCtor
}

func concrete(id types.TypeId) duckType { return duckType{concrete: &id} }

// Check typechecks one statement against its already-acquired resources.
func Check(stmt ast.Stmt, guard *resource.Guard[storage.Table]) error {
	ctx := NewContext(guard)

	switch {
	case stmt.Select != nil:
		_, err := checkSelect(stmt.Select, ctx)
		return err
	case stmt.Update != nil:
		return checkUpdate(stmt.Update, ctx)
	case stmt.Delete != nil:
		return checkDelete(stmt.Delete, ctx)
	case stmt.Drop != nil:
		return nil
	case stmt.Insert != nil:
		return checkInsert(stmt.Insert, ctx)
	case stmt.CreateTable != nil:
		return checkCreateTable(stmt.CreateTable, ctx)
	case stmt.CreateType != nil:
		return checkCreateType(stmt.CreateType, ctx)
	default:
		return fmt.Errorf("typecheck: statement has no kind set")
	}
}

func importTableColumns(name string, ctx *Context) error {
	table := ctx.guard.Table(name).Get()
	for _, col := range table.Schema.Columns {
		ctx.pushLocal(col.Name, col.TypeId)
	}
	return nil
}

func checkSelect(sel *ast.Select, ctx *Context) ([]duckType, error) {
	if sel.From != nil {
		if err := checkSelectFrom(sel.From, ctx); err != nil {
			return nil, err
		}
	}
	if sel.Where != nil {
		if err := checkWhereClause(sel.Where, ctx); err != nil {
			return nil, err
		}
	}

	out := make([]duckType, len(sel.Items))
	for i, item := range sel.Items {
		dt, err := checkExpr(item, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = dt
	}
	return out, nil
}

func checkSelectFrom(from *ast.SelectFrom, ctx *Context) error {
	switch {
	case from.Select != nil:
		_, err := checkSelect(from.Select, ctx)
		return err
	case from.Join != nil:
		ctx.pushScope()
		if err := checkSelectFrom(&from.Join.TableA, ctx); err != nil {
			return err
		}
		left := ctx.popScope()

		ctx.pushScope()
		if err := checkSelectFrom(&from.Join.TableB, ctx); err != nil {
			return err
		}
		ctx.mergeScope(left)

		if from.Join.On != nil {
			dt, err := checkExpr(*from.Join.On, ctx)
			if err != nil {
				return err
			}
			if _, err := assertTypeAs(dt, types.BoolTypeId, ctx); err != nil {
				return err
			}
		}
		return nil
	default:
		return importTableColumns(from.Table, ctx)
	}
}

func checkWhereClause(clause *ast.WhereClause, ctx *Context) error {
	for _, item := range clause.Items {
		if item.Pattern != nil {
			typeId, err := ctx.searchLocals(item.PatternName)
			if err != nil {
				return err
			}
			if err := checkPattern(*item.Pattern, typeId, ctx); err != nil {
				return err
			}
			continue
		}
		dt, err := checkExpr(item.Expr, ctx)
		if err != nil {
			return err
		}
		if _, err := assertTypeAs(dt, types.BoolTypeId, ctx); err != nil {
			return err
		}
	}
	return nil
}

func checkPattern(p ast.Pattern, typeId types.TypeId, ctx *Context) error {
	reg := ctx.typeRegistry()
	switch {
	case p.CharLit != nil:
		return assertIdEqual(types.CharTypeId, typeId, reg)
	case p.IntLit != nil:
		return assertIdEqual(types.IntegerTypeId, typeId, reg)
	case p.BoolLit != nil:
		return assertIdEqual(types.BoolTypeId, typeId, reg)
	case p.DoubleLit != nil:
		return assertIdEqual(types.DoubleTypeId, typeId, reg)
	case p.Ignore:
		return nil
	case p.Binding != "":
		ctx.pushLocal(p.Binding, typeId)
		return nil
	default:
		return checkVariantPattern(p, typeId, ctx)
	}
}

func checkVariantPattern(p ast.Pattern, typeId types.TypeId, ctx *Context) error {
	reg := ctx.typeRegistry()

	if p.Namespace != "" {
		namespaceId, ok := reg.GetId(p.Namespace)
		if !ok {
			return &errors.UndefinedError{Kind: "type", Name: p.Namespace}
		}
		if namespaceId != typeId {
			return &errors.InvalidTypeError{Expected: nameOf(reg, typeId), Actual: nameOf(reg, namespaceId)}
		}
	}

	t, ok := reg.GetById(typeId)
	if !ok || t.Kind != types.KindSum {
		if p.Namespace != "" {
			return &errors.InvalidTypeError{Expected: nameOf(reg, typeId), Actual: p.Namespace}
		}
		return &errors.InvalidTypeError{Expected: nameOf(reg, typeId), Actual: p.Name}
	}

	idx, ok := t.VariantIndex(p.Name)
	if !ok {
		return &errors.UndefinedError{Kind: "constructor", Name: p.Name}
	}
	subTypes := t.Variants[idx].Payload
	if len(subTypes) != len(p.SubPatterns) {
		return &errors.InvalidCountError{Item: p.Name, Expected: len(subTypes), Actual: len(p.SubPatterns)}
	}
	for i, sub := range p.SubPatterns {
		if err := checkPattern(sub, subTypes[i], ctx); err != nil {
			return err
		}
	}
	return nil
}

func checkUpdate(update *ast.Update, ctx *Context) error {
	if err := importTableColumns(update.Table, ctx); err != nil {
		return err
	}
	table := ctx.guard.Table(update.Table).Get()

	for _, assignment := range update.Set {
		idx, ok := table.Schema.IndexOf(assignment.Column)
		if !ok {
			return &errors.UndefinedError{Kind: "column", Name: assignment.Column}
		}
		expected := table.Schema.Columns[idx].TypeId
		ctx.pushLocal(assignment.Column, expected)

		dt, err := checkExpr(assignment.Expr, ctx)
		if err != nil {
			return err
		}
		if _, err := assertTypeAs(dt, expected, ctx); err != nil {
			return err
		}
	}

	if update.Where != nil {
		return checkWhereClause(update.Where, ctx)
	}
	return nil
}

func checkDelete(del *ast.Delete, ctx *Context) error {
	if del.Where == nil {
		return nil
	}
	if err := importTableColumns(del.Table, ctx); err != nil {
		return err
	}
	return checkWhereClause(del.Where, ctx)
}

func checkInsert(insert *ast.Insert, ctx *Context) error {
	table := ctx.guard.Table(insert.Table).Get()
	schema := table.Schema

	populated := make(map[string]bool, len(insert.Columns))
	checkAllColumnsPopulated := func() error {
		for _, col := range schema.Columns {
			if !populated[col.Name] {
				return &errors.MissingColumnError{Name: col.Name}
			}
		}
		return nil
	}

	if insert.Select != nil {
		rowTypes, err := checkSelect(insert.Select, ctx)
		if err != nil {
			return err
		}
		if len(insert.Columns) != len(rowTypes) {
			return &errors.InvalidCountError{Item: "SELECT items", Expected: len(insert.Columns), Actual: len(rowTypes)}
		}
		for i, column := range insert.Columns {
			idx, ok := schema.IndexOf(column)
			if !ok {
				return &errors.UndefinedError{Kind: "column", Name: column}
			}
			expected := schema.Columns[idx].TypeId
			if _, err := assertTypeAs(rowTypes[i], expected, ctx); err != nil {
				return err
			}
			if populated[column] {
				return &errors.AlreadyExistsError{Kind: "column assignment", Name: column}
			}
			populated[column] = true
		}
		if err := checkAllColumnsPopulated(); err != nil {
			return err
		}
		return nil
	}

	for _, row := range insert.Values {
		if len(insert.Columns) != len(row) {
			return &errors.InvalidCountError{Item: "VALUES", Expected: len(insert.Columns), Actual: len(row)}
		}
		for name := range populated {
			delete(populated, name)
		}
		for i, column := range insert.Columns {
			idx, ok := schema.IndexOf(column)
			if !ok {
				return &errors.UndefinedError{Kind: "column", Name: column}
			}
			expected := schema.Columns[idx].TypeId
			dt, err := checkExpr(row[i], ctx)
			if err != nil {
				return err
			}
			if _, err := assertTypeAs(dt, expected, ctx); err != nil {
				return err
			}
			if populated[column] {
				return &errors.AlreadyExistsError{Kind: "column assignment", Name: column}
			}
			populated[column] = true
		}
		if err := checkAllColumnsPopulated(); err != nil {
			return err
		}
	}
	return nil
}

func checkCreateTable(create *ast.CreateTable, ctx *Context) error {
	if len(create.Columns) == 0 {
		return &errors.UnsupportedError{Feature: "creating a table with no columns"}
	}

	reg := ctx.typeRegistry()
	for _, col := range create.Columns {
		if _, ok := reg.GetId(col.TypeName); !ok {
			return &errors.UndefinedError{Kind: "type", Name: col.TypeName}
		}
	}

	for i := range create.Columns {
		for j := 0; j < i; j++ {
			if create.Columns[i].Name == create.Columns[j].Name {
				return &errors.AlreadyExistsError{Kind: "column", Name: create.Columns[i].Name}
			}
		}
	}
	return nil
}

func checkCreateType(create *ast.CreateType, ctx *Context) error {
	reg := ctx.typeRegistry()
	if _, ok := reg.GetId(create.Name); ok {
		return &errors.AlreadyExistsError{Kind: "type", Name: create.Name}
	}
	for _, variant := range create.Variants {
		for _, payloadTypeName := range variant.Payload {
			if _, ok := reg.GetId(payloadTypeName); !ok {
				return &errors.UndefinedError{Kind: "type", Name: payloadTypeName}
			}
		}
	}
	return nil
}

func checkExpr(e ast.Expr, ctx *Context) (duckType, error) {
	switch {
	case e.Ident != "":
		id, err := ctx.searchLocals(e.Ident)
		if err != nil {
			return duckType{}, err
		}
		return concrete(id), nil

	case e.Literal != nil:
		switch e.Literal.Kind {
		case ast.LitInteger:
			return concrete(types.IntegerTypeId), nil
		case ast.LitDouble:
			return concrete(types.DoubleTypeId), nil
		case ast.LitBool:
			return concrete(types.BoolTypeId), nil
		case ast.LitChar:
			return concrete(types.CharTypeId), nil
		}
		return duckType{}, fmt.Errorf("typecheck: literal has unknown kind %d", e.Literal.Kind)

	case e.Sum != nil:
		return typeOfSumCtor(e.Sum, ctx)

	case e.Op == ast.OpAnd, e.Op == ast.OpOr:
		t1, err := checkExpr(*e.Left, ctx)
		if err != nil {
			return duckType{}, err
		}
		t2, err := checkExpr(*e.Right, ctx)
		if err != nil {
			return duckType{}, err
		}
		if _, err := assertTypeAs(t1, types.BoolTypeId, ctx); err != nil {
			return duckType{}, err
		}
		if _, err := assertTypeAs(t2, types.BoolTypeId, ctx); err != nil {
			return duckType{}, err
		}
		return concrete(types.BoolTypeId), nil

	default:
		// Equals/NotEquals/LessThan/LessEquals/GreaterThan/GreaterEquals:
		// every type this engine has is ordered and comparable.
		t1, err := checkExpr(*e.Left, ctx)
		if err != nil {
			return duckType{}, err
		}
		t2, err := checkExpr(*e.Right, ctx)
		if err != nil {
			return duckType{}, err
		}
		if _, err := assertTypeEq(t1, t2, ctx); err != nil {
			return duckType{}, err
		}
		return concrete(types.BoolTypeId), nil
	}
}

// typeOfSumCtor resolves a constructor application's type. A namespaced
// constructor ("MyType::Some(1)") is checked and resolved immediately; a
// bare one ("Some(1)") stays duck-typed until something else (a column, a
// comparison partner) supplies the expected type.
func typeOfSumCtor(ctor *ast.SumCtor, ctx *Context) (duckType, error) {
	if ctor.Namespace == "" {
		return duckType{ctor: ctor}, nil
	}
	reg := ctx.typeRegistry()
	typeId, ok := reg.GetId(ctor.Namespace)
	if !ok {
		return duckType{}, &errors.UndefinedError{Kind: "type", Name: ctor.Namespace}
	}
	if _, err := assertTypeAs(duckType{ctor: &ast.SumCtor{Name: ctor.Name, Args: ctor.Args}}, typeId, ctx); err != nil {
		return duckType{}, err
	}
	return concrete(typeId), nil
}

func assertTypeEq(t1, t2 duckType, ctx *Context) (duckType, error) {
	reg := ctx.typeRegistry()
	switch {
	case t1.concrete != nil && t2.concrete != nil:
		if *t1.concrete != *t2.concrete {
			return duckType{}, &errors.MismatchingTypesError{Type1: nameOf(reg, *t1.concrete), Type2: nameOf(reg, *t2.concrete)}
		}
		return t1, nil
	case t1.concrete != nil && t2.ctor != nil:
		if _, err := assertTypeAs(t2, *t1.concrete, ctx); err != nil {
			return duckType{}, err
		}
		return t1, nil
	case t1.ctor != nil && t2.concrete != nil:
		if _, err := assertTypeAs(t1, *t2.concrete, ctx); err != nil {
			return duckType{}, err
		}
		return t2, nil
	default:
		return duckType{}, &errors.UnsupportedError{Feature: "comparing two constructor values whose type isn't otherwise known"}
	}
}

// assertTypeAs checks actual against an already-known expected TypeId,
// recursing into a constructor's arguments against the variant's payload
// types when actual is duck-typed.
func assertTypeAs(actual duckType, expected types.TypeId, ctx *Context) (types.TypeId, error) {
	reg := ctx.typeRegistry()

	if actual.concrete != nil {
		if *actual.concrete != expected {
			return 0, &errors.InvalidTypeError{Actual: nameOf(reg, *actual.concrete), Expected: nameOf(reg, expected)}
		}
		return expected, nil
	}

	t, ok := reg.GetById(expected)
	if !ok || t.Kind != types.KindSum {
		return 0, &errors.InvalidTypeError{Expected: nameOf(reg, expected), Actual: actual.ctor.Name}
	}

	idx, ok := t.VariantIndex(actual.ctor.Name)
	if !ok {
		return 0, &errors.UndefinedError{Kind: "constructor", Name: actual.ctor.Name}
	}
	subTypes := t.Variants[idx].Payload
	if len(subTypes) != len(actual.ctor.Args) {
		return 0, &errors.InvalidCountError{Item: actual.ctor.Name, Expected: len(subTypes), Actual: len(actual.ctor.Args)}
	}
	for i, arg := range actual.ctor.Args {
		argType, err := checkExpr(arg, ctx)
		if err != nil {
			return 0, err
		}
		if _, err := assertTypeAs(argType, subTypes[i], ctx); err != nil {
			return 0, err
		}
	}
	return expected, nil
}

func assertIdEqual(got, want types.TypeId, reg *types.TypeRegistry) error {
	if got != want {
		return &errors.InvalidTypeError{Expected: nameOf(reg, want), Actual: nameOf(reg, got)}
	}
	return nil
}

func nameOf(reg *types.TypeRegistry, id types.TypeId) string {
	name, ok := reg.NameOf(id)
	if !ok {
		return fmt.Sprintf("<unknown type %d>", id)
	}
	return name
}
