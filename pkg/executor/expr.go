package executor

import (
	"fmt"

	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/errors"
	"github.com/bobboyms/algebraicdb/pkg/types"
)

// lookupFunc resolves a bound identifier against whichever row is
// currently in scope, the runtime analogue of pkg/typecheck's local
// scopes.
type lookupFunc func(name string) (types.Value, bool, error)

// evalValue computes e's runtime value. expected carries the TypeId a bare
// (unqualified) sum constructor needs to resolve its variant against — the
// same duck-typing pkg/typecheck already verified is satisfiable; nil means
// no expected type is available, which is only safe to pass where e is
// already known not to be a bare constructor.
func evalValue(e ast.Expr, expected *types.TypeId, lookup lookupFunc, reg *types.TypeRegistry) (types.Value, error) {
	switch {
	case e.Ident != "":
		v, ok, err := lookup(e.Ident)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &errors.UndefinedError{Kind: "identifier", Name: e.Ident, Span: e.Span}
		}
		return v, nil

	case e.Literal != nil:
		switch e.Literal.Kind {
		case ast.LitInteger:
			return types.IntegerValue{Id: types.IntegerTypeId, V: e.Literal.Int}, nil
		case ast.LitDouble:
			return types.DoubleValue{Id: types.DoubleTypeId, V: e.Literal.Dbl}, nil
		case ast.LitBool:
			return types.BoolValue{Id: types.BoolTypeId, V: e.Literal.Bool}, nil
		case ast.LitChar:
			return types.CharValue{Id: types.CharTypeId, V: e.Literal.Char}, nil
		}
		return nil, fmt.Errorf("executor: literal has unknown kind %d", e.Literal.Kind)

	case e.Sum != nil:
		return evalSumCtor(e.Sum, expected, lookup, reg)

	case e.Op == ast.OpAnd, e.Op == ast.OpOr:
		boolType := types.BoolTypeId
		lv, err := evalValue(*e.Left, &boolType, lookup, reg)
		if err != nil {
			return nil, err
		}
		lb := lv.(types.BoolValue).V
		if e.Op == ast.OpAnd && !lb {
			return types.BoolValue{Id: types.BoolTypeId, V: false}, nil
		}
		if e.Op == ast.OpOr && lb {
			return types.BoolValue{Id: types.BoolTypeId, V: true}, nil
		}
		return evalValue(*e.Right, &boolType, lookup, reg)

	default:
		return evalComparison(e, lookup, reg)
	}
}

func evalSumCtor(ctor *ast.SumCtor, expected *types.TypeId, lookup lookupFunc, reg *types.TypeRegistry) (types.Value, error) {
	var typeId types.TypeId
	if ctor.Namespace != "" {
		id, ok := reg.GetId(ctor.Namespace)
		if !ok {
			return nil, &errors.UndefinedError{Kind: "type", Name: ctor.Namespace}
		}
		typeId = id
	} else if expected != nil {
		typeId = *expected
	} else {
		return nil, fmt.Errorf("executor: constructor %q has no resolvable type here", ctor.Name)
	}

	t, ok := reg.GetById(typeId)
	if !ok || t.Kind != types.KindSum {
		return nil, &errors.InvalidTypeError{Expected: "Sum", Actual: nameOf(reg, typeId)}
	}
	idx, ok := t.VariantIndex(ctor.Name)
	if !ok {
		return nil, &errors.UndefinedError{Kind: "constructor", Name: ctor.Name}
	}
	variant := t.Variants[idx]
	if len(variant.Payload) != len(ctor.Args) {
		return nil, &errors.InvalidCountError{Item: ctor.Name, Expected: len(variant.Payload), Actual: len(ctor.Args)}
	}

	payload := make([]types.Value, len(ctor.Args))
	for i, arg := range ctor.Args {
		pv, err := evalValue(arg, &variant.Payload[i], lookup, reg)
		if err != nil {
			return nil, err
		}
		payload[i] = pv
	}
	return types.SumValue{Id: typeId, Tag: uint32(idx), Payload: payload}, nil
}

// evalComparison evaluates a non-boolean binary operator. Since a bare
// constructor only resolves against an expected type, whichever side
// doesn't need one is evaluated first and supplies the other's expected
// type — mirroring pkg/typecheck's assertTypeEq.
func evalComparison(e ast.Expr, lookup lookupFunc, reg *types.TypeRegistry) (types.Value, error) {
	left, right := *e.Left, *e.Right
	var lv, rv types.Value
	var err error

	switch {
	case !isBareCtor(left):
		if lv, err = evalValue(left, nil, lookup, reg); err != nil {
			return nil, err
		}
		tid := lv.TypeId()
		if rv, err = evalValue(right, &tid, lookup, reg); err != nil {
			return nil, err
		}
	case !isBareCtor(right):
		if rv, err = evalValue(right, nil, lookup, reg); err != nil {
			return nil, err
		}
		tid := rv.TypeId()
		if lv, err = evalValue(left, &tid, lookup, reg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("executor: comparison has no resolvable type on either side")
	}

	cmp := lv.Compare(rv)
	switch e.Op {
	case ast.OpEquals:
		return types.BoolValue{Id: types.BoolTypeId, V: cmp == 0}, nil
	case ast.OpNotEquals:
		return types.BoolValue{Id: types.BoolTypeId, V: cmp != 0}, nil
	case ast.OpLessThan:
		return types.BoolValue{Id: types.BoolTypeId, V: cmp < 0}, nil
	case ast.OpLessEquals:
		return types.BoolValue{Id: types.BoolTypeId, V: cmp <= 0}, nil
	case ast.OpGreaterThan:
		return types.BoolValue{Id: types.BoolTypeId, V: cmp > 0}, nil
	case ast.OpGreaterEquals:
		return types.BoolValue{Id: types.BoolTypeId, V: cmp >= 0}, nil
	default:
		return nil, fmt.Errorf("executor: unknown comparison operator %v", e.Op)
	}
}

func isBareCtor(e ast.Expr) bool {
	return e.Sum != nil && e.Sum.Namespace == ""
}

// evalBool evaluates e and requires the result be a Bool, as every WHERE
// item, JOIN ON clause, and AND/OR operand this engine accepts must be.
func evalBool(e ast.Expr, lookup lookupFunc, reg *types.TypeRegistry) (bool, error) {
	boolType := types.BoolTypeId
	v, err := evalValue(e, &boolType, lookup, reg)
	if err != nil {
		return false, err
	}
	bv, ok := v.(types.BoolValue)
	if !ok {
		return false, &errors.InvalidTypeError{Expected: "Bool", Actual: fmt.Sprintf("%T", v)}
	}
	return bv.V, nil
}

func nameOf(reg *types.TypeRegistry, id types.TypeId) string {
	name, ok := reg.NameOf(id)
	if !ok {
		return fmt.Sprintf("<unknown type %d>", id)
	}
	return name
}
