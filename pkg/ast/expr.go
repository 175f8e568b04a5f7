package ast

// BinOp is the closed set of binary comparison and boolean operators an
// Expr can apply.
type BinOp int

const (
	OpEquals BinOp = iota
	OpNotEquals
	OpLessThan
	OpLessEquals
	OpGreaterThan
	OpGreaterEquals
	OpAnd
	OpOr
)

func (op BinOp) String() string {
	switch op {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessEquals:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterEquals:
		return ">="
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return "?"
	}
}

// LiteralKind discriminates the scalar literal forms the lexer produces.
type LiteralKind int

const (
	LitInteger LiteralKind = iota
	LitDouble
	LitBool
	LitChar
)

type Literal struct {
	Kind LiteralKind
	Int  int32
	Dbl  float64
	Bool bool
	Char byte
}

// SumCtor applies a sum type's constructor to a tuple of argument
// expressions, e.g. "Some(1)" or "Namespace::Ctor(a, b)". Namespace is
// empty when the constructor name alone is expected to resolve unambiguously
// against the expected column type.
type SumCtor struct {
	Namespace string
	Name      string
	Args      []Expr
}

// Expr is an identifier reference, a scalar literal, a sum constructor
// application, or a binary operator applied to two sub-expressions. There
// is no unary negation or general function-call form: the grammar this
// mirrors doesn't have one either, beyond a leading '-' folded into numeric
// literals by the lexer.
type Expr struct {
	Ident   string
	Literal *Literal
	Sum     *SumCtor
	Op      BinOp
	Left    *Expr
	Right   *Expr
	Span    Span
}

func Ident(name string, span Span) Expr {
	return Expr{Ident: name, Span: span}
}

func SumLit(namespace, name string, args []Expr, span Span) Expr {
	return Expr{Sum: &SumCtor{Namespace: namespace, Name: name, Args: args}, Span: span}
}

func IntLit(v int32, span Span) Expr {
	return Expr{Literal: &Literal{Kind: LitInteger, Int: v}, Span: span}
}

func DblLit(v float64, span Span) Expr {
	return Expr{Literal: &Literal{Kind: LitDouble, Dbl: v}, Span: span}
}

func BoolLit(v bool, span Span) Expr {
	return Expr{Literal: &Literal{Kind: LitBool, Bool: v}, Span: span}
}

func Binary(op BinOp, left, right Expr, span Span) Expr {
	return Expr{Op: op, Left: &left, Right: &right, Span: span}
}

// IsIdent reports whether this expression is a bare column reference, the
// only projection form SELECT actually supports.
func (e Expr) IsIdent() bool {
	return e.Literal == nil && e.Sum == nil && e.Left == nil && e.Ident != ""
}

// IsLeaf reports whether this expression has no Left/Right children, i.e.
// is an Ident, Literal, or SumCtor rather than a binary operator
// application.
func (e Expr) IsLeaf() bool {
	return e.Left == nil && e.Right == nil
}
