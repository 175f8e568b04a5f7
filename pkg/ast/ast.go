// Package ast defines the parsed representation of statements this engine
// executes: SELECT, INSERT, UPDATE, DELETE, CREATE TABLE, CREATE TYPE, and
// DROP, plus the expression and pattern grammars nested inside them.
package ast

import (
	"github.com/bobboyms/algebraicdb/pkg/errors"
)

// Span locates a byte range in the original statement text, used to
// annotate type errors with a caret underline.
type Span = errors.Span

// Instr is one client-submitted unit of work: either a single bare
// statement, or an explicit BEGIN..END transaction wrapping several.
type Instr struct {
	Stmts         []Stmt
	InTransaction bool
}

// Stmt is the closed set of top-level statements the parser produces.
type Stmt struct {
	Select     *Select
	Insert     *Insert
	Update     *Update
	Delete     *Delete
	CreateTable *CreateTable
	CreateType *CreateType
	Drop       *Drop
	Span       Span
}

type Select struct {
	Items   []Expr
	From    *SelectFrom
	Where   *WhereClause
	Span    Span
}

type SelectFrom struct {
	Table  string
	Select *Select
	Join   *Join
	Span   Span
}

type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeftOuter
	JoinRightOuter
	JoinFullOuter
)

func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "INNER JOIN"
	case JoinLeftOuter:
		return "LEFT JOIN"
	case JoinRightOuter:
		return "RIGHT JOIN"
	case JoinFullOuter:
		return "FULL OUTER JOIN"
	default:
		return "JOIN"
	}
}

type Join struct {
	TableA   SelectFrom
	TableB   SelectFrom
	JoinType JoinType
	On       *Expr // nil if absent
}

// WhereItem is one comma-separated clause of a WHERE list: either a boolean
// expression, or a "column: pattern" match.
type WhereItem struct {
	Expr        Expr // set when this item is a bare boolean expression
	PatternName string
	Pattern     *Pattern // set together with PatternName when this is a match
}

type WhereClause struct {
	Items []WhereItem
}

type Insert struct {
	Table   string
	Columns []string
	Values  [][]Expr // set when inserting literal rows
	Select  *Select  // set when inserting from a SELECT
	Span    Span
}

type Assignment struct {
	Column string
	Expr   Expr
}

type Update struct {
	Table string
	Set   []Assignment
	Where *WhereClause
	Span  Span
}

type Delete struct {
	Table string
	Where *WhereClause
	Span  Span
}

type Drop struct {
	Table string
	Span  Span
}

type ColumnDef struct {
	Name     string
	TypeName string
	Span     Span
}

type CreateTable struct {
	Table   string
	Columns []ColumnDef
	Span    Span
}

type VariantDef struct {
	Name    string
	Payload []string // referenced type names, in declared order
}

type CreateType struct {
	Name     string
	Variants []VariantDef
	Span     Span
}
