package ast

// Pattern is the grammar matched against a single column's value in a
// WHERE clause's "column: pattern" items. It mirrors Expr's literal forms
// plus two match-only shapes: Ignore ("_") and Binding, plus the recursive
// Variant form that destructures a sum-typed column.
type Pattern struct {
	IntLit    *int32
	DoubleLit *float64
	BoolLit   *bool
	CharLit   *byte

	Ignore bool

	Binding string // set when this pattern binds the matched value to a name

	// Variant destructures a sum-typed value: Namespace is the optional
	// "Type::" qualifier, Name the constructor, SubPatterns one pattern
	// per payload field in declaration order.
	Namespace   string
	Name        string
	SubPatterns []Pattern

	Span Span
}
