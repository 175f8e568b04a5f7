// Package errors defines the named error types returned across the engine.
// Each carries the fields needed to render a precise message and, where it
// originates from parsed input, a Span locating the offending text.
package errors

import (
	"fmt"
)

// Span marks a byte range in some source text, used to underline the
// offending slice in a rendered error.
type Span struct {
	Start int
	End   int
}

type TableAlreadyExistsError struct {
	Name string
}

func (e *TableAlreadyExistsError) Error() string {
	return fmt.Sprintf("table %q already exists", e.Name)
}

type TableNotFoundError struct {
	Name string
	Span Span
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q not found", e.Name)
}

// AlreadyExistsError reports a name collision in some namespace (type,
// column, index) that must be unique.
type AlreadyExistsError struct {
	Kind string
	Name string
	Span Span
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q is defined elsewhere", e.Kind, e.Name)
}

// UndefinedError reports a reference to a name that doesn't resolve in the
// current scope: an unknown column, constructor, type, or identifier.
type UndefinedError struct {
	Kind string // "column", "type", "constructor", "identifier"
	Name string
	Span Span
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("%s %q is undefined", e.Kind, e.Name)
}

// AmbiguousReferenceError reports a name that resolves to more than one
// binding in scope, e.g. the same column name on both sides of a JOIN.
type AmbiguousReferenceError struct {
	Name string
	Span Span
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("%q is ambiguous", e.Name)
}

// MissingColumnError reports an INSERT/CREATE TABLE that omits a column
// schema requires.
type MissingColumnError struct {
	Name string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%q needs to be defined", e.Name)
}

// MismatchingTypesError reports two sides of a comparison or assignment
// whose types don't agree.
type MismatchingTypesError struct {
	Type1 string
	Type2 string
	Span  Span
}

func (e *MismatchingTypesError) Error() string {
	return fmt.Sprintf("mismatching types: %q and %q", e.Type1, e.Type2)
}

// InvalidTypeError reports a value or expression whose type doesn't match
// what the context requires.
type InvalidTypeError struct {
	Expected string
	Actual   string
	Span     Span
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type: found %q, expected %q", e.Actual, e.Expected)
}

// InvalidCountError reports a tuple/row/argument list of the wrong arity,
// e.g. an INSERT with too few values or a constructor call with the wrong
// number of fields.
type InvalidCountError struct {
	Item     string
	Expected int
	Actual   int
	Span     Span
}

func (e *InvalidCountError) Error() string {
	return fmt.Sprintf("invalid number of items in %q: found %d, expected %d", e.Item, e.Actual, e.Expected)
}

// UnsupportedError reports a syntactically valid construct this engine
// deliberately does not implement, e.g. non-Ident SELECT projections or
// outer joins.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("not supported: %s", e.Feature)
}

// ParseError reports a lexical or syntactic failure while parsing a
// statement.
type ParseError struct {
	Message string
	Span    Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// WalCorruptionError reports a checksum mismatch or truncated frame found
// while reading the write-ahead log. Encountering one at startup is fatal:
// there is no way to tell how much of the log is trustworthy past that
// point.
type WalCorruptionError struct {
	Offset int64
	Reason string
}

func (e *WalCorruptionError) Error() string {
	return fmt.Sprintf("wal corruption at offset %d: %s", e.Offset, e.Reason)
}

type TwoPrimarykeysError struct {
	Total int
}

func (e *TwoPrimarykeysError) Error() string {
	return fmt.Sprintf("you have defined a total of %d primary keys, only one is allowed", e.Total)
}

type PrimarykeyNotDefinedError struct {
	TableName string
}

func (e *PrimarykeyNotDefinedError) Error() string {
	return fmt.Sprintf("primary key not defined, table name: %q", e.TableName)
}

type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key violation: key %q already exists in unique index", e.Key)
}

type IndexNotFoundError struct {
	Name string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index %q not found", e.Name)
}

type InvalidKeyTypeError struct {
	Name     string
	TypeName string
}

func (e *InvalidKeyTypeError) Error() string {
	return fmt.Sprintf("invalid key type for index %q: %s", e.Name, e.TypeName)
}
