// Package parser implements a hand-written recursive-descent parser that
// turns a lexed token stream into one pkg/ast.Stmt. It mirrors the grammar
// the engine was distilled from: SELECT/INSERT/UPDATE/DELETE/CREATE
// TABLE/CREATE TYPE/DROP, with comparison and boolean expressions, pattern
// matches, and joins nested inside SELECT's FROM clause.
package parser

import (
	"strconv"
	"strings"

	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/errors"
	"github.com/bobboyms/algebraicdb/pkg/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
}

// ParseStmt parses exactly one statement out of input. A single terminating
// ';' is accepted but not required: pkg/session strips it when segmenting
// input on the first unquoted, uncommented semicolon, while direct callers
// may pass the statement with it.
func ParseStmt(input string) (ast.Stmt, error) {
	tokens, err := lexer.Lex(input)
	if err != nil {
		return ast.Stmt{}, err
	}
	p := &parser{tokens: tokens}
	stmt, err := p.parseStmt()
	if err != nil {
		return ast.Stmt{}, err
	}
	if p.peekSymbol(";") {
		p.advance()
	}
	if !p.atEOF() {
		return ast.Stmt{}, &errors.ParseError{
			Message: "unexpected trailing input",
			Span:    errors.Span{Start: p.cur().Start, End: p.cur().End},
		}
	}
	return stmt, nil
}

func (p *parser) cur() lexer.Token  { return p.tokens[p.pos] }
func (p *parser) atEOF() bool       { return p.cur().Kind == lexer.KindEOF }
func (p *parser) advance() lexer.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorf(msg string) error {
	return &errors.ParseError{Message: msg, Span: errors.Span{Start: p.cur().Start, End: p.cur().End}}
}

func (p *parser) expectKeyword(kw string) (lexer.Token, error) {
	if !p.cur().IsKeyword(kw) {
		return lexer.Token{}, p.errorf("expected \"" + kw + "\"")
	}
	return p.advance(), nil
}

func (p *parser) expectSymbol(sym string) (lexer.Token, error) {
	if p.cur().Kind != lexer.KindSymbol || p.cur().Text != sym {
		return lexer.Token{}, p.errorf("expected \"" + sym + "\"")
	}
	return p.advance(), nil
}

func (p *parser) expectWord() (lexer.Token, error) {
	if p.cur().Kind != lexer.KindWord {
		return lexer.Token{}, p.errorf("expected identifier")
	}
	return p.advance(), nil
}

func (p *parser) peekSymbol(sym string) bool {
	return p.cur().Kind == lexer.KindSymbol && p.cur().Text == sym
}

func (p *parser) peekKeyword(kw string) bool {
	return p.cur().IsKeyword(kw)
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	start := p.cur().Start
	switch {
	case p.peekKeyword("SELECT"):
		sel, err := p.parseSelect()
		if err != nil {
			return ast.Stmt{}, err
		}
		return ast.Stmt{Select: &sel, Span: errors.Span{Start: start, End: p.cur().Start}}, nil
	case p.peekKeyword("INSERT"):
		ins, err := p.parseInsert()
		if err != nil {
			return ast.Stmt{}, err
		}
		return ast.Stmt{Insert: &ins, Span: errors.Span{Start: start, End: p.cur().Start}}, nil
	case p.peekKeyword("UPDATE"):
		upd, err := p.parseUpdate()
		if err != nil {
			return ast.Stmt{}, err
		}
		return ast.Stmt{Update: &upd, Span: errors.Span{Start: start, End: p.cur().Start}}, nil
	case p.peekKeyword("DELETE"):
		del, err := p.parseDelete()
		if err != nil {
			return ast.Stmt{}, err
		}
		return ast.Stmt{Delete: &del, Span: errors.Span{Start: start, End: p.cur().Start}}, nil
	case p.peekKeyword("CREATE"):
		return p.parseCreate(start)
	case p.peekKeyword("DROP"):
		drop, err := p.parseDrop()
		if err != nil {
			return ast.Stmt{}, err
		}
		return ast.Stmt{Drop: &drop, Span: errors.Span{Start: start, End: p.cur().Start}}, nil
	default:
		return ast.Stmt{}, p.errorf("expected a statement")
	}
}

func (p *parser) parseCreate(start int) (ast.Stmt, error) {
	if _, err := p.expectKeyword("CREATE"); err != nil {
		return ast.Stmt{}, err
	}
	switch {
	case p.peekKeyword("TABLE"):
		ct, err := p.parseCreateTableBody()
		if err != nil {
			return ast.Stmt{}, err
		}
		return ast.Stmt{CreateTable: &ct, Span: errors.Span{Start: start, End: p.cur().Start}}, nil
	case p.peekKeyword("TYPE"):
		ctp, err := p.parseCreateTypeBody()
		if err != nil {
			return ast.Stmt{}, err
		}
		return ast.Stmt{CreateType: &ctp, Span: errors.Span{Start: start, End: p.cur().Start}}, nil
	default:
		return ast.Stmt{}, p.errorf("expected \"TABLE\" or \"TYPE\"")
	}
}

// ---- SELECT ----

func (p *parser) parseSelect() (ast.Select, error) {
	start := p.cur().Start
	if _, err := p.expectKeyword("SELECT"); err != nil {
		return ast.Select{}, err
	}

	var items []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return ast.Select{}, err
		}
		items = append(items, e)
		if p.peekSymbol(",") {
			p.advance()
			continue
		}
		break
	}

	sel := ast.Select{Items: items}

	if p.peekKeyword("FROM") {
		p.advance()
		from, err := p.parseSelectFrom()
		if err != nil {
			return ast.Select{}, err
		}
		sel.From = &from
	}

	if p.peekKeyword("WHERE") {
		p.advance()
		wc, err := p.parseWhereClause()
		if err != nil {
			return ast.Select{}, err
		}
		sel.Where = &wc
	}

	sel.Span = errors.Span{Start: start, End: p.cur().Start}
	return sel, nil
}

func (p *parser) parseSelectFrom() (ast.SelectFrom, error) {
	start := p.cur().Start
	var base ast.SelectFrom

	if p.peekSymbol("(") {
		p.advance()
		if p.peekKeyword("SELECT") {
			sub, err := p.parseSelect()
			if err != nil {
				return ast.SelectFrom{}, err
			}
			if _, err := p.expectSymbol(")"); err != nil {
				return ast.SelectFrom{}, err
			}
			base = ast.SelectFrom{Select: &sub}
		} else {
			inner, err := p.parseSelectFrom()
			if err != nil {
				return ast.SelectFrom{}, err
			}
			if _, err := p.expectSymbol(")"); err != nil {
				return ast.SelectFrom{}, err
			}
			base = inner
		}
	} else {
		tbl, err := p.expectWord()
		if err != nil {
			return ast.SelectFrom{}, err
		}
		base = ast.SelectFrom{Table: tbl.Text}
	}

	for p.peekJoinKeyword() {
		jt, err := p.parseJoinType()
		if err != nil {
			return ast.SelectFrom{}, err
		}
		right, err := p.parseJoinOperand()
		if err != nil {
			return ast.SelectFrom{}, err
		}
		var on ast.Expr
		var hasOn bool
		if p.peekKeyword("ON") {
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return ast.SelectFrom{}, err
			}
			on = e
			hasOn = true
		}
		join := &ast.Join{TableA: base, TableB: right, JoinType: jt}
		if hasOn {
			join.On = &on
		}
		base = ast.SelectFrom{Join: join}
	}

	base.Span = errors.Span{Start: start, End: p.cur().Start}
	return base, nil
}

// parseJoinOperand parses the right-hand side of a JOIN, which may itself
// be a parenthesized sub-join but never re-enters the outer join loop
// (joins are left-associative; "(t2 LEFT JOIN t3)" groups explicitly).
func (p *parser) parseJoinOperand() (ast.SelectFrom, error) {
	if p.peekSymbol("(") {
		p.advance()
		inner, err := p.parseSelectFrom()
		if err != nil {
			return ast.SelectFrom{}, err
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return ast.SelectFrom{}, err
		}
		return inner, nil
	}
	tbl, err := p.expectWord()
	if err != nil {
		return ast.SelectFrom{}, err
	}
	return ast.SelectFrom{Table: tbl.Text}, nil
}

func (p *parser) peekJoinKeyword() bool {
	return p.peekKeyword("LEFT") || p.peekKeyword("RIGHT") || p.peekKeyword("INNER") || p.peekKeyword("FULL") || p.peekKeyword("JOIN")
}

func (p *parser) parseJoinType() (ast.JoinType, error) {
	switch {
	case p.peekKeyword("JOIN"):
		p.advance()
		return ast.JoinInner, nil
	case p.peekKeyword("INNER"):
		p.advance()
		if _, err := p.expectKeyword("JOIN"); err != nil {
			return 0, err
		}
		return ast.JoinInner, nil
	case p.peekKeyword("LEFT"):
		p.advance()
		if p.peekKeyword("OUTER") {
			p.advance()
		}
		if _, err := p.expectKeyword("JOIN"); err != nil {
			return 0, err
		}
		return ast.JoinLeftOuter, nil
	case p.peekKeyword("RIGHT"):
		p.advance()
		if p.peekKeyword("OUTER") {
			p.advance()
		}
		if _, err := p.expectKeyword("JOIN"); err != nil {
			return 0, err
		}
		return ast.JoinRightOuter, nil
	case p.peekKeyword("FULL"):
		p.advance()
		if p.peekKeyword("OUTER") {
			p.advance()
		}
		if _, err := p.expectKeyword("JOIN"); err != nil {
			return 0, err
		}
		return ast.JoinFullOuter, nil
	default:
		return 0, p.errorf("expected a join")
	}
}

func (p *parser) parseWhereClause() (ast.WhereClause, error) {
	var items []ast.WhereItem
	for {
		item, err := p.parseWhereItem()
		if err != nil {
			return ast.WhereClause{}, err
		}
		items = append(items, item)
		if p.peekSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	return ast.WhereClause{Items: items}, nil
}

func (p *parser) parseWhereItem() (ast.WhereItem, error) {
	// "column: pattern" vs. a bare expression: both start with a word, so
	// look ahead for the ':'.
	if p.cur().Kind == lexer.KindWord {
		save := p.pos
		name := p.advance().Text
		if p.peekSymbol(":") {
			p.advance()
			pat, err := p.parsePattern()
			if err != nil {
				return ast.WhereItem{}, err
			}
			return ast.WhereItem{PatternName: name, Pattern: &pat}, nil
		}
		p.pos = save
	}

	e, err := p.parseExpr()
	if err != nil {
		return ast.WhereItem{}, err
	}
	return ast.WhereItem{Expr: e}, nil
}

// ---- expressions ----
//
// Precedence, low to high: OR, AND, comparison. Comparisons are
// non-associative (a single level, no chaining) since the grammar this
// mirrors never chained them either.

func (p *parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.peekKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Binary(ast.OpOr, left, right, errors.Span{Start: left.Span.Start, End: right.Span.End})
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.peekKeyword("AND") {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Binary(ast.OpAnd, left, right, errors.Span{Start: left.Span.Start, End: right.Span.End})
	}
	return left, nil
}

var comparisonOps = map[string]ast.BinOp{
	"=": ast.OpEquals, "!=": ast.OpNotEquals,
	"<": ast.OpLessThan, "<=": ast.OpLessEquals,
	">": ast.OpGreaterThan, ">=": ast.OpGreaterEquals,
}

func (p *parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAtom()
	if err != nil {
		return ast.Expr{}, err
	}
	if p.cur().Kind == lexer.KindSymbol {
		if op, ok := comparisonOps[p.cur().Text]; ok {
			p.advance()
			right, err := p.parseAtom()
			if err != nil {
				return ast.Expr{}, err
			}
			return ast.Binary(op, left, right, errors.Span{Start: left.Span.Start, End: right.Span.End}), nil
		}
	}
	return left, nil
}

func (p *parser) parseAtom() (ast.Expr, error) {
	t := p.cur()
	switch {
	case t.Kind == lexer.KindNumber:
		p.advance()
		span := errors.Span{Start: t.Start, End: t.End}
		if strings.ContainsRune(t.Text, '.') {
			v, err := strconv.ParseFloat(t.Text, 64)
			if err != nil {
				return ast.Expr{}, &errors.ParseError{Message: "invalid number literal", Span: span}
			}
			return ast.DblLit(v, span), nil
		}
		v, err := strconv.ParseInt(t.Text, 10, 32)
		if err != nil {
			return ast.Expr{}, &errors.ParseError{Message: "invalid number literal", Span: span}
		}
		return ast.IntLit(int32(v), span), nil
	case t.IsKeyword("TRUE"):
		p.advance()
		return ast.BoolLit(true, errors.Span{Start: t.Start, End: t.End}), nil
	case t.IsKeyword("FALSE"):
		p.advance()
		return ast.BoolLit(false, errors.Span{Start: t.Start, End: t.End}), nil
	case t.Kind == lexer.KindWord:
		return p.parseIdentOrCtor()
	case p.peekSymbol("("):
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return ast.Expr{}, err
		}
		return e, nil
	default:
		return ast.Expr{}, p.errorf("expected an expression")
	}
}

// parseIdentOrCtor disambiguates a bare column reference from a sum
// constructor application, mirroring parsePattern's handling of the same
// "word, optionally ::word, optionally (args)" shape.
func (p *parser) parseIdentOrCtor() (ast.Expr, error) {
	start := p.cur().Start
	first := p.advance().Text
	namespace := ""
	name := first

	if p.peekSymbol(":") && p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Text == ":" {
		p.advance()
		p.advance()
		second, err := p.expectWord()
		if err != nil {
			return ast.Expr{}, err
		}
		namespace = first
		name = second.Text
	}

	if !p.peekSymbol("(") {
		if namespace != "" {
			return ast.Expr{}, p.errorf("expected '(' after " + namespace + "::" + name)
		}
		return ast.Ident(first, errors.Span{Start: start, End: p.tokens[p.pos-1].End}), nil
	}

	p.advance()
	var args []ast.Expr
	if !p.peekSymbol(")") {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			args = append(args, arg)
			if p.peekSymbol(",") {
				p.advance()
				continue
			}
			break
		}
	}
	end, err := p.expectSymbol(")")
	if err != nil {
		return ast.Expr{}, err
	}
	return ast.SumLit(namespace, name, args, errors.Span{Start: start, End: end.End}), nil
}

// ---- pattern ----

func (p *parser) parsePattern() (ast.Pattern, error) {
	t := p.cur()
	start := t.Start

	switch {
	case t.Kind == lexer.KindNumber:
		p.advance()
		if strings.ContainsRune(t.Text, '.') {
			v, err := strconv.ParseFloat(t.Text, 64)
			if err != nil {
				return ast.Pattern{}, &errors.ParseError{Message: "invalid number literal", Span: errors.Span{Start: start, End: t.End}}
			}
			return ast.Pattern{DoubleLit: &v, Span: errors.Span{Start: start, End: t.End}}, nil
		}
		v64, err := strconv.ParseInt(t.Text, 10, 32)
		if err != nil {
			return ast.Pattern{}, &errors.ParseError{Message: "invalid number literal", Span: errors.Span{Start: start, End: t.End}}
		}
		v := int32(v64)
		return ast.Pattern{IntLit: &v, Span: errors.Span{Start: start, End: t.End}}, nil
	case t.IsKeyword("TRUE"), t.IsKeyword("FALSE"):
		p.advance()
		v := t.IsKeyword("TRUE")
		return ast.Pattern{BoolLit: &v, Span: errors.Span{Start: start, End: t.End}}, nil
	case t.Kind == lexer.KindWord && t.Text == "_":
		p.advance()
		return ast.Pattern{Ignore: true, Span: errors.Span{Start: start, End: t.End}}, nil
	case t.Kind == lexer.KindWord:
		// Could be: a plain binding, or Namespace::Ctor(...), or Ctor(...).
		first := p.advance().Text
		namespace := ""
		name := first
		if p.peekSymbol(":") && p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Text == ":" {
			// "::" as two ':' symbols back-to-back.
			p.advance()
			p.advance()
			second, err := p.expectWord()
			if err != nil {
				return ast.Pattern{}, err
			}
			namespace = first
			name = second.Text
		}
		if !p.peekSymbol("(") {
			// No argument list: always a binding named by the first word,
			// whatever its case (any "::name" part is dropped). A
			// constructor without a payload must be written with "()".
			return ast.Pattern{Binding: first, Span: errors.Span{Start: start, End: t.End}}, nil
		}
		p.advance()
		var subs []ast.Pattern
		if !p.peekSymbol(")") {
			for {
				sp, err := p.parsePattern()
				if err != nil {
					return ast.Pattern{}, err
				}
				subs = append(subs, sp)
				if p.peekSymbol(",") {
					p.advance()
					continue
				}
				break
			}
		}
		end, err := p.expectSymbol(")")
		if err != nil {
			return ast.Pattern{}, err
		}
		return ast.Pattern{Namespace: namespace, Name: name, SubPatterns: subs, Span: errors.Span{Start: start, End: end.End}}, nil
	default:
		return ast.Pattern{}, p.errorf("expected a pattern")
	}
}

// ---- INSERT / UPDATE / DELETE / DROP ----

func (p *parser) parseInsert() (ast.Insert, error) {
	if _, err := p.expectKeyword("INSERT"); err != nil {
		return ast.Insert{}, err
	}
	if _, err := p.expectKeyword("INTO"); err != nil {
		return ast.Insert{}, err
	}
	tbl, err := p.expectWord()
	if err != nil {
		return ast.Insert{}, err
	}

	ins := ast.Insert{Table: tbl.Text}

	if p.peekSymbol("(") {
		p.advance()
		if !p.peekSymbol(")") {
			for {
				col, err := p.expectWord()
				if err != nil {
					return ast.Insert{}, err
				}
				ins.Columns = append(ins.Columns, col.Text)
				if p.peekSymbol(",") {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return ast.Insert{}, err
		}
	}

	if p.peekKeyword("SELECT") {
		sel, err := p.parseSelect()
		if err != nil {
			return ast.Insert{}, err
		}
		ins.Select = &sel
		return ins, nil
	}

	if _, err := p.expectKeyword("VALUES"); err != nil {
		return ast.Insert{}, err
	}

	for {
		if _, err := p.expectSymbol("("); err != nil {
			return ast.Insert{}, err
		}
		var row []ast.Expr
		if !p.peekSymbol(")") {
			for {
				e, err := p.parseExpr()
				if err != nil {
					return ast.Insert{}, err
				}
				row = append(row, e)
				if p.peekSymbol(",") {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return ast.Insert{}, err
		}
		ins.Values = append(ins.Values, row)

		if p.peekSymbol(",") {
			p.advance()
			continue
		}
		break
	}

	return ins, nil
}

func (p *parser) parseUpdate() (ast.Update, error) {
	if _, err := p.expectKeyword("UPDATE"); err != nil {
		return ast.Update{}, err
	}
	tbl, err := p.expectWord()
	if err != nil {
		return ast.Update{}, err
	}
	if _, err := p.expectKeyword("SET"); err != nil {
		return ast.Update{}, err
	}

	upd := ast.Update{Table: tbl.Text}
	for {
		col, err := p.expectWord()
		if err != nil {
			return ast.Update{}, err
		}
		if _, err := p.expectSymbol("="); err != nil {
			return ast.Update{}, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return ast.Update{}, err
		}
		upd.Set = append(upd.Set, ast.Assignment{Column: col.Text, Expr: e})
		if p.peekSymbol(",") {
			p.advance()
			continue
		}
		break
	}

	if p.peekKeyword("WHERE") {
		p.advance()
		wc, err := p.parseWhereClause()
		if err != nil {
			return ast.Update{}, err
		}
		upd.Where = &wc
	}

	return upd, nil
}

func (p *parser) parseDelete() (ast.Delete, error) {
	if _, err := p.expectKeyword("DELETE"); err != nil {
		return ast.Delete{}, err
	}
	if _, err := p.expectKeyword("FROM"); err != nil {
		return ast.Delete{}, err
	}
	tbl, err := p.expectWord()
	if err != nil {
		return ast.Delete{}, err
	}
	del := ast.Delete{Table: tbl.Text}
	if p.peekKeyword("WHERE") {
		p.advance()
		wc, err := p.parseWhereClause()
		if err != nil {
			return ast.Delete{}, err
		}
		del.Where = &wc
	}
	return del, nil
}

func (p *parser) parseDrop() (ast.Drop, error) {
	if _, err := p.expectKeyword("DROP"); err != nil {
		return ast.Drop{}, err
	}
	if _, err := p.expectKeyword("TABLE"); err != nil {
		return ast.Drop{}, err
	}
	tbl, err := p.expectWord()
	if err != nil {
		return ast.Drop{}, err
	}
	return ast.Drop{Table: tbl.Text}, nil
}

func (p *parser) parseCreateTableBody() (ast.CreateTable, error) {
	if _, err := p.expectKeyword("TABLE"); err != nil {
		return ast.CreateTable{}, err
	}
	tbl, err := p.expectWord()
	if err != nil {
		return ast.CreateTable{}, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return ast.CreateTable{}, err
	}

	ct := ast.CreateTable{Table: tbl.Text}
	if !p.peekSymbol(")") {
		for {
			name, err := p.expectWord()
			if err != nil {
				return ast.CreateTable{}, err
			}
			typeName, err := p.expectWord()
			if err != nil {
				return ast.CreateTable{}, err
			}
			ct.Columns = append(ct.Columns, ast.ColumnDef{
				Name:     name.Text,
				TypeName: typeName.Text,
				Span:     errors.Span{Start: name.Start, End: typeName.End},
			})
			if p.peekSymbol(",") {
				p.advance()
				continue
			}
			break
		}
	}

	if _, err := p.expectSymbol(")"); err != nil {
		return ast.CreateTable{}, err
	}
	return ct, nil
}

func (p *parser) parseCreateTypeBody() (ast.CreateType, error) {
	if _, err := p.expectKeyword("TYPE"); err != nil {
		return ast.CreateType{}, err
	}
	name, err := p.expectWord()
	if err != nil {
		return ast.CreateType{}, err
	}
	if _, err := p.expectKeyword("AS"); err != nil {
		return ast.CreateType{}, err
	}
	if _, err := p.expectKeyword("VARIANT"); err != nil {
		return ast.CreateType{}, err
	}
	if _, err := p.expectSymbol("{"); err != nil {
		return ast.CreateType{}, err
	}

	ct := ast.CreateType{Name: name.Text}
	for !p.peekSymbol("}") {
		ctorName, err := p.expectWord()
		if err != nil {
			return ast.CreateType{}, err
		}
		if _, err := p.expectSymbol("("); err != nil {
			return ast.CreateType{}, err
		}
		var payload []string
		if !p.peekSymbol(")") {
			for {
				tname, err := p.expectWord()
				if err != nil {
					return ast.CreateType{}, err
				}
				payload = append(payload, tname.Text)
				if p.peekSymbol(",") {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return ast.CreateType{}, err
		}
		ct.Variants = append(ct.Variants, ast.VariantDef{Name: ctorName.Text, Payload: payload})

		if p.peekSymbol(",") {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expectSymbol("}"); err != nil {
		return ast.CreateType{}, err
	}
	return ct, nil
}
