package resource

import (
	"sort"

	"github.com/bobboyms/algebraicdb/pkg/ast"
)

// request accumulates table requirements for one statement or transaction
// before they're sorted and finalized into an Acquire.
type request struct {
	reqs map[string]RW
}

func newRequest() *request {
	return &request{reqs: make(map[string]RW)}
}

// push records a requirement on table, coalescing to the stronger
// permission if the table was already requested — e.g. "INSERT INTO t
// SELECT * FROM t" reads and writes the same table, and must end up
// holding it for Write, not flip-flop between the two requests.
func (r *request) push(table string, rw RW) {
	if existing, ok := r.reqs[table]; ok {
		r.reqs[table] = existing.Max(rw)
		return
	}
	r.reqs[table] = rw
}

func (r *request) finish(typeMapPerm RW) Acquire {
	names := make([]string, 0, len(r.reqs))
	for name := range r.reqs {
		names = append(names, name)
	}
	sort.Strings(names)

	reqs := make([]TableReq, len(names))
	for i, name := range names {
		reqs[i] = TableReq{Table: name, RW: r.reqs[name]}
	}
	return Acquire{TableReqs: reqs, TypeMapPerm: typeMapPerm}
}

// AnalyzeAcquire derives the resources a single statement needs, before
// typechecking runs against them.
func AnalyzeAcquire(stmt ast.Stmt) Acquire {
	req := newRequest()
	analyzeStmt(req, stmt)
	return req.finish(typeMapPermOf(stmt))
}

// AnalyzeTransactionAcquire derives the union of resources every statement
// in an explicit BEGIN..END transaction needs, so the whole batch can
// acquire its locks once up front rather than statement by statement
// (which would be deadlock-prone under concurrent transactions).
func AnalyzeTransactionAcquire(stmts []ast.Stmt) Acquire {
	req := newRequest()
	typeMapPerm := Read
	for _, stmt := range stmts {
		analyzeStmt(req, stmt)
		typeMapPerm = typeMapPerm.Max(typeMapPermOf(stmt))
	}
	return req.finish(typeMapPerm)
}

func typeMapPermOf(stmt ast.Stmt) RW {
	if stmt.CreateType != nil {
		return Write
	}
	return Read
}

func analyzeStmt(req *request, stmt ast.Stmt) {
	switch {
	case stmt.Select != nil:
		analyzeOptionalFrom(req, stmt.Select.From)
	case stmt.Update != nil:
		req.push(stmt.Update.Table, Write)
	case stmt.Insert != nil:
		if stmt.Insert.Select != nil {
			analyzeOptionalFrom(req, stmt.Insert.Select.From)
		}
		req.push(stmt.Insert.Table, Write)
	case stmt.Delete != nil:
		req.push(stmt.Delete.Table, Write)
	case stmt.Drop != nil:
		req.push(stmt.Drop.Table, Write)
	case stmt.CreateTable != nil, stmt.CreateType != nil:
		// No table-level locks needed: CreateTable only touches the table
		// directory (storage.TableSet, which guards itself with its own
		// mutex) and CreateType only the type registry itself.
	}
}

func analyzeOptionalFrom(req *request, from *ast.SelectFrom) {
	if from == nil {
		return
	}
	analyzeFrom(req, *from)
}

func analyzeFrom(req *request, from ast.SelectFrom) {
	switch {
	case from.Select != nil:
		analyzeOptionalFrom(req, from.Select.From)
	case from.Join != nil:
		analyzeFrom(req, from.Join.TableA)
		analyzeFrom(req, from.Join.TableB)
	default:
		req.push(from.Table, Read)
	}
}
