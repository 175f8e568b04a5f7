package resource

import (
	"testing"

	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/parser"
)

func mustParseForAnalyze(t *testing.T, stmt string) ast.Stmt {
	t.Helper()
	s, err := parser.ParseStmt(stmt)
	if err != nil {
		t.Fatalf("parsing %q: %v", stmt, err)
	}
	return s
}

func TestAnalyzeAcquireCreateTypeNeedsTypeMapWrite(t *testing.T) {
	stmt := mustParseForAnalyze(t, `CREATE TYPE Flag AS VARIANT { Up(), Down(), };`)
	acq := AnalyzeAcquire(stmt)
	if acq.TypeMapPerm != Write {
		t.Fatalf("TypeMapPerm = %v, want Write", acq.TypeMapPerm)
	}
}

func TestAnalyzeTransactionAcquireUnionsTypeMapPerm(t *testing.T) {
	stmts := []ast.Stmt{
		mustParseForAnalyze(t, `SELECT x FROM t;`),
		mustParseForAnalyze(t, `CREATE TYPE Flag AS VARIANT { Up(), Down(), };`),
	}
	acq := AnalyzeTransactionAcquire(stmts)
	if acq.TypeMapPerm != Write {
		t.Fatalf("a transaction containing CREATE TYPE must acquire the type map for Write, got %v", acq.TypeMapPerm)
	}
}

func TestAnalyzeTransactionAcquireStaysReadWithoutCreateType(t *testing.T) {
	stmts := []ast.Stmt{
		mustParseForAnalyze(t, `SELECT x FROM t;`),
		mustParseForAnalyze(t, `UPDATE t SET x = 1 WHERE x: 0;`),
	}
	acq := AnalyzeTransactionAcquire(stmts)
	if acq.TypeMapPerm != Read {
		t.Fatalf("TypeMapPerm = %v, want Read", acq.TypeMapPerm)
	}
}
