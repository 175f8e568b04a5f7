package dbms_test

import (
	"testing"

	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/dbms"
	"github.com/bobboyms/algebraicdb/pkg/executor"
	"github.com/bobboyms/algebraicdb/pkg/parser"
)

func mustExecute(t *testing.T, db *dbms.DB, stmt string) executor.Result {
	t.Helper()
	res, err := db.Execute(stmt)
	if err != nil {
		t.Fatalf("executing %q: %v", stmt, err)
	}
	return res
}

func mustParse(t *testing.T, stmt string) ast.Stmt {
	t.Helper()
	s, err := parser.ParseStmt(stmt)
	if err != nil {
		t.Fatalf("parsing %q: %v", stmt, err)
	}
	return s
}

func TestInMemoryCrud(t *testing.T) {
	db, err := dbms.Open(dbms.Options{Persistent: false})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	mustExecute(t, db, `CREATE TABLE t (x Integer);`)
	mustExecute(t, db, `INSERT INTO t (x) VALUES (1), (2);`)

	res := mustExecute(t, db, `SELECT x FROM t;`)
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}

	mustExecute(t, db, `DELETE FROM t WHERE x: 1;`)
	res = mustExecute(t, db, `SELECT x FROM t;`)
	if len(res.Rows) != 1 {
		t.Fatalf("after delete, got %d rows, want 1", len(res.Rows))
	}
}

func TestPersistentRecoveryReplaysWal(t *testing.T) {
	dir := t.TempDir()
	opts := dbms.Options{DataDir: dir, Persistent: true}

	db, err := dbms.Open(opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustExecute(t, db, `CREATE TABLE t (x Integer);`)
	mustExecute(t, db, `INSERT INTO t (x) VALUES (42);`)
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2, err := dbms.Open(opts)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer db2.Close()

	res := mustExecute(t, db2, `SELECT x FROM t;`)
	if len(res.Rows) != 1 || res.Rows[0][0] != "42" {
		t.Fatalf("got rows %v, want [[42]]", res.Rows)
	}
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	opts := dbms.Options{DataDir: dir, Persistent: true, WalTruncateAt: 0}

	db, err := dbms.Open(opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustExecute(t, db, `CREATE TABLE t (x Integer);`)
	mustExecute(t, db, `INSERT INTO t (x) VALUES (1);`)

	if err := db.Snapshot(); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2, err := dbms.Open(opts)
	if err != nil {
		t.Fatalf("reopening after snapshot: %v", err)
	}
	defer db2.Close()

	res := mustExecute(t, db2, `SELECT x FROM t;`)
	if len(res.Rows) != 1 {
		t.Fatalf("got %d rows after snapshot+reopen, want 1", len(res.Rows))
	}
}

func TestSumTypeSmallerVariantDoesNotPanicOnInsert(t *testing.T) {
	db, err := dbms.Open(dbms.Options{Persistent: false})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	mustExecute(t, db, `CREATE TYPE Maybe AS VARIANT { Nil(), Some(Integer), };`)
	mustExecute(t, db, `CREATE TABLE readings (x Maybe, y Integer);`)
	mustExecute(t, db, `INSERT INTO readings (x, y) VALUES (Some(1), 10), (Nil(), 20);`)

	res := mustExecute(t, db, `SELECT y FROM readings WHERE x: Some(k);`)
	if len(res.Rows) != 1 || res.Rows[0][0] != "10" {
		t.Fatalf("got rows %v, want [[10]]", res.Rows)
	}

	res = mustExecute(t, db, `SELECT y FROM readings WHERE x: Nil();`)
	if len(res.Rows) != 1 || res.Rows[0][0] != "20" {
		t.Fatalf("got rows %v, want [[20]]", res.Rows)
	}
}

func TestTransactionAppliesAllStatementsTogether(t *testing.T) {
	db, err := dbms.Open(dbms.Options{Persistent: false})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	mustExecute(t, db, `CREATE TABLE accounts (id Integer, balance Integer);`)
	mustExecute(t, db, `INSERT INTO accounts (id, balance) VALUES (1, 100), (2, 0);`)

	_, err = db.ExecuteStmt(mustParse(t, `SELECT id FROM accounts;`), `SELECT id FROM accounts;`)
	if err != nil {
		t.Fatalf("ExecuteStmt: %v", err)
	}

	texts := []string{
		`UPDATE accounts SET balance = 0 WHERE id: 1;`,
		`UPDATE accounts SET balance = 100 WHERE id: 2;`,
	}
	stmts := make([]ast.Stmt, len(texts))
	for i, text := range texts {
		stmts[i] = mustParse(t, text)
	}
	if _, err := db.RunTransaction(stmts, texts); err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}

	res := mustExecute(t, db, `SELECT balance FROM accounts WHERE id: 2;`)
	if len(res.Rows) != 1 || res.Rows[0][0] != "100" {
		t.Fatalf("got rows %v, want [[100]]", res.Rows)
	}
}
