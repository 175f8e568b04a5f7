package wal

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestWriter(t *testing.T, flushInterval ...int) *Writer {
	t.Helper()
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	w, err := NewWriter(opts, 0)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestWriterAppendAssignsIncreasingTransactionNumbers(t *testing.T) {
	w := newTestWriter(t)

	tn1, err := w.Append("INSERT INTO t VALUES (1)")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	tn2, err := w.Append("INSERT INTO t VALUES (2)")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if tn1 != 1 || tn2 != 2 {
		t.Fatalf("got tn1=%d tn2=%d, want 1 and 2", tn1, tn2)
	}
}

func TestWriterAppendResumesFromLastTn(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	w, err := NewWriter(opts, 41)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	tn, err := w.Append("CREATE TABLE t (x: Integer)")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if tn != 42 {
		t.Fatalf("got tn=%d, want 42", tn)
	}
}

func TestWriterEntriesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	w, err := NewWriter(opts, 0)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	stmts := []string{"INSERT INTO t VALUES (1)", "INSERT INTO t VALUES (2)"}
	for _, s := range stmts {
		if _, err := w.Append(s); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	for i, want := range stmts {
		e, err := r.ReadEntry()
		if err != nil {
			t.Fatalf("ReadEntry %d: %v", i, err)
		}
		if e == nil {
			t.Fatalf("ReadEntry %d: unexpected EOF", i)
		}
		if e.Statement != want {
			t.Errorf("entry %d: got %q, want %q", i, e.Statement, want)
		}
		if e.TransactionNumber != uint64(i+1) {
			t.Errorf("entry %d: got tn=%d, want %d", i, e.TransactionNumber, i+1)
		}
	}
	e, err := r.ReadEntry()
	if err != nil || e != nil {
		t.Fatalf("expected clean EOF, got entry=%v err=%v", e, err)
	}
}

func TestWriterTruncateDropsEntriesUpToTn(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	w, err := NewWriter(opts, 0)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	for i := 0; i < 3; i++ {
		if _, err := w.Append("INSERT INTO t VALUES (1)"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Truncate(2); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	r, err := NewReader(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	e, err := r.ReadEntry()
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if e == nil || e.TransactionNumber != 3 {
		t.Fatalf("got %v, want entry with tn=3", e)
	}
	e, err = r.ReadEntry()
	if err != nil || e != nil {
		t.Fatalf("expected clean EOF after truncation, got entry=%v err=%v", e, err)
	}
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	w := newTestWriter(t)
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNewWriterCreatesFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(DefaultOptions(dir), 0)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("wal file not created: %v", err)
	}
}
