package wal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobboyms/algebraicdb/pkg/errors"
)

func TestReaderReadEntryRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	var buf bytes.Buffer
	if _, err := WriteTo(&buf, 7, "SELECT x FROM t"); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	e, err := r.ReadEntry()
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if e.TransactionNumber != 7 || e.Statement != "SELECT x FROM t" {
		t.Fatalf("got %+v", e)
	}
}

func TestReaderReadEntryCleanEOF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	e, err := r.ReadEntry()
	if err != nil || e != nil {
		t.Fatalf("expected (nil, nil) on empty file, got (%v, %v)", e, err)
	}
}

func TestReaderReadEntryDetectsChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	var buf bytes.Buffer
	if _, err := WriteTo(&buf, 1, "INSERT INTO t VALUES (1)"); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF
	if err := os.WriteFile(path, corrupted, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	_, err = r.ReadEntry()
	var corruptionErr *errors.WalCorruptionError
	if !isWalCorruption(err, &corruptionErr) {
		t.Fatalf("expected *errors.WalCorruptionError, got %v", err)
	}
}

func TestReaderReadEntryDetectsTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	var buf bytes.Buffer
	if _, err := WriteTo(&buf, 1, "INSERT INTO t VALUES (1)"); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	truncated := buf.Bytes()[:len(buf.Bytes())-2]
	if err := os.WriteFile(path, truncated, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	_, err = r.ReadEntry()
	var corruptionErr *errors.WalCorruptionError
	if !isWalCorruption(err, &corruptionErr) {
		t.Fatalf("expected *errors.WalCorruptionError, got %v", err)
	}
}

func isWalCorruption(err error, target **errors.WalCorruptionError) bool {
	e, ok := err.(*errors.WalCorruptionError)
	if !ok {
		return false
	}
	*target = e
	return true
}
