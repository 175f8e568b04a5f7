package storage

import (
	"sync"

	"github.com/bobboyms/algebraicdb/pkg/errors"
)

// Table holds one table's schema and row data. Rows are packed
// back-to-back in Data as fixed-width records; there is no free list or
// tombstone bitmap, since nothing in this engine deletes a single row in
// place — DELETE rewrites the whole buffer excluding matched rows, under
// the table's write lock. Embedding sync.RWMutex lets a *Table satisfy
// resource.Locker directly.
type Table struct {
	sync.RWMutex

	Name   string
	Schema Schema
	Data   []byte
}

// NewTable allocates an empty table for the given schema.
func NewTable(name string, schema Schema) *Table {
	return &Table{Name: name, Schema: schema}
}

// RowCount reports how many rows are currently stored. Caller must hold at
// least a read lock.
func (t *Table) RowCount() int {
	rowSize := t.Schema.RowSize()
	if rowSize == 0 {
		return 0
	}
	return len(t.Data) / rowSize
}

// Row returns the raw bytes of row i. Caller must hold at least a read
// lock, and the returned slice aliases Table.Data — it must not be
// retained past the lock being released.
func (t *Table) Row(i int) []byte {
	rowSize := t.Schema.RowSize()
	start := i * rowSize
	return t.Data[start : start+rowSize]
}

// PushRow appends one already-serialized row. Caller must hold the write
// lock, and row must be exactly Schema.RowSize() bytes.
func (t *Table) PushRow(row []byte) {
	if len(row) != t.Schema.RowSize() {
		panic("storage: PushRow given a row of the wrong width")
	}
	t.Data = append(t.Data, row...)
}

// DeleteWhere rewrites Data in place, keeping only rows for which keep
// returns true. Caller must hold the write lock. Returns the number of
// rows removed.
func (t *Table) DeleteWhere(keep func(row []byte) bool) int {
	rowSize := t.Schema.RowSize()
	if rowSize == 0 {
		return 0
	}
	n := t.RowCount()
	out := make([]byte, 0, len(t.Data))
	removed := 0
	for i := 0; i < n; i++ {
		row := t.Data[i*rowSize : (i+1)*rowSize]
		if keep(row) {
			out = append(out, row...)
		} else {
			removed++
		}
	}
	t.Data = out
	return removed
}

// TableSet is the directory of every table in the database, guarded by
// its own mutex distinct from any individual table's lock and from the
// type registry's lock. It is held only for the brief duration of adding
// or removing a directory entry — never while rows are being read or
// written — analogous to how the system this was distilled from serialized
// table creation through a single owning actor rather than a shared lock.
type TableSet struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewTableSet() *TableSet {
	return &TableSet{tables: make(map[string]*Table)}
}

// Create registers a new, empty table. Fails if the name is taken.
func (ts *TableSet) Create(name string, schema Schema) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.tables[name]; exists {
		return &errors.TableAlreadyExistsError{Name: name}
	}
	ts.tables[name] = NewTable(name, schema)
	return nil
}

// Drop removes a table from the directory entirely.
func (ts *TableSet) Drop(name string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.tables[name]; !exists {
		return &errors.TableNotFoundError{Name: name}
	}
	delete(ts.tables, name)
	return nil
}

// Get looks up a table by name without acquiring its row lock — callers
// still need to take the table's own RWMutex (normally via
// pkg/resource.Resources) before reading or writing Data.
func (ts *TableSet) Get(name string) (*Table, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.tables[name]
	if !ok {
		return nil, &errors.TableNotFoundError{Name: name}
	}
	return t, nil
}

// Restore inserts an already-built table into the directory, used only
// during snapshot load where the row data and schema are read from disk
// rather than built up through Create+PushRow. Fails if the name is taken.
func (ts *TableSet) Restore(t *Table) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.tables[t.Name]; exists {
		return &errors.TableAlreadyExistsError{Name: t.Name}
	}
	ts.tables[t.Name] = t
	return nil
}

// Names returns every registered table name, for snapshotting.
func (ts *TableSet) Names() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	names := make([]string, 0, len(ts.tables))
	for name := range ts.tables {
		names = append(names, name)
	}
	return names
}
