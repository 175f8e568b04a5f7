package storage_test

import (
	"testing"

	"github.com/bobboyms/algebraicdb/pkg/errors"
	"github.com/bobboyms/algebraicdb/pkg/storage"
	"github.com/bobboyms/algebraicdb/pkg/types"
)

func testSchema(t *testing.T) storage.Schema {
	t.Helper()
	reg := types.NewTypeRegistry()
	intId, _ := reg.GetId("Integer")
	charId, _ := reg.GetId("Char")
	return storage.NewSchema([]storage.Column{
		{Name: "id", TypeId: intId},
		{Name: "name", TypeId: charId},
	}, reg)
}

func TestSchemaOffsetsAndRowSize(t *testing.T) {
	schema := testSchema(t)
	if schema.Offset(0) != 0 {
		t.Errorf("first column offset = %d, want 0", schema.Offset(0))
	}
	if schema.RowSize() <= schema.Offset(1) {
		t.Errorf("row size %d should exceed second column's offset %d", schema.RowSize(), schema.Offset(1))
	}
}

func TestSchemaIndexOf(t *testing.T) {
	schema := testSchema(t)
	i, ok := schema.IndexOf("name")
	if !ok || i != 1 {
		t.Fatalf("IndexOf(name) = (%d, %v), want (1, true)", i, ok)
	}
	if _, ok := schema.IndexOf("missing"); ok {
		t.Fatal("IndexOf(missing) should report not found")
	}
}

func TestTablePushRowAndRowCount(t *testing.T) {
	schema := testSchema(t)
	tbl := storage.NewTable("users", schema)

	row := make([]byte, schema.RowSize())
	tbl.PushRow(row)
	tbl.PushRow(row)

	if got := tbl.RowCount(); got != 2 {
		t.Fatalf("RowCount() = %d, want 2", got)
	}
}

func TestTablePushRowWrongWidthPanics(t *testing.T) {
	schema := testSchema(t)
	tbl := storage.NewTable("users", schema)

	defer func() {
		if recover() == nil {
			t.Fatal("PushRow with a short row should panic")
		}
	}()
	tbl.PushRow(make([]byte, schema.RowSize()-1))
}

func TestTableDeleteWhereKeepsMatchingRows(t *testing.T) {
	schema := testSchema(t)
	tbl := storage.NewTable("users", schema)

	rowSize := schema.RowSize()
	for i := 0; i < 3; i++ {
		row := make([]byte, rowSize)
		row[0] = byte(i)
		tbl.PushRow(row)
	}

	removed := tbl.DeleteWhere(func(row []byte) bool {
		return row[0] != 1
	})
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if tbl.RowCount() != 2 {
		t.Fatalf("RowCount() after delete = %d, want 2", tbl.RowCount())
	}
}

func TestTableSetCreateAndGet(t *testing.T) {
	schema := testSchema(t)
	ts := storage.NewTableSet()

	if err := ts.Create("users", schema); err != nil {
		t.Fatalf("Create: %v", err)
	}
	tbl, err := ts.Get("users")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tbl.Name != "users" {
		t.Fatalf("got table named %q, want users", tbl.Name)
	}
}

func TestTableSetCreateDuplicateFails(t *testing.T) {
	schema := testSchema(t)
	ts := storage.NewTableSet()
	if err := ts.Create("users", schema); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := ts.Create("users", schema)
	if _, ok := err.(*errors.TableAlreadyExistsError); !ok {
		t.Fatalf("got %v, want *errors.TableAlreadyExistsError", err)
	}
}

func TestTableSetGetMissingFails(t *testing.T) {
	ts := storage.NewTableSet()
	_, err := ts.Get("missing")
	if _, ok := err.(*errors.TableNotFoundError); !ok {
		t.Fatalf("got %v, want *errors.TableNotFoundError", err)
	}
}

func TestTableSetDrop(t *testing.T) {
	schema := testSchema(t)
	ts := storage.NewTableSet()
	ts.Create("users", schema)

	if err := ts.Drop("users"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, err := ts.Get("users"); err == nil {
		t.Fatal("Get should fail after Drop")
	}
}

func TestTableSetDropMissingFails(t *testing.T) {
	ts := storage.NewTableSet()
	err := ts.Drop("missing")
	if _, ok := err.(*errors.TableNotFoundError); !ok {
		t.Fatalf("got %v, want *errors.TableNotFoundError", err)
	}
}

func TestTableSetRestoreRejectsDuplicateName(t *testing.T) {
	schema := testSchema(t)
	ts := storage.NewTableSet()
	ts.Create("users", schema)

	err := ts.Restore(storage.NewTable("users", schema))
	if _, ok := err.(*errors.TableAlreadyExistsError); !ok {
		t.Fatalf("got %v, want *errors.TableAlreadyExistsError", err)
	}
}

func TestTableSetNames(t *testing.T) {
	schema := testSchema(t)
	ts := storage.NewTableSet()
	ts.Create("users", schema)
	ts.Create("accounts", schema)

	names := ts.Names()
	if len(names) != 2 {
		t.Fatalf("Names() returned %d names, want 2", len(names))
	}
}
