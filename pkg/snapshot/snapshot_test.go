package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bobboyms/algebraicdb/pkg/snapshot"
	"github.com/bobboyms/algebraicdb/pkg/storage"
	"github.com/bobboyms/algebraicdb/pkg/types"
)

func TestManagerLoadOnEmptyBaseDirIsFresh(t *testing.T) {
	mgr := snapshot.NewManager(filepath.Join(t.TempDir(), "snapshots"))

	tn, reg, tables, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tn != 0 {
		t.Errorf("tn = %d, want 0", tn)
	}
	if reg == nil || tables == nil {
		t.Fatal("Load should return a fresh registry and table set, not nil")
	}
	if len(tables.Names()) != 0 {
		t.Errorf("fresh table set should be empty, got %v", tables.Names())
	}
}

func TestManagerSaveAndLoadRoundTrips(t *testing.T) {
	mgr := snapshot.NewManager(filepath.Join(t.TempDir(), "snapshots"))

	reg := types.NewTypeRegistry()
	intId, _ := reg.GetId("Integer")
	if _, err := reg.Insert("Flag", types.Bool()); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	tables := storage.NewTableSet()
	schema := storage.NewSchema([]storage.Column{{Name: "x", TypeId: intId}}, reg)
	if err := tables.Create("t", schema); err != nil {
		t.Fatalf("Create: %v", err)
	}
	tbl, err := tables.Get("t")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	tbl.PushRow(make([]byte, schema.RowSize()))

	if err := mgr.Save(42, reg, tables); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tn, reg2, tables2, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tn != 42 {
		t.Errorf("tn = %d, want 42", tn)
	}
	if _, ok := reg2.GetId("Flag"); !ok {
		t.Error("loaded registry is missing the inserted type")
	}
	loaded, err := tables2.Get("t")
	if err != nil {
		t.Fatalf("Get on loaded table set: %v", err)
	}
	if loaded.RowCount() != 1 {
		t.Errorf("loaded table has %d rows, want 1", loaded.RowCount())
	}
}

func TestManagerSavePublishesPointerFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "snapshots")
	mgr := snapshot.NewManager(base)
	reg := types.NewTypeRegistry()
	tables := storage.NewTableSet()

	if err := mgr.Save(42, reg, tables); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(base, "tnum"))
	if err != nil {
		t.Fatalf("reading tnum: %v", err)
	}
	if string(data) != "42" {
		t.Fatalf("tnum contents = %q, want %q", string(data), "42")
	}
}

func TestManagerSaveKeepsOnlyRecentSnapshots(t *testing.T) {
	base := filepath.Join(t.TempDir(), "snapshots")
	mgr := snapshot.NewManager(base)
	reg := types.NewTypeRegistry()
	tables := storage.NewTableSet()

	for tn := uint64(1); tn <= 5; tn++ {
		if err := mgr.Save(tn, reg, tables); err != nil {
			t.Fatalf("Save(%d): %v", tn, err)
		}
	}

	tn, _, _, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tn != 5 {
		t.Fatalf("Load returned tn=%d, want the most recent snapshot (5)", tn)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("reading base dir: %v", err)
	}
	dirs := 0
	for _, e := range entries {
		if e.IsDir() {
			dirs++
		}
	}
	if dirs != 2 {
		t.Fatalf("found %d snapshot directories after 5 saves, want 2", dirs)
	}
}
