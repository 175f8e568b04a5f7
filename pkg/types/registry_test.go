package types_test

import (
	"testing"

	"github.com/bobboyms/algebraicdb/pkg/types"
)

func TestNewTypeRegistryBootstrapsBaseScalars(t *testing.T) {
	reg := types.NewTypeRegistry()
	for _, name := range []string{"Char", "Integer", "Double", "Bool"} {
		if _, ok := reg.GetId(name); !ok {
			t.Errorf("base type %q missing from a fresh registry", name)
		}
	}
}

func TestInsertRejectsDuplicateName(t *testing.T) {
	reg := types.NewTypeRegistry()
	if _, err := reg.Insert("Flag", types.Bool()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := reg.Insert("Flag", types.Bool()); err == nil {
		t.Fatal("Insert should reject a name already taken")
	}
}

func TestInsertAssignsIncreasingIds(t *testing.T) {
	reg := types.NewTypeRegistry()
	id1, err := reg.Insert("A", types.Integer())
	if err != nil {
		t.Fatalf("Insert A: %v", err)
	}
	id2, err := reg.Insert("B", types.Integer())
	if err != nil {
		t.Fatalf("Insert B: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("ids should increase: got %d then %d", id1, id2)
	}
}

func TestNameOfAndGetByIdRoundTrip(t *testing.T) {
	reg := types.NewTypeRegistry()
	id, err := reg.Insert("Flag", types.Bool())
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	name, ok := reg.NameOf(id)
	if !ok || name != "Flag" {
		t.Fatalf("NameOf(%d) = (%q, %v), want (\"Flag\", true)", id, name, ok)
	}
	typ, ok := reg.GetById(id)
	if !ok || typ.Kind != types.KindBool {
		t.Fatalf("GetById(%d) = (%+v, %v)", id, typ, ok)
	}
}

func TestSnapshotAndRestoreRegistryRoundTrips(t *testing.T) {
	reg := types.NewTypeRegistry()
	if _, err := reg.Insert("Flag", types.Bool()); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	snap := reg.Snapshot()
	restored := types.RestoreRegistry(snap)

	origId, _ := reg.GetId("Flag")
	restoredId, ok := restored.GetId("Flag")
	if !ok || restoredId != origId {
		t.Fatalf("restored id = (%d, %v), want (%d, true)", restoredId, ok, origId)
	}
}

func TestSizeOfUnknownTypeIdPanics(t *testing.T) {
	reg := types.NewTypeRegistry()
	defer func() {
		if recover() == nil {
			t.Fatal("SizeOf on an unknown TypeId should panic")
		}
	}()
	reg.SizeOf(types.TypeId(999))
}
