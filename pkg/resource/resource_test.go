package resource_test

import (
	"sync"
	"testing"

	"github.com/bobboyms/algebraicdb/pkg/resource"
	"github.com/bobboyms/algebraicdb/pkg/types"
)

func TestTakeOnceGrantsReadAndWriteAccess(t *testing.T) {
	reg := types.NewTypeRegistry()
	var typeMapLock sync.RWMutex
	var aLock, bLock sync.RWMutex
	a, b := 1, 2

	entries := []resource.TableEntry[int]{
		{Name: "a", RW: resource.Read, Lock: &aLock, Val: &a},
		{Name: "b", RW: resource.Write, Lock: &bLock, Val: &b},
	}
	res := resource.NewResources(resource.Read, &typeMapLock, reg, entries)
	guard := res.TakeOnce()
	defer guard.Release()

	if *guard.Table("a").Get() != 1 {
		t.Errorf("table a = %d, want 1", *guard.Table("a").Get())
	}
	*guard.Table("b").GetMut() = 42
	if *guard.Table("b").Get() != 42 {
		t.Errorf("table b = %d, want 42", *guard.Table("b").Get())
	}
}

func TestGetMutPanicsOnReadOnlyResource(t *testing.T) {
	reg := types.NewTypeRegistry()
	var typeMapLock sync.RWMutex
	var aLock sync.RWMutex
	a := 1

	entries := []resource.TableEntry[int]{
		{Name: "a", RW: resource.Read, Lock: &aLock, Val: &a},
	}
	res := resource.NewResources(resource.Read, &typeMapLock, reg, entries)
	guard := res.TakeOnce()
	defer guard.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("GetMut on a read-only resource should panic")
		}
	}()
	guard.Table("a").GetMut()
}

func TestTakeOnceTwicePanics(t *testing.T) {
	reg := types.NewTypeRegistry()
	var typeMapLock sync.RWMutex
	res := resource.NewResources[int](resource.Read, &typeMapLock, reg, nil)
	guard := res.TakeOnce()
	defer guard.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("calling TakeOnce twice should panic")
		}
	}()
	res.TakeOnce()
}

func TestTableLookupPanicsWhenNotAcquired(t *testing.T) {
	reg := types.NewTypeRegistry()
	var typeMapLock sync.RWMutex
	res := resource.NewResources[int](resource.Read, &typeMapLock, reg, nil)
	guard := res.TakeOnce()
	defer guard.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("Table lookup on an unacquired name should panic")
		}
	}()
	guard.Table("missing")
}

func TestRWMax(t *testing.T) {
	if resource.Read.Max(resource.Write) != resource.Write {
		t.Error("Max(Read, Write) should be Write")
	}
	if resource.Write.Max(resource.Read) != resource.Write {
		t.Error("Max(Write, Read) should be Write")
	}
	if resource.Read.Max(resource.Read) != resource.Read {
		t.Error("Max(Read, Read) should be Read")
	}
}
