// Package resource implements the engine's two-phase deferred locking
// protocol. A statement first computes the set of resources (tables, the
// type registry) it needs and at what permission (Read or Write), then
// acquires all of them in one step, always in the canonical order — the
// type registry first, then tables ascending by name — so two connections
// racing on overlapping resource sets can never deadlock against each
// other.
package resource

import (
	"sync"

	"github.com/bobboyms/algebraicdb/pkg/types"
)

// RW is a lock permission: either shared (Read) or exclusive (Write).
type RW int

const (
	Read RW = iota
	Write
)

// Max returns the stronger of two permissions; Write dominates Read.
func (rw RW) Max(other RW) RW {
	if rw == Write || other == Write {
		return Write
	}
	return Read
}

// TableReq names a table and the permission a statement needs on it.
type TableReq struct {
	Table string
	RW    RW
}

// Acquire is the full resource request derived from a statement (or a
// whole transaction) before typechecking runs. TableReqs is always kept
// sorted by table name, which is both how AnalyzeAcquire builds it and the
// lock order TakeOnce honors.
type Acquire struct {
	TableReqs   []TableReq
	TypeMapPerm RW
}

// Locker is anything TakeOnce can take a read or write lock on. Tables
// satisfy it via *sync.RWMutex embedding or a thin wrapper; see
// pkg/storage.
type Locker interface {
	sync.Locker
	RLock()
	RUnlock()
}

// Resource is a held lock on a value of type T, either shared or
// exclusive. Get always works; GetMut panics if the resource was only
// acquired for reading — a programming error, not a runtime condition,
// since the statement decided its own permissions up front.
type Resource[T any] struct {
	write bool
	value *T
	lock  Locker
}

func (r *Resource[T]) Get() *T {
	return r.value
}

func (r *Resource[T]) GetMut() *T {
	if !r.write {
		panic("resource: tried to get write access to a read-only resource")
	}
	return r.value
}

func (r *Resource[T]) release() {
	if r.write {
		r.lock.Unlock()
	} else {
		r.lock.RUnlock()
	}
}

// TableEntry is one not-yet-acquired table resource: a named lock plus the
// value it guards, waiting for TakeOnce to actually block on it.
type TableEntry[T any] struct {
	Name string
	RW   RW
	Lock Locker
	Val  *T
}

// Resources is a deferred set of lock requests, already sorted in the
// canonical acquisition order. The type registry is always a
// *types.TypeRegistry — only the per-table value is generic, since every
// caller in this engine ever instantiates T as storage.Table, but keeping
// it a type parameter rather than hardcoding that import here keeps
// pkg/resource independent of pkg/storage. Call TakeOnce exactly once to
// actually acquire every lock and get a Guard back; calling it twice
// indicates a bug in the caller (a statement is only ever executed once)
// and panics.
type Resources[T any] struct {
	dirty       bool
	typeMapPerm RW
	typeMapLock Locker
	typeMap     *types.TypeRegistry
	tables      []TableEntry[T]
}

// NewResources builds a deferred resource set. tables must already be in
// the order locks should be taken (ascending by name, as AnalyzeAcquire
// produces).
func NewResources[T any](typeMapPerm RW, typeMapLock Locker, typeMap *types.TypeRegistry, tables []TableEntry[T]) *Resources[T] {
	return &Resources[T]{
		typeMapPerm: typeMapPerm,
		typeMapLock: typeMapLock,
		typeMap:     typeMap,
		tables:      tables,
	}
}

// Guard holds the actual locks taken by TakeOnce. Call Release when done;
// it releases every lock in reverse acquisition order.
type Guard[T any] struct {
	TypeMap Resource[types.TypeRegistry]
	tables  []namedResource[T]
}

type namedResource[T any] struct {
	name     string
	resource Resource[T]
}

// TakeOnce blocks until every requested lock is held, in canonical order
// (type registry first, then tables ascending by name), and returns a
// Guard over them. Calling TakeOnce a second time on the same Resources
// panics: the two-phase split exists so a caller computes its resource
// needs once and commits to them, not so it can re-acquire.
func (r *Resources[T]) TakeOnce() *Guard[T] {
	if r.dirty {
		panic("resource: TakeOnce called twice on the same Resources")
	}
	r.dirty = true

	g := &Guard[T]{}
	if r.typeMapPerm == Write {
		r.typeMapLock.Lock()
		g.TypeMap = Resource[types.TypeRegistry]{write: true, value: r.typeMap, lock: r.typeMapLock}
	} else {
		r.typeMapLock.RLock()
		g.TypeMap = Resource[types.TypeRegistry]{write: false, value: r.typeMap, lock: r.typeMapLock}
	}

	g.tables = make([]namedResource[T], 0, len(r.tables))
	for _, e := range r.tables {
		var res Resource[T]
		if e.RW == Write {
			e.Lock.Lock()
			res = Resource[T]{write: true, value: e.Val, lock: e.Lock}
		} else {
			e.Lock.RLock()
			res = Resource[T]{write: false, value: e.Val, lock: e.Lock}
		}
		g.tables = append(g.tables, namedResource[T]{name: e.Name, resource: res})
	}

	return g
}

// Release unlocks every held resource, tables first (in reverse
// acquisition order) then the type registry.
func (g *Guard[T]) Release() {
	for i := len(g.tables) - 1; i >= 0; i-- {
		g.tables[i].resource.release()
	}
	g.TypeMap.release()
}

// Table returns the held resource for the named table. Panics if name
// wasn't part of the acquired set — the typechecker already verified
// every referenced table was included, so this indicates a wiring bug.
func (g *Guard[T]) Table(name string) *Resource[T] {
	for i := range g.tables {
		if g.tables[i].name == name {
			return &g.tables[i].resource
		}
	}
	panic("resource: table \"" + name + "\" was not acquired")
}
