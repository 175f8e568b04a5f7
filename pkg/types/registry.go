package types

import (
	"sync"

	"github.com/bobboyms/algebraicdb/pkg/errors"
)

type registryEntry struct {
	name string
	typ  Type
}

// TypeRegistry maps type names to TypeIds and back, and stores every
// registered Type's definition. It grows monotonically: types are never
// removed, so a TypeId handed out once stays valid for the registry's
// lifetime. Reads and writes are protected by a single RWMutex; unlike the
// per-table data it is small and short-held, so there is no need for
// anything finer-grained.
type TypeRegistry struct {
	mu      sync.RWMutex
	byName  map[string]TypeId
	entries []registryEntry
}

// NewTypeRegistry returns a registry pre-populated with the four base
// scalar types at their fixed ids (CharTypeId..BoolTypeId).
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{
		byName: make(map[string]TypeId, 8),
	}
	r.bootstrap("Char", Char())
	r.bootstrap("Integer", Integer())
	r.bootstrap("Double", Double())
	r.bootstrap("Bool", Bool())
	return r
}

func (r *TypeRegistry) bootstrap(name string, t Type) {
	id := TypeId(len(r.entries))
	r.entries = append(r.entries, registryEntry{name: name, typ: t})
	r.byName[name] = id
}

// Insert registers a new named type, failing if the name is already taken.
func (r *TypeRegistry) Insert(name string, t Type) (TypeId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return 0, &errors.AlreadyExistsError{Kind: "type", Name: name}
	}

	id := TypeId(len(r.entries))
	r.entries = append(r.entries, registryEntry{name: name, typ: t})
	r.byName[name] = id
	return id, nil
}

// GetId looks up a type's id by name. Lookups are case-sensitive.
func (r *TypeRegistry) GetId(name string) (TypeId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// GetById resolves a TypeId to its definition.
func (r *TypeRegistry) GetById(id TypeId) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.entries) {
		return Type{}, false
	}
	return r.entries[id].typ, true
}

// NameOf returns the name a type was registered under.
func (r *TypeRegistry) NameOf(id TypeId) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.entries) {
		return "", false
	}
	return r.entries[id].name, true
}

// SizeOf returns the fixed byte footprint of values of the given type.
func (r *TypeRegistry) SizeOf(id TypeId) int {
	t, ok := r.GetById(id)
	if !ok {
		panic("types: SizeOf of unknown TypeId")
	}
	return t.SizeOf(r)
}

// Snapshot returns a point-in-time, order-preserving copy of every
// registered (name, Type) pair, used by pkg/snapshot to persist the
// registry; RestoreRegistry rebuilds one from such a list on load.
func (r *TypeRegistry) Snapshot() []NamedType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NamedType, len(r.entries))
	for i, e := range r.entries {
		out[i] = NamedType{Name: e.name, Type: e.typ}
	}
	return out
}

// NamedType pairs a type with the name it was registered under. Used only
// for serialization; the registry itself never exposes ids out of order.
type NamedType struct {
	Name string
	Type Type
}

// RestoreRegistry rebuilds a TypeRegistry from an ordered snapshot, exactly
// as produced by Snapshot: entry i gets TypeId(i). The first four entries
// must be the base scalars in the order NewTypeRegistry bootstraps them.
func RestoreRegistry(entries []NamedType) *TypeRegistry {
	r := &TypeRegistry{byName: make(map[string]TypeId, len(entries))}
	for _, e := range entries {
		id := TypeId(len(r.entries))
		r.entries = append(r.entries, registryEntry{name: e.Name, typ: e.Type})
		r.byName[e.Name] = id
	}
	return r
}
