package ecs

import (
	"reflect"

	"github.com/pellucidar/keel/engine/core"
)

// maxComponentTypes bounds how many distinct component types one world can
// register. The archetype key is a bitmask over these ids.
const maxComponentTypes = 64

// ComponentID is the small integer a component type registers under. It is
// the only type identity the hot path ever touches.
type ComponentID uint8

// Mask is an archetype key: one bit per component type present. Two bundles
// with the same set of component types produce the same mask regardless of
// declaration order.
type Mask uint64

func (m Mask) Has(id ComponentID) bool {
	return m&(1<<uint64(id)) != 0
}

func (m Mask) With(id ComponentID) Mask {
	return m | (1 << uint64(id))
}

// Contains reports whether every bit of other is set in m.
func (m Mask) Contains(other Mask) bool {
	return m&other == other
}

// column is the type-erased growable storage for one component type inside
// one archetype.
type column interface {
	len() int
}

type typedColumn[T any] struct {
	data []T
}

func (c *typedColumn[T]) len() int { return len(c.data) }

// componentRegistry maps component types to dense ids and keeps a factory
// per id so archetypes can materialize an empty typed column for a type they
// have never stored before.
type componentRegistry struct {
	ids       map[reflect.Type]ComponentID
	factories []func() column
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		ids: make(map[reflect.Type]ComponentID),
	}
}

// idFor returns the id for T, registering it on first sight. Reflection runs
// only here; iteration and spawning work on plain integer ids.
func idFor[T any](r *componentRegistry) ComponentID {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if id, ok := r.ids[t]; ok {
		return id
	}
	if len(r.factories) >= maxComponentTypes {
		core.LogFatal("component registry full: cannot register %s (max %d types)", t.Name(), maxComponentTypes)
	}
	id := ComponentID(len(r.factories))
	r.ids[t] = id
	r.factories = append(r.factories, func() column {
		return &typedColumn[T]{}
	})
	return id
}

// columnOf downcasts a type-erased column. A mismatch is an internal
// inconsistency, never a user-facing condition, so it panics.
func columnOf[T any](c column) *typedColumn[T] {
	tc, ok := c.(*typedColumn[T])
	if !ok {
		panic("ecs: column type mismatch, registry and archetype disagree")
	}
	return tc
}
