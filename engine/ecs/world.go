package ecs

import (
	"sort"
)

// Entity is a dense index into the world's entity table.
type Entity uint32

type entityLocation struct {
	archetype *Archetype
	row       int
}

// System is a unit of per-frame logic run by World.Update.
type System interface {
	Update(world *World, deltaTime float64) error
}

// World owns all archetypes, the component registry and the registered
// systems. Entities and components are append-only: there is no deletion or
// archetype migration.
type World struct {
	registry   *componentRegistry
	archetypes map[Mask]*Archetype
	// ordered list for deterministic query iteration
	archetypeList []*Archetype
	entities      []entityLocation
	systems       []System
	// version increments whenever a new archetype appears, so queries know
	// when their match list is stale.
	version uint32
}

func NewWorld() *World {
	return &World{
		registry:   newComponentRegistry(),
		archetypes: make(map[Mask]*Archetype),
	}
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return len(w.entities)
}

// ArchetypeCount returns the number of distinct component-set groups.
func (w *World) ArchetypeCount() int {
	return len(w.archetypeList)
}

func (w *World) AddSystem(s System) {
	w.systems = append(w.systems, s)
}

// Update runs every registered system in registration order. The first error
// stops the frame.
func (w *World) Update(deltaTime float64) error {
	for _, s := range w.systems {
		if err := s.Update(w, deltaTime); err != nil {
			return err
		}
	}
	return nil
}

// getOrCreateArchetype canonicalizes ids (sorted ascending) before building
// columns, so bundle declaration order never affects archetype identity.
func (w *World) getOrCreateArchetype(mask Mask, ids []ComponentID) *Archetype {
	if a, ok := w.archetypes[mask]; ok {
		return a
	}
	sorted := make([]ComponentID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	a := newArchetype(mask, sorted, w.registry)
	w.archetypes[mask] = a
	w.archetypeList = append(w.archetypeList, a)
	w.version++
	return a
}

func (w *World) newEntity(a *Archetype) Entity {
	e := Entity(len(w.entities))
	row := a.addRow(e)
	w.entities = append(w.entities, entityLocation{archetype: a, row: row})
	return e
}

// Spawn1 creates an entity with a single component.
func Spawn1[A any](w *World, a A) Entity {
	idA := idFor[A](w.registry)
	mask := Mask(0).With(idA)
	arch := w.getOrCreateArchetype(mask, []ComponentID{idA})
	e := w.newEntity(arch)
	appendValue(arch, idA, a)
	return e
}

// Spawn2 creates an entity with two components. The bundle's component set,
// not its argument order, decides which archetype stores it.
func Spawn2[A, B any](w *World, a A, b B) Entity {
	idA := idFor[A](w.registry)
	idB := idFor[B](w.registry)
	mask := Mask(0).With(idA).With(idB)
	arch := w.getOrCreateArchetype(mask, []ComponentID{idA, idB})
	e := w.newEntity(arch)
	appendValue(arch, idA, a)
	appendValue(arch, idB, b)
	return e
}

// Spawn3 creates an entity with three components.
func Spawn3[A, B, C any](w *World, a A, b B, c C) Entity {
	idA := idFor[A](w.registry)
	idB := idFor[B](w.registry)
	idC := idFor[C](w.registry)
	mask := Mask(0).With(idA).With(idB).With(idC)
	arch := w.getOrCreateArchetype(mask, []ComponentID{idA, idB, idC})
	e := w.newEntity(arch)
	appendValue(arch, idA, a)
	appendValue(arch, idB, b)
	appendValue(arch, idC, c)
	return e
}

// Spawn4 creates an entity with four components.
func Spawn4[A, B, C, D any](w *World, a A, b B, c C, d D) Entity {
	idA := idFor[A](w.registry)
	idB := idFor[B](w.registry)
	idC := idFor[C](w.registry)
	idD := idFor[D](w.registry)
	mask := Mask(0).With(idA).With(idB).With(idC).With(idD)
	arch := w.getOrCreateArchetype(mask, []ComponentID{idA, idB, idC, idD})
	e := w.newEntity(arch)
	appendValue(arch, idA, a)
	appendValue(arch, idB, b)
	appendValue(arch, idC, c)
	appendValue(arch, idD, d)
	return e
}

func appendValue[T any](a *Archetype, id ComponentID, value T) {
	col := columnOf[T](a.columnFor(id))
	col.data = append(col.data, value)
}

// Get returns a pointer to entity e's component of type T, or nil when the
// entity does not carry one.
func Get[T any](w *World, e Entity) *T {
	if int(e) >= len(w.entities) {
		return nil
	}
	loc := w.entities[e]
	id := idFor[T](w.registry)
	c := loc.archetype.columnFor(id)
	if c == nil {
		return nil
	}
	return &columnOf[T](c).data[loc.row]
}
