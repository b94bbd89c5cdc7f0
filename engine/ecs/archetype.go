package ecs

// Archetype stores every entity sharing one exact set of component types.
// Component values live in per-type columns addressed by a shared row index;
// all columns always have equal length.
type Archetype struct {
	mask     Mask
	entities []Entity
	columns  []column
	// slots maps ComponentID -> index into columns, -1 when absent.
	slots [maxComponentTypes]int16
}

func newArchetype(mask Mask, ids []ComponentID, registry *componentRegistry) *Archetype {
	a := &Archetype{mask: mask}
	for i := range a.slots {
		a.slots[i] = -1
	}
	for _, id := range ids {
		a.slots[id] = int16(len(a.columns))
		a.columns = append(a.columns, registry.factories[id]())
	}
	return a
}

// Mask returns the archetype's component-set key.
func (a *Archetype) Mask() Mask {
	return a.mask
}

// Len returns the number of entity rows stored.
func (a *Archetype) Len() int {
	return len(a.entities)
}

// columnFor returns the type-erased column holding id, or nil when the
// archetype does not store that component type.
func (a *Archetype) columnFor(id ComponentID) column {
	slot := a.slots[id]
	if slot < 0 {
		return nil
	}
	return a.columns[slot]
}

// addRow appends the entity and returns the new row index. The caller must
// append one value to every column before touching the archetype again.
func (a *Archetype) addRow(e Entity) int {
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}
