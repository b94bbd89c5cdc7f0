package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct {
	X, Y, Z float32
}

type velocity struct {
	X, Y, Z float32
}

type health struct {
	Current int
}

type tag struct{}

func TestSpawnAndGet(t *testing.T) {
	w := NewWorld()

	e := Spawn2(w, position{X: 1, Y: 2, Z: 3}, velocity{X: 4})
	require.Equal(t, 1, w.EntityCount())

	p := Get[position](w, e)
	require.NotNil(t, p)
	assert.Equal(t, float32(1), p.X)
	assert.Equal(t, float32(3), p.Z)

	v := Get[velocity](w, e)
	require.NotNil(t, v)
	assert.Equal(t, float32(4), v.X)

	// component the entity does not carry
	assert.Nil(t, Get[health](w, e))
}

func TestArchetypeIdentityIgnoresBundleOrder(t *testing.T) {
	w := NewWorld()

	Spawn2(w, position{}, velocity{})
	Spawn2(w, velocity{}, position{})
	assert.Equal(t, 1, w.ArchetypeCount(), "same component set must share one archetype")

	Spawn3(w, position{}, velocity{}, health{})
	assert.Equal(t, 2, w.ArchetypeCount(), "different component set must get its own archetype")

	Spawn3(w, health{}, position{}, velocity{})
	assert.Equal(t, 2, w.ArchetypeCount())
}

func TestQueryCompleteness(t *testing.T) {
	w := NewWorld()

	// rows spread over three archetypes; two are supersets of {position}
	Spawn1(w, position{X: 1})
	Spawn2(w, position{X: 2}, velocity{})
	Spawn3(w, position{X: 3}, velocity{}, health{Current: 10})
	Spawn1(w, health{Current: 5})

	q := NewQuery1[position](w)
	seen := map[float32]int{}
	q.Each(func(e Entity, p *position) {
		seen[p.X]++
	})
	assert.Equal(t, map[float32]int{1: 1, 2: 1, 3: 1}, seen, "every superset row exactly once")
	assert.Equal(t, 3, q.Count())

	q2 := NewQuery2[position, velocity](w)
	assert.Equal(t, 2, q2.Count(), "archetypes missing a required type are excluded")
}

func TestQuerySeesArchetypesCreatedAfterBuild(t *testing.T) {
	w := NewWorld()
	Spawn1(w, position{X: 1})

	q := NewQuery1[position](w)
	assert.Equal(t, 1, q.Count())

	// a brand new archetype appears after the first build
	Spawn2(w, position{X: 2}, health{})
	assert.Equal(t, 2, q.Count(), "match list must refresh when the world grows")
}

func TestQueryMutationIsVisible(t *testing.T) {
	w := NewWorld()
	e := Spawn2(w, position{}, velocity{X: 1, Y: 2, Z: 3})

	q := NewQuery2[position, velocity](w)
	q.Each(func(_ Entity, p *position, v *velocity) {
		p.X += v.X
		p.Y += v.Y
		p.Z += v.Z
	})

	p := Get[position](w, e)
	assert.Equal(t, position{X: 1, Y: 2, Z: 3}, *p)
}

func TestUnregisteredTypeYieldsEmptyIteration(t *testing.T) {
	w := NewWorld()
	Spawn1(w, position{})

	type neverStored struct{ A int }
	q := NewQuery1[neverStored](w)
	assert.Zero(t, q.Count())
	q.Each(func(Entity, *neverStored) {
		t.Fatal("must not visit any row")
	})
}

type countingSystem struct {
	calls int
	dts   []float64
}

func (s *countingSystem) Update(w *World, dt float64) error {
	s.calls++
	s.dts = append(s.dts, dt)
	return nil
}

func TestWorldUpdateRunsSystems(t *testing.T) {
	w := NewWorld()
	s1 := &countingSystem{}
	s2 := &countingSystem{}
	w.AddSystem(s1)
	w.AddSystem(s2)

	require.NoError(t, w.Update(0.016))
	assert.Equal(t, 1, s1.calls)
	assert.Equal(t, 1, s2.calls)
	assert.Equal(t, []float64{0.016}, s2.dts)
}

func TestZeroSizedComponents(t *testing.T) {
	w := NewWorld()
	Spawn2(w, position{X: 7}, tag{})

	q := NewQuery2[position, tag](w)
	visited := 0
	q.Each(func(_ Entity, p *position, _ *tag) {
		visited++
		assert.Equal(t, float32(7), p.X)
	})
	assert.Equal(t, 1, visited)
}
