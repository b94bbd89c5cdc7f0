package ecs

// Queries resolve which archetypes carry their required component set once,
// cache the typed columns per match, and then iterate rows with no per-row
// type lookups. A query's match list is rebuilt lazily whenever the world
// has grown a new archetype since the last build.

type match1[A any] struct {
	arch *Archetype
	colA *typedColumn[A]
}

// Query1 iterates every entity carrying component A.
type Query1[A any] struct {
	world   *World
	matches []match1[A]
	version uint32
	built   bool
}

func NewQuery1[A any](w *World) *Query1[A] {
	return &Query1[A]{world: w}
}

func (q *Query1[A]) build() {
	if q.built && q.version == q.world.version {
		return
	}
	idA := idFor[A](q.world.registry)
	required := Mask(0).With(idA)
	q.matches = q.matches[:0]
	for _, arch := range q.world.archetypeList {
		if !arch.mask.Contains(required) {
			continue
		}
		q.matches = append(q.matches, match1[A]{
			arch: arch,
			colA: columnOf[A](arch.columnFor(idA)),
		})
	}
	q.version = q.world.version
	q.built = true
}

// Each calls fn once per matching entity row. Pointers stay valid for the
// duration of the call only.
func (q *Query1[A]) Each(fn func(e Entity, a *A)) {
	q.build()
	for _, m := range q.matches {
		for row := range m.arch.entities {
			fn(m.arch.entities[row], &m.colA.data[row])
		}
	}
}

// Count returns the number of entities the query would visit.
func (q *Query1[A]) Count() int {
	q.build()
	n := 0
	for _, m := range q.matches {
		n += m.arch.Len()
	}
	return n
}

type match2[A, B any] struct {
	arch *Archetype
	colA *typedColumn[A]
	colB *typedColumn[B]
}

// Query2 iterates every entity carrying components A and B.
type Query2[A, B any] struct {
	world   *World
	matches []match2[A, B]
	version uint32
	built   bool
}

func NewQuery2[A, B any](w *World) *Query2[A, B] {
	return &Query2[A, B]{world: w}
}

func (q *Query2[A, B]) build() {
	if q.built && q.version == q.world.version {
		return
	}
	idA := idFor[A](q.world.registry)
	idB := idFor[B](q.world.registry)
	required := Mask(0).With(idA).With(idB)
	q.matches = q.matches[:0]
	for _, arch := range q.world.archetypeList {
		if !arch.mask.Contains(required) {
			continue
		}
		q.matches = append(q.matches, match2[A, B]{
			arch: arch,
			colA: columnOf[A](arch.columnFor(idA)),
			colB: columnOf[B](arch.columnFor(idB)),
		})
	}
	q.version = q.world.version
	q.built = true
}

func (q *Query2[A, B]) Each(fn func(e Entity, a *A, b *B)) {
	q.build()
	for _, m := range q.matches {
		for row := range m.arch.entities {
			fn(m.arch.entities[row], &m.colA.data[row], &m.colB.data[row])
		}
	}
}

func (q *Query2[A, B]) Count() int {
	q.build()
	n := 0
	for _, m := range q.matches {
		n += m.arch.Len()
	}
	return n
}

type match3[A, B, C any] struct {
	arch *Archetype
	colA *typedColumn[A]
	colB *typedColumn[B]
	colC *typedColumn[C]
}

// Query3 iterates every entity carrying components A, B and C.
type Query3[A, B, C any] struct {
	world   *World
	matches []match3[A, B, C]
	version uint32
	built   bool
}

func NewQuery3[A, B, C any](w *World) *Query3[A, B, C] {
	return &Query3[A, B, C]{world: w}
}

func (q *Query3[A, B, C]) build() {
	if q.built && q.version == q.world.version {
		return
	}
	idA := idFor[A](q.world.registry)
	idB := idFor[B](q.world.registry)
	idC := idFor[C](q.world.registry)
	required := Mask(0).With(idA).With(idB).With(idC)
	q.matches = q.matches[:0]
	for _, arch := range q.world.archetypeList {
		if !arch.mask.Contains(required) {
			continue
		}
		q.matches = append(q.matches, match3[A, B, C]{
			arch: arch,
			colA: columnOf[A](arch.columnFor(idA)),
			colB: columnOf[B](arch.columnFor(idB)),
			colC: columnOf[C](arch.columnFor(idC)),
		})
	}
	q.version = q.world.version
	q.built = true
}

func (q *Query3[A, B, C]) Each(fn func(e Entity, a *A, b *B, c *C)) {
	q.build()
	for _, m := range q.matches {
		for row := range m.arch.entities {
			fn(m.arch.entities[row], &m.colA.data[row], &m.colB.data[row], &m.colC.data[row])
		}
	}
}

func (q *Query3[A, B, C]) Count() int {
	q.build()
	n := 0
	for _, m := range q.matches {
		n += m.arch.Len()
	}
	return n
}

type match4[A, B, C, D any] struct {
	arch *Archetype
	colA *typedColumn[A]
	colB *typedColumn[B]
	colC *typedColumn[C]
	colD *typedColumn[D]
}

// Query4 iterates every entity carrying components A, B, C and D.
type Query4[A, B, C, D any] struct {
	world   *World
	matches []match4[A, B, C, D]
	version uint32
	built   bool
}

func NewQuery4[A, B, C, D any](w *World) *Query4[A, B, C, D] {
	return &Query4[A, B, C, D]{world: w}
}

func (q *Query4[A, B, C, D]) build() {
	if q.built && q.version == q.world.version {
		return
	}
	idA := idFor[A](q.world.registry)
	idB := idFor[B](q.world.registry)
	idC := idFor[C](q.world.registry)
	idD := idFor[D](q.world.registry)
	required := Mask(0).With(idA).With(idB).With(idC).With(idD)
	q.matches = q.matches[:0]
	for _, arch := range q.world.archetypeList {
		if !arch.mask.Contains(required) {
			continue
		}
		q.matches = append(q.matches, match4[A, B, C, D]{
			arch: arch,
			colA: columnOf[A](arch.columnFor(idA)),
			colB: columnOf[B](arch.columnFor(idB)),
			colC: columnOf[C](arch.columnFor(idC)),
			colD: columnOf[D](arch.columnFor(idD)),
		})
	}
	q.version = q.world.version
	q.built = true
}

func (q *Query4[A, B, C, D]) Each(fn func(e Entity, a *A, b *B, c *C, d *D)) {
	q.build()
	for _, m := range q.matches {
		for row := range m.arch.entities {
			fn(m.arch.entities[row], &m.colA.data[row], &m.colB.data[row], &m.colC.data[row], &m.colD.data[row])
		}
	}
}

func (q *Query4[A, B, C, D]) Count() int {
	q.build()
	n := 0
	for _, m := range q.matches {
		n += m.arch.Len()
	}
	return n
}
