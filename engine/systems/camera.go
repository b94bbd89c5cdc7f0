// Package systems holds the engine's built-in ECS systems.
package systems

import (
	"github.com/pellucidar/keel/engine/components"
	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/ecs"
	"github.com/pellucidar/keel/engine/math"
)

// pitchLimit keeps the spectator camera short of straight up/down to avoid
// gimbal lock. 89 degrees.
const pitchLimit = float32(1.55334306)

// SpectatorCamera flies the active camera with WASD, Space/C for vertical
// movement and the right mouse button plus mouse motion to look around.
type SpectatorCamera struct {
	MoveSpeed   float32
	SprintSpeed float32
	LookSpeed   float32

	query *ecs.Query2[components.Transform, components.Camera]
}

func NewSpectatorCamera(world *ecs.World) *SpectatorCamera {
	return &SpectatorCamera{
		MoveSpeed:   5,
		SprintSpeed: 20,
		LookSpeed:   0.003,
		query:       ecs.NewQuery2[components.Transform, components.Camera](world),
	}
}

func (s *SpectatorCamera) Update(world *ecs.World, deltaTime float64) error {
	dx, dy := int32(0), int32(0)
	if core.InputIsButtonDown(core.BUTTON_RIGHT) {
		dx, dy = core.InputMouseDelta()
	}

	s.query.Each(func(_ ecs.Entity, t *components.Transform, c *components.Camera) {
		if !c.Active {
			return
		}
		s.look(t, dx, dy)
		s.move(t, float32(deltaTime))
	})
	return nil
}

func (s *SpectatorCamera) look(t *components.Transform, dx, dy int32) {
	if dx == 0 && dy == 0 {
		return
	}
	t.Transform.Rotation.Y -= float32(dx) * s.LookSpeed
	t.Transform.Rotation.X -= float32(dy) * s.LookSpeed
	t.Transform.Rotation.X = math.Clamp(t.Transform.Rotation.X, -pitchLimit, pitchLimit)
}

func (s *SpectatorCamera) move(t *components.Transform, deltaTime float32) {
	world := t.Transform.Matrix()
	forward := world.Forward()
	right := world.Right()
	up := math.NewVec3Up()

	direction := math.NewVec3Zero()
	if core.InputIsKeyDown(core.KEY_W) {
		direction = direction.Add(forward)
	}
	if core.InputIsKeyDown(core.KEY_S) {
		direction = direction.Sub(forward)
	}
	if core.InputIsKeyDown(core.KEY_D) {
		direction = direction.Add(right)
	}
	if core.InputIsKeyDown(core.KEY_A) {
		direction = direction.Sub(right)
	}
	if core.InputIsKeyDown(core.KEY_SPACE) {
		direction = direction.Add(up)
	}
	if core.InputIsKeyDown(core.KEY_C) {
		direction = direction.Sub(up)
	}
	if direction.LengthSquared() == 0 {
		return
	}

	speed := s.MoveSpeed
	if core.InputIsKeyDown(core.KEY_LSHIFT) {
		speed = s.SprintSpeed
	}
	t.Transform.Location = t.Transform.Location.Add(direction.Normalized().MulScalar(speed * deltaTime))
}
