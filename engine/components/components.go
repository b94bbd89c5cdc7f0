// Package components defines the component types the engine's built-in
// systems and the render-data collector understand.
package components

import (
	"github.com/pellucidar/keel/engine/assets"
	"github.com/pellucidar/keel/engine/materials"
	"github.com/pellucidar/keel/engine/math"
)

// Transform places an entity in the world.
type Transform struct {
	Transform math.Transform
}

func NewTransform() Transform {
	return Transform{Transform: math.NewTransform()}
}

// Mesh attaches renderable geometry and its material to an entity.
type Mesh struct {
	MeshHandle     assets.MeshHandle
	MaterialHandle materials.MaterialHandle
}

// Camera marks an entity as a viewpoint. The collector picks the first
// active camera it finds.
type Camera struct {
	Active bool
	FovY   float32 // degrees
	Near   float32
	Far    float32
}

func NewCamera() Camera {
	return Camera{Active: true, FovY: 70, Near: 0.1, Far: 1000}
}

// DirectionalLight is the single sun-style light driving the shadow cascades
// and the lighting composite. Pitch and yaw are in radians.
type DirectionalLight struct {
	Pitch   float32
	Yaw     float32
	Color   math.Vec3
	Ambient math.Vec3
}

func NewDirectionalLight() DirectionalLight {
	return DirectionalLight{
		Pitch:   math.DegToRad(-50),
		Yaw:     math.DegToRad(30),
		Color:   math.NewVec3(1, 1, 1),
		Ambient: math.NewVec3(0.1, 0.1, 0.1),
	}
}
