package renderer

import (
	"github.com/pellucidar/keel/engine/assets"
	"github.com/pellucidar/keel/engine/components"
	"github.com/pellucidar/keel/engine/ecs"
	"github.com/pellucidar/keel/engine/materials"
	"github.com/pellucidar/keel/engine/math"
)

// CameraData is the camera state a frame renders with. Projection already
// carries the Vulkan Y flip.
type CameraData struct {
	View       math.Mat4
	Projection math.Mat4
	Position   math.Vec3
	NearClip   float32
	FarClip    float32
}

// ViewProjection is the combined camera matrix.
func (c CameraData) ViewProjection() math.Mat4 {
	return c.Projection.Mul(c.View)
}

// LightData is the directional light driving the shadow cascades and the
// lighting composite.
type LightData struct {
	Direction math.Vec3
	Color     math.Vec3
	Ambient   math.Vec3
}

// MeshDraw is one renderable gathered from the world: which mesh, which
// material, where.
type MeshDraw struct {
	Mesh      assets.MeshHandle
	Material  materials.MaterialHandle
	Transform math.Mat4
}

// RenderData is everything a frame needs, detached from the ECS so the
// renderer never touches world storage mid-frame.
type RenderData struct {
	Camera    CameraData
	HasCamera bool
	Light     LightData
	HasLight  bool
	Meshes    []MeshDraw
}

// RenderDataCollector pulls renderables, the active camera and the sun out
// of the world each frame.
type RenderDataCollector struct {
	meshQuery   *ecs.Query2[components.Transform, components.Mesh]
	cameraQuery *ecs.Query2[components.Transform, components.Camera]
	lightQuery  *ecs.Query1[components.DirectionalLight]
}

func NewRenderDataCollector(world *ecs.World) *RenderDataCollector {
	return &RenderDataCollector{
		meshQuery:   ecs.NewQuery2[components.Transform, components.Mesh](world),
		cameraQuery: ecs.NewQuery2[components.Transform, components.Camera](world),
		lightQuery:  ecs.NewQuery1[components.DirectionalLight](world),
	}
}

// Collect builds the frame's RenderData. The first active camera wins; a
// frame without a camera or without any light still collects meshes so the
// caller can decide to skip drawing.
func (rc *RenderDataCollector) Collect(aspectRatio float32) RenderData {
	out := RenderData{}

	rc.meshQuery.Each(func(_ ecs.Entity, t *components.Transform, m *components.Mesh) {
		out.Meshes = append(out.Meshes, MeshDraw{
			Mesh:      m.MeshHandle,
			Material:  m.MaterialHandle,
			Transform: t.Transform.Matrix(),
		})
	})

	rc.cameraQuery.Each(func(_ ecs.Entity, t *components.Transform, c *components.Camera) {
		if out.HasCamera || !c.Active {
			return
		}
		projection := math.NewMat4Perspective(math.DegToRad(c.FovY), aspectRatio, c.Near, c.Far)
		// Vulkan's clip space points Y down; flip here so the rest of the
		// engine stays Y-up.
		projection.Data[5] *= -1

		world := t.Transform.Matrix()
		out.Camera = CameraData{
			View:       world.Inverse(),
			Projection: projection,
			Position:   t.Transform.Location,
			NearClip:   c.Near,
			FarClip:    c.Far,
		}
		out.HasCamera = true
	})

	rc.lightQuery.Each(func(_ ecs.Entity, l *components.DirectionalLight) {
		if out.HasLight {
			return
		}
		out.Light = LightData{
			Direction: lightDirection(l.Pitch, l.Yaw),
			Color:     l.Color,
			Ambient:   l.Ambient,
		}
		out.HasLight = true
	})

	return out
}

// lightDirection turns sun pitch/yaw into a world-space direction the light
// travels in.
func lightDirection(pitch, yaw float32) math.Vec3 {
	rotation := math.NewMat4EulerY(yaw).Mul(math.NewMat4EulerX(pitch))
	return rotation.Forward().Normalized()
}
