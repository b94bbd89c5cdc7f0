package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucidar/keel/engine/assets"
	"github.com/pellucidar/keel/engine/components"
	"github.com/pellucidar/keel/engine/ecs"
	"github.com/pellucidar/keel/engine/materials"
	"github.com/pellucidar/keel/engine/math"
)

func TestCollectorGathersScene(t *testing.T) {
	world := ecs.NewWorld()
	collector := NewRenderDataCollector(world)

	cameraTransform := components.NewTransform()
	cameraTransform.Transform.Location = math.NewVec3(0, 2, 5)
	ecs.Spawn2(world, cameraTransform, components.NewCamera())

	ecs.Spawn1(world, components.NewDirectionalLight())

	meshTransform := components.NewTransform()
	meshTransform.Transform.Location = math.NewVec3(1, 0, -3)
	ecs.Spawn2(world, meshTransform, components.Mesh{
		MeshHandle:     assets.MeshHandle(3),
		MaterialHandle: materials.MaterialHandle(1),
	})

	data := collector.Collect(16.0 / 9.0)

	require.True(t, data.HasCamera)
	require.True(t, data.HasLight)
	require.Len(t, data.Meshes, 1)

	assert.EqualValues(t, 3, data.Meshes[0].Mesh)
	assert.EqualValues(t, 1, data.Meshes[0].Material)
	// Column-major translation column of the model matrix.
	assert.InDelta(t, 1, data.Meshes[0].Transform.Data[12], 1e-6)
	assert.InDelta(t, -3, data.Meshes[0].Transform.Data[14], 1e-6)

	assert.Equal(t, math.NewVec3(0, 2, 5), data.Camera.Position)
	assert.InDelta(t, 1, data.Light.Direction.Length(), 1e-5)
}

func TestCollectorFlipsProjectionY(t *testing.T) {
	world := ecs.NewWorld()
	collector := NewRenderDataCollector(world)

	ecs.Spawn2(world, components.NewTransform(), components.NewCamera())

	data := collector.Collect(1)
	require.True(t, data.HasCamera)
	assert.Less(t, data.Camera.Projection.Data[5], float32(0), "Vulkan clip space points Y down")
}

func TestCollectorSkipsInactiveCameras(t *testing.T) {
	world := ecs.NewWorld()
	collector := NewRenderDataCollector(world)

	inactive := components.NewCamera()
	inactive.Active = false
	ecs.Spawn2(world, components.NewTransform(), inactive)

	activeTransform := components.NewTransform()
	activeTransform.Transform.Location = math.NewVec3(7, 0, 0)
	ecs.Spawn2(world, activeTransform, components.NewCamera())

	data := collector.Collect(1)
	require.True(t, data.HasCamera)
	assert.Equal(t, math.NewVec3(7, 0, 0), data.Camera.Position)
}

func TestCollectorWithoutCamera(t *testing.T) {
	world := ecs.NewWorld()
	collector := NewRenderDataCollector(world)

	ecs.Spawn2(world, components.NewTransform(), components.Mesh{})

	data := collector.Collect(1)
	assert.False(t, data.HasCamera)
	assert.Len(t, data.Meshes, 1, "meshes still collect without a camera")
}
