package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucidar/keel/engine/materials"
	"github.com/pellucidar/keel/engine/math"
)

func TestSceneBuilderDedupsLayoutsAndSets(t *testing.T) {
	path, am := writeTestMesh(t)
	meshHandle, ok := am.GetMesh(path)
	require.True(t, ok)

	mm := materials.NewMaterialManager()
	matA := mm.AddMaterialInstance(materials.NewPbrMaterial("pbr"))
	matB := mm.AddMaterialInstance(materials.NewPbrMaterial("pbr"))

	backend := newFakeBackend()
	frame := NewFrameData(backend, 640, 480)
	layoutsBefore := backend.layouts
	setsBefore := backend.sets

	builder := newSceneBuilder(backend, NewResourceManager(backend, am), mm)

	data := &RenderData{
		Meshes: []MeshDraw{
			{Mesh: meshHandle, Material: matA, Transform: math.NewMat4Identity()},
			{Mesh: meshHandle, Material: matA, Transform: math.NewMat4Identity()},
			{Mesh: meshHandle, Material: matB, Transform: math.NewMat4Identity()},
		},
	}

	scene := builder.build(data, frame)
	require.Len(t, scene.Meshes, 3)

	assert.Equal(t, 1, backend.layouts-layoutsBefore, "one layout per shader path")
	assert.Equal(t, 2, backend.sets-setsBefore, "one set per material instance")

	// A second frame resolves everything from the caches.
	scene = builder.build(data, frame)
	require.Len(t, scene.Meshes, 3)
	assert.Equal(t, 1, backend.layouts-layoutsBefore)
	assert.Equal(t, 2, backend.sets-setsBefore)
}

func TestSceneBuilderSkipsUnresolvedDraws(t *testing.T) {
	path, am := writeTestMesh(t)
	meshHandle, ok := am.GetMesh(path)
	require.True(t, ok)

	mm := materials.NewMaterialManager()
	mat := mm.AddMaterialInstance(materials.NewPbrMaterial("pbr"))

	backend := newFakeBackend()
	frame := NewFrameData(backend, 640, 480)
	builder := newSceneBuilder(backend, NewResourceManager(backend, am), mm)

	data := &RenderData{
		Meshes: []MeshDraw{
			{Mesh: meshHandle, Material: mat},
			{Mesh: 999, Material: mat},        // unknown mesh
			{Mesh: meshHandle, Material: 999}, // unknown material
		},
	}

	scene := builder.build(data, frame)
	assert.Len(t, scene.Meshes, 1, "unresolvable draws are skipped, not fatal")
}

func TestFrameDataModelUploadOrderMatchesScene(t *testing.T) {
	backend := newFakeBackend()
	frame := NewFrameData(backend, 640, 480)

	writesBefore := backend.bufferWrites[frame.ModelBuffer]
	meshes := []SceneMesh{
		{Transform: math.NewMat4Translation(math.NewVec3(1, 0, 0))},
		{Transform: math.NewMat4Translation(math.NewVec3(2, 0, 0))},
	}
	frame.UploadModels(backend, meshes)
	assert.Equal(t, writesBefore+1, backend.bufferWrites[frame.ModelBuffer], "whole-buffer upload in one write")

	rows := backend.bufferData[frame.ModelBuffer]
	require.Len(t, rows, 2*64)
	assert.Equal(t, marshalUniform(&meshes[0].Transform, 64), rows[:64])
	assert.Equal(t, marshalUniform(&meshes[1].Transform, 64), rows[64:])
}

func TestModelRowsMatchPushedIndicesAcrossSkips(t *testing.T) {
	path, am := writeTestMesh(t)
	meshHandle, ok := am.GetMesh(path)
	require.True(t, ok)

	mm := materials.NewMaterialManager()
	mat := mm.AddMaterialInstance(materials.NewPbrMaterial("pbr"))

	backend := newFakeBackend()
	frame := NewFrameData(backend, 640, 480)
	builder := newSceneBuilder(backend, NewResourceManager(backend, am), mm)

	// The first draw cannot resolve; the surviving draw is scene index 0 and
	// must own model row 0, not inherit the skipped entity's transform.
	data := &RenderData{
		Meshes: []MeshDraw{
			{Mesh: 999, Material: mat, Transform: math.NewMat4Translation(math.NewVec3(5, 0, 0))},
			{Mesh: meshHandle, Material: mat, Transform: math.NewMat4Translation(math.NewVec3(2, 0, 0))},
		},
	}
	scene := builder.build(data, frame)
	require.Len(t, scene.Meshes, 1)

	frame.UploadModels(backend, scene.Meshes)
	rows := backend.bufferData[frame.ModelBuffer]
	require.Len(t, rows, 64)
	assert.Equal(t, marshalUniform(&data.Meshes[1].Transform, 64), rows[:64])
}

func TestSceneBuilderBoundsSceneToModelCapacity(t *testing.T) {
	path, am := writeTestMesh(t)
	meshHandle, ok := am.GetMesh(path)
	require.True(t, ok)

	mm := materials.NewMaterialManager()
	mat := mm.AddMaterialInstance(materials.NewPbrMaterial("pbr"))

	backend := newFakeBackend()
	frame := NewFrameData(backend, 640, 480)
	builder := newSceneBuilder(backend, NewResourceManager(backend, am), mm)

	draws := make([]MeshDraw, MaxMeshes+5)
	for i := range draws {
		draws[i] = MeshDraw{Mesh: meshHandle, Material: mat, Transform: math.NewMat4Identity()}
	}

	scene := builder.build(&RenderData{Meshes: draws}, frame)
	assert.Len(t, scene.Meshes, MaxMeshes, "draws past the model buffer capacity are dropped")
}

func TestFrameDataResizeRecreatesTargets(t *testing.T) {
	backend := newFakeBackend()
	frame := NewFrameData(backend, 640, 480)

	imagesBefore := backend.images
	frame.Resize(backend, 640, 480)
	assert.Equal(t, imagesBefore, backend.images, "same extent is a no-op")

	frame.Resize(backend, 1920, 1080)
	assert.Equal(t, imagesBefore+4, backend.images, "albedo, normal, depth and draw are recreated")
	assert.EqualValues(t, 1920, frame.Width)
}
