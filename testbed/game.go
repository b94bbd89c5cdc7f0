// Package testbed is a small demo scene exercising the engine: a few meshes
// under a sun with shadow cascades, flown with the spectator camera.
package testbed

import (
	"path/filepath"

	"github.com/pellucidar/keel/engine"
	"github.com/pellucidar/keel/engine/components"
	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/ecs"
	"github.com/pellucidar/keel/engine/materials"
	"github.com/pellucidar/keel/engine/math"
	"github.com/pellucidar/keel/engine/systems"
)

func NewTestGame(config *engine.ApplicationConfig) *engine.Game {
	return &engine.Game{
		ApplicationConfig: config,
		FnInitialize:      initialize,
		FnUpdate:          update,
	}
}

func initialize(ctx *engine.EngineContext) error {
	ctx.World.AddSystem(systems.NewSpectatorCamera(ctx.World))

	camera := components.NewTransform()
	camera.Transform.Location = math.NewVec3(0, 3, 8)
	ecs.Spawn2(ctx.World, camera, components.NewCamera())

	ecs.Spawn1(ctx.World, components.NewDirectionalLight())

	spawnScene(ctx)
	return nil
}

func spawnScene(ctx *engine.EngineContext) {
	pbr := ctx.Materials.AddMaterialInstance(materials.NewPbrMaterial("pbr"))

	red := materials.NewPbrMaterial("pbr")
	red.BaseColor = materials.ColorFromConstant(math.NewVec4(0.8, 0.1, 0.1, 1))
	red.Roughness = materials.ScalarFromConstant(0.4)
	redHandle := ctx.Materials.AddMaterialInstance(red)

	meshPath := func(name string) string {
		return filepath.Join(ctx.Config.AssetDir, "meshes", name)
	}

	if ground, ok := ctx.Assets.GetMesh(meshPath("plane.obj")); ok {
		t := components.NewTransform()
		t.Transform.Scale = math.NewVec3(40, 1, 40)
		ecs.Spawn2(ctx.World, t, components.Mesh{MeshHandle: ground, MaterialHandle: pbr})
	}

	cube, ok := ctx.Assets.GetMesh(meshPath("cube.obj"))
	if !ok {
		core.LogWarn("testbed: cube mesh missing, scene will be mostly empty")
		return
	}
	positions := []math.Vec3{
		{X: 0, Y: 0.5, Z: 0},
		{X: 3, Y: 0.5, Z: -2},
		{X: -4, Y: 1, Z: -6},
		{X: 6, Y: 0.5, Z: -12},
	}
	for _, pos := range positions {
		t := components.NewTransform()
		t.Transform.Location = pos
		ecs.Spawn2(ctx.World, t, components.Mesh{MeshHandle: cube, MaterialHandle: redHandle})
	}
}

func update(ctx *engine.EngineContext, deltaTime float64) error {
	if core.InputIsKeyDown(core.KEY_ESCAPE) {
		ctx.Platform.Window.SetShouldClose(true)
	}
	return nil
}
