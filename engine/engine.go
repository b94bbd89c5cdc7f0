// Package engine wires the subsystems together and runs the frame loop.
package engine

import (
	"github.com/pellucidar/keel/engine/assets"
	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/ecs"
	"github.com/pellucidar/keel/engine/materials"
	"github.com/pellucidar/keel/engine/platform"
	"github.com/pellucidar/keel/engine/renderer"
	"github.com/pellucidar/keel/engine/renderer/passes"
	"github.com/pellucidar/keel/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine completed initialization and is ready to run
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// EngineContext enumerates every subsystem by name. Systems and game code
// receive it whole; nothing is looked up dynamically.
type EngineContext struct {
	Config    *ApplicationConfig
	Platform  *platform.Platform
	Backend   renderer.Backend
	Renderer  *renderer.Renderer
	World     *ecs.World
	Assets    *assets.AssetManager
	Materials *materials.MaterialManager
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool
	isSuspended  bool
	context      *EngineContext
	clock        *core.Clock
}

func New(g *Game) (*Engine, error) {
	config := g.ApplicationConfig
	if config == nil {
		config = DefaultConfig()
		g.ApplicationConfig = config
	}
	core.SetLogLevel(config.LogLevel)

	p, err := platform.New()
	if err != nil {
		return nil, err
	}

	ctx := &EngineContext{
		Config:    config,
		Platform:  p,
		World:     ecs.NewWorld(),
		Assets:    assets.NewAssetManager(),
		Materials: materials.NewMaterialManager(),
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		context:      ctx,
		clock:        core.NewClock(),
		isRunning:    false,
		isSuspended:  false,
	}, nil
}

// Context exposes the subsystems, mainly for tests and tooling.
func (e *Engine) Context() *EngineContext {
	return e.context
}

func (e *Engine) Initialize() error {
	config := e.context.Config

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	if err := e.context.Platform.Startup(config.Name, config.StartPosX, config.StartPosY, config.StartWidth, config.StartHeight); err != nil {
		return err
	}

	backend := vulkan.New(e.context.Platform, config.ShaderDir)
	if err := backend.Initialize(config.Name, config.StartWidth, config.StartHeight); err != nil {
		return err
	}
	e.context.Backend = backend

	e.context.Platform.OnResize = func(width, height uint32) {
		e.isSuspended = width == 0 || height == 0
		backend.Resized(width, height)
	}

	e.context.Renderer = renderer.NewRenderer(
		e.context.Backend,
		e.context.World,
		e.context.Assets,
		e.context.Materials,
		[]renderer.Pass{
			passes.NewGeometryRenderer(),
			passes.NewLightingRenderer(),
		},
	)
	if config.WatchShaders {
		e.context.Renderer.WatchShaders(config.ShaderDir)
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.context); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("Engine initialized.")
	return nil
}

// Run drives the frame loop until the window closes or the game stops the
// engine. Everything runs on the main thread.
func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.isRunning = true
	e.clock.Start()
	e.clock.Update()

	for e.isRunning && !e.context.Platform.ShouldClose() {
		e.context.Platform.PumpMessages()

		e.clock.Update()
		deltaTime := e.clock.Delta()

		if e.isSuspended {
			core.InputUpdate(deltaTime)
			continue
		}

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e.context, deltaTime); err != nil {
				return err
			}
		}
		if err := e.context.World.Update(deltaTime); err != nil {
			return err
		}

		if err := e.context.Renderer.DrawFrame(); err != nil {
			return err
		}

		// Roll input state after the frame so systems see per-frame edges.
		core.InputUpdate(deltaTime)
		core.MetricsUpdate(deltaTime)
	}

	return e.Shutdown()
}

// Stop requests a clean exit at the end of the current frame.
func (e *Engine) Stop() {
	e.isRunning = false
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	core.LogInfo("Engine shutting down.")

	e.context.Renderer.Shutdown()
	if err := e.context.Backend.Shutdown(); err != nil {
		core.LogError("backend shutdown failed: %s", err)
	}
	core.InputShutdown()
	return e.context.Platform.Shutdown()
}
