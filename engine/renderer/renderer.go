// Package renderer drives the deferred pipeline: it collects the world into
// render data, resolves it into a GPU scene, runs the passes and presents.
package renderer

import (
	"github.com/pellucidar/keel/engine/assets"
	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/ecs"
	"github.com/pellucidar/keel/engine/materials"
)

// Pass is one stage of the frame: shadows+lighting, geometry, debug overlays.
// Passes are constructed by the engine and executed in registration order.
type Pass interface {
	// Execute records the pass into the current frame.
	Execute(backend Backend, frame *FrameData, scene *RenderScene) error
	// InvalidateShader drops cached pipelines built from the named shader so
	// the next Execute rebuilds them.
	InvalidateShader(name string)
}

// Renderer owns the frame loop: collect, resolve, upload, record, present.
type Renderer struct {
	backend   Backend
	frame     *FrameData
	collector *RenderDataCollector
	builder   *sceneBuilder
	passes    []Pass
	watcher   *ShaderWatcher
}

func NewRenderer(backend Backend, world *ecs.World, assetManager *assets.AssetManager, materialManager *materials.MaterialManager, passes []Pass) *Renderer {
	width, height := backend.FramebufferExtent()
	resources := NewResourceManager(backend, assetManager)
	return &Renderer{
		backend:   backend,
		frame:     NewFrameData(backend, width, height),
		collector: NewRenderDataCollector(world),
		builder:   newSceneBuilder(backend, resources, materialManager),
		passes:    passes,
	}
}

// WatchShaders starts hot reload for the shader directory. Optional; without
// it pipelines are only built once.
func (r *Renderer) WatchShaders(shaderDir string) {
	watcher, err := NewShaderWatcher(shaderDir)
	if err != nil {
		core.LogWarn("renderer: shader hot reload unavailable: %s", err)
		return
	}
	r.watcher = watcher
}

// FrameData exposes the frame resources, mainly so the engine can hand them
// to diagnostics.
func (r *Renderer) FrameData() *FrameData {
	return r.frame
}

// DrawFrame renders one frame. A swapchain out-of-date condition skips the
// frame without error; the next frame picks up the recreated swapchain.
func (r *Renderer) DrawFrame() error {
	for _, name := range r.drainShaderChanges() {
		core.LogInfo("renderer: shader %s changed, invalidating pipelines", name)
		for _, pass := range r.passes {
			pass.InvalidateShader(name)
		}
	}

	width, height := r.backend.FramebufferExtent()
	if width == 0 || height == 0 {
		return nil
	}
	r.frame.Resize(r.backend, width, height)

	data := r.collector.Collect(float32(width) / float32(height))
	if !data.HasCamera {
		return nil
	}

	if err := r.backend.BeginFrame(); err != nil {
		if err == core.ErrSwapchainOutOfDate {
			return nil
		}
		return err
	}

	scene := r.builder.build(&data, r.frame)

	r.frame.UploadCamera(r.backend, scene.Camera)
	r.frame.UploadModels(r.backend, scene.Meshes)
	r.frame.UploadLighting(r.backend, scene.Light)

	core.MetricsResetDraws()
	for _, pass := range r.passes {
		if err := pass.Execute(r.backend, r.frame, scene); err != nil {
			return err
		}
	}

	err := r.backend.EndFrame(r.frame.Draw)
	if err == core.ErrSwapchainOutOfDate {
		return nil
	}
	return err
}

func (r *Renderer) drainShaderChanges() []string {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Drain()
}

// Shutdown stops the shader watcher. GPU resources belong to the backend and
// are reclaimed by its Shutdown.
func (r *Renderer) Shutdown() {
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
}
