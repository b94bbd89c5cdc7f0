package engine

// Game is what an application plugs into the engine: a config plus hooks
// called around the frame loop. Scene setup happens in FnInitialize, per
// frame logic that is not an ECS system in FnUpdate.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
}

type Initialize func(ctx *EngineContext) error
type Update func(ctx *EngineContext, deltaTime float64) error
