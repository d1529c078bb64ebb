package engine

import (
	"github.com/spaghettifunk/helios/engine/scene"
)

// Game is the application hook surface. The engine calls FnInitialize once
// after its own systems are up, FnUpdate every frame before rendering, and
// FnOnResize whenever the framebuffer changes size.
type Game struct {
	ApplicationConfig *ApplicationConfig
	Registry          *scene.Registry
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnOnResize        OnResize
}

type Initialize func(e *Engine) error
type Update func(e *Engine, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
