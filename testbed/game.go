package testbed

import (
	"github.com/spaghettifunk/helios/engine"
	"github.com/spaghettifunk/helios/engine/core"
	m "github.com/spaghettifunk/helios/engine/math"
	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
	"github.com/spaghettifunk/helios/engine/scene"
)

const (
	moveSpeed = 3.0
	lookSpeed = 1.5
)

type gameState struct {
	viewerPosition m.Vec3
	viewerRotation m.Vec3
}

// NewTestGame builds a demo scene: a couple of cubes on a floor and a ring
// of coloured point lights orbiting them.
func NewTestGame(config *engine.ApplicationConfig) *engine.Game {
	game := &engine.Game{
		ApplicationConfig: config,
		Registry:          scene.NewRegistry(),
		State: &gameState{
			viewerPosition: m.NewVec3(0, -1, -4),
		},
	}
	game.FnInitialize = func(e *engine.Engine) error {
		return initialize(e, game)
	}
	game.FnUpdate = func(e *engine.Engine, deltaTime float64) error {
		return update(e, game, deltaTime)
	}
	game.FnOnResize = func(width, height uint32) error {
		return nil
	}
	return game
}

func initialize(e *engine.Engine, game *engine.Game) error {
	cubeMesh, err := vulkan.NewMesh(e.Context(), cubeVertices(), cubeIndices())
	if err != nil {
		return err
	}

	cube := game.Registry.CreateEntity()
	cube.Mesh = cubeMesh
	cube.Transform.Translation = m.NewVec3(-1.0, 0.0, 0.0)
	cube.Transform.Scale = m.NewVec3(0.5, 0.5, 0.5)

	cube2 := game.Registry.CreateEntity()
	cube2.Mesh = cubeMesh
	cube2.Transform.Translation = m.NewVec3(1.0, 0.0, 0.0)
	cube2.Transform.Scale = m.NewVec3(0.35, 0.35, 0.35)

	floor := game.Registry.CreateEntity()
	floor.Mesh = cubeMesh
	floor.Transform.Translation = m.NewVec3(0.0, 0.55, 0.0)
	floor.Transform.Scale = m.NewVec3(3.0, 0.05, 3.0)

	lightColours := []m.Vec3{
		{X: 1.0, Y: 0.1, Z: 0.1},
		{X: 0.1, Y: 0.1, Z: 1.0},
		{X: 0.1, Y: 1.0, Z: 0.1},
		{X: 1.0, Y: 1.0, Z: 0.1},
		{X: 0.1, Y: 1.0, Z: 1.0},
		{X: 1.0, Y: 1.0, Z: 1.0},
	}
	for i, colour := range lightColours {
		light := game.Registry.CreatePointLight(0.8, 0.05, colour)
		angle := float32(i) * (2.0 * m.Pi / float32(len(lightColours)))
		rotation := m.NewMat4EulerY(angle)
		light.Transform.Translation = m.NewVec3(-1, -1, -1).Transform(rotation)
	}

	core.LogInfo("Test scene loaded: %d entities.", game.Registry.Len())
	return nil
}

func update(e *engine.Engine, game *engine.Game, deltaTime float64) error {
	state := game.State.(*gameState)
	moveViewerInPlaneXZ(state, float32(deltaTime))
	e.Camera().SetViewYXZ(state.viewerPosition, state.viewerRotation)
	return nil
}

// moveViewerInPlaneXZ applies arrow key look and WASD+QE movement relative
// to the viewer's yaw, ignoring pitch so movement stays in the horizontal
// plane.
func moveViewerInPlaneXZ(state *gameState, deltaTime float32) {
	rotate := m.NewVec3Zero()
	if core.InputIsKeyDown(core.KEY_RIGHT) {
		rotate.Y += 1
	}
	if core.InputIsKeyDown(core.KEY_LEFT) {
		rotate.Y -= 1
	}
	if core.InputIsKeyDown(core.KEY_UP) {
		rotate.X -= 1
	}
	if core.InputIsKeyDown(core.KEY_DOWN) {
		rotate.X += 1
	}
	if rotate.LengthSquared() > 0 {
		state.viewerRotation = state.viewerRotation.Add(rotate.Normalized().MulScalar(lookSpeed * deltaTime))
	}

	// Keep pitch inside +-85 degrees and yaw in one revolution.
	state.viewerRotation.X = m.Clamp(state.viewerRotation.X, -1.5, 1.5)
	state.viewerRotation.Y = m.Mod(state.viewerRotation.Y, 2.0*m.Pi)

	yaw := state.viewerRotation.Y
	forward := m.NewVec3(m.Sin(yaw), 0, m.Cos(yaw))
	right := m.NewVec3(forward.Z, 0, -forward.X)
	up := m.NewVec3(0, -1, 0)

	move := m.NewVec3Zero()
	if core.InputIsKeyDown(core.KEY_W) {
		move = move.Add(forward)
	}
	if core.InputIsKeyDown(core.KEY_S) {
		move = move.Sub(forward)
	}
	if core.InputIsKeyDown(core.KEY_D) {
		move = move.Add(right)
	}
	if core.InputIsKeyDown(core.KEY_A) {
		move = move.Sub(right)
	}
	if core.InputIsKeyDown(core.KEY_E) {
		move = move.Add(up)
	}
	if core.InputIsKeyDown(core.KEY_Q) {
		move = move.Sub(up)
	}
	if move.LengthSquared() > 0 {
		state.viewerPosition = state.viewerPosition.Add(move.Normalized().MulScalar(moveSpeed * deltaTime))
	}
}

// cubeVertices returns a unit cube with a distinct colour per face.
func cubeVertices() []m.Vertex3D {
	white := m.NewVec3(0.9, 0.9, 0.9)
	yellow := m.NewVec3(0.8, 0.8, 0.1)
	orange := m.NewVec3(0.9, 0.6, 0.1)
	red := m.NewVec3(0.8, 0.1, 0.1)
	blue := m.NewVec3(0.1, 0.1, 0.8)
	green := m.NewVec3(0.1, 0.8, 0.1)

	return []m.Vertex3D{
		// Left face (white).
		{Position: m.NewVec3(-0.5, -0.5, -0.5), Colour: white, Normal: m.NewVec3(-1, 0, 0)},
		{Position: m.NewVec3(-0.5, 0.5, 0.5), Colour: white, Normal: m.NewVec3(-1, 0, 0)},
		{Position: m.NewVec3(-0.5, -0.5, 0.5), Colour: white, Normal: m.NewVec3(-1, 0, 0)},
		{Position: m.NewVec3(-0.5, 0.5, -0.5), Colour: white, Normal: m.NewVec3(-1, 0, 0)},

		// Right face (yellow).
		{Position: m.NewVec3(0.5, -0.5, -0.5), Colour: yellow, Normal: m.NewVec3(1, 0, 0)},
		{Position: m.NewVec3(0.5, 0.5, 0.5), Colour: yellow, Normal: m.NewVec3(1, 0, 0)},
		{Position: m.NewVec3(0.5, -0.5, 0.5), Colour: yellow, Normal: m.NewVec3(1, 0, 0)},
		{Position: m.NewVec3(0.5, 0.5, -0.5), Colour: yellow, Normal: m.NewVec3(1, 0, 0)},

		// Top face (orange). Y axis points down.
		{Position: m.NewVec3(-0.5, -0.5, -0.5), Colour: orange, Normal: m.NewVec3(0, -1, 0)},
		{Position: m.NewVec3(0.5, -0.5, 0.5), Colour: orange, Normal: m.NewVec3(0, -1, 0)},
		{Position: m.NewVec3(-0.5, -0.5, 0.5), Colour: orange, Normal: m.NewVec3(0, -1, 0)},
		{Position: m.NewVec3(0.5, -0.5, -0.5), Colour: orange, Normal: m.NewVec3(0, -1, 0)},

		// Bottom face (red).
		{Position: m.NewVec3(-0.5, 0.5, -0.5), Colour: red, Normal: m.NewVec3(0, 1, 0)},
		{Position: m.NewVec3(0.5, 0.5, 0.5), Colour: red, Normal: m.NewVec3(0, 1, 0)},
		{Position: m.NewVec3(-0.5, 0.5, 0.5), Colour: red, Normal: m.NewVec3(0, 1, 0)},
		{Position: m.NewVec3(0.5, 0.5, -0.5), Colour: red, Normal: m.NewVec3(0, 1, 0)},

		// Near face (blue).
		{Position: m.NewVec3(-0.5, -0.5, 0.5), Colour: blue, Normal: m.NewVec3(0, 0, 1)},
		{Position: m.NewVec3(0.5, 0.5, 0.5), Colour: blue, Normal: m.NewVec3(0, 0, 1)},
		{Position: m.NewVec3(-0.5, 0.5, 0.5), Colour: blue, Normal: m.NewVec3(0, 0, 1)},
		{Position: m.NewVec3(0.5, -0.5, 0.5), Colour: blue, Normal: m.NewVec3(0, 0, 1)},

		// Far face (green).
		{Position: m.NewVec3(-0.5, -0.5, -0.5), Colour: green, Normal: m.NewVec3(0, 0, -1)},
		{Position: m.NewVec3(0.5, 0.5, -0.5), Colour: green, Normal: m.NewVec3(0, 0, -1)},
		{Position: m.NewVec3(-0.5, 0.5, -0.5), Colour: green, Normal: m.NewVec3(0, 0, -1)},
		{Position: m.NewVec3(0.5, -0.5, -0.5), Colour: green, Normal: m.NewVec3(0, 0, -1)},
	}
}

func cubeIndices() []uint32 {
	return []uint32{
		0, 1, 2, 0, 3, 1,
		4, 5, 6, 4, 7, 5,
		8, 9, 10, 8, 11, 9,
		12, 13, 14, 12, 15, 13,
		16, 17, 18, 16, 19, 17,
		20, 21, 22, 20, 23, 21,
	}
}
