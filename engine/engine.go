package engine

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/assets"
	"github.com/spaghettifunk/helios/engine/core"
	m "github.com/spaghettifunk/helios/engine/math"
	"github.com/spaghettifunk/helios/engine/platform"
	"github.com/spaghettifunk/helios/engine/renderer"
	"github.com/spaghettifunk/helios/engine/renderer/components"
	"github.com/spaghettifunk/helios/engine/renderer/metadata"
	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
	"github.com/spaghettifunk/helios/engine/systems"
)

// Overlay is an optional hook rendered after the scene, inside the same
// render pass. Implementations record into their own secondary command
// buffers.
type Overlay interface {
	Render(frameInfo *metadata.FrameInfo, renderPass vk.RenderPass, framebuffer vk.Framebuffer) error
}

type Engine struct {
	gameInstance *Game
	isRunning    bool
	isSuspended  bool

	platform *platform.Platform
	context  *vulkan.VulkanContext
	renderer *renderer.Renderer
	recorder *renderer.DrawRecorder

	globalPool      *vulkan.VulkanDescriptorPool
	globalSetLayout *vulkan.VulkanDescriptorSetLayout
	globalSets      []vk.DescriptorSet
	uboBuffer       *vulkan.VulkanBuffer

	meshSystem       *systems.MeshRenderSystem
	pointLightSystem *systems.PointLightSystem
	camera           *components.Camera
	overlay          Overlay

	shaderWatcher  *assets.ShaderWatcher
	shadersChanged bool

	clock    *core.Clock
	lastTime float64
}

func New(g *Game) (*Engine, error) {
	p, err := platform.New()
	if err != nil {
		return nil, err
	}

	return &Engine{
		gameInstance: g,
		isRunning:    true,
		platform:     p,
		clock:        core.NewClock(),
		camera:       components.NewCamera(),
	}, nil
}

func (e *Engine) Initialize() error {
	config := e.gameInstance.ApplicationConfig

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)
	core.EventRegister(core.EVENT_CODE_SHADERS_RELOADED, e, e.onShadersReloaded)

	if err := e.platform.Startup(config.Name, config.StartPosX, config.StartPosY, config.StartWidth, config.StartHeight); err != nil {
		return err
	}

	context, err := vulkan.ContextCreate(e.platform, config.Name, config.StartWidth, config.StartHeight, config.Debug)
	if err != nil {
		return err
	}
	e.context = context

	r, err := renderer.NewRenderer(context, e.platform)
	if err != nil {
		return err
	}
	e.renderer = r

	workers := config.RecordWorkers
	if workers <= 0 {
		workers = renderer.DefaultWorkerCount()
	}
	recorder, err := renderer.NewDrawRecorder(context, workers)
	if err != nil {
		return err
	}
	e.recorder = recorder

	if err := e.createGlobalDescriptors(); err != nil {
		return err
	}
	if err := e.createRenderSystems(); err != nil {
		return err
	}

	if config.WatchShaders {
		watcher, err := assets.NewShaderWatcher(config.ShaderDir)
		if err != nil {
			// Hot reload is a development convenience, run without it.
			core.LogWarn("shader watching disabled: %s", err)
		} else {
			e.shaderWatcher = watcher
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(config.StartWidth, config.StartHeight); err != nil {
			return err
		}
	}
	return nil
}

// createGlobalDescriptors builds the per frame uniform buffer and one
// descriptor set per in-flight frame slot, all pointing into the same buffer
// at the slot's aligned offset.
func (e *Engine) createGlobalDescriptors() error {
	limits := e.context.Device.Properties.Limits

	uboBuffer, err := vulkan.NewBuffer(
		e.context,
		vk.DeviceSize(unsafe.Sizeof(metadata.GlobalUbo{})),
		vulkan.MaxFramesInFlight,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit),
		limits.MinUniformBufferOffsetAlignment)
	if err != nil {
		return err
	}
	if err := uboBuffer.Map(e.context); err != nil {
		return err
	}
	e.uboBuffer = uboBuffer

	pool, err := vulkan.NewDescriptorPool(e.context, vulkan.MaxFramesInFlight, []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: vulkan.MaxFramesInFlight},
	})
	if err != nil {
		return err
	}
	e.globalPool = pool

	layout, err := vulkan.NewDescriptorSetLayout(e.context, []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	})
	if err != nil {
		return err
	}
	e.globalSetLayout = layout

	e.globalSets = make([]vk.DescriptorSet, vulkan.MaxFramesInFlight)
	for slot := uint32(0); slot < vulkan.MaxFramesInFlight; slot++ {
		set, err := vulkan.NewDescriptorWriter(layout, pool).
			WriteBuffer(0, uboBuffer.DescriptorInfoForIndex(slot)).
			Build(e.context)
		if err != nil {
			return err
		}
		e.globalSets[slot] = set
	}
	return nil
}

func (e *Engine) createRenderSystems() error {
	shaderDir := e.gameInstance.ApplicationConfig.ShaderDir

	meshSystem, err := systems.NewMeshRenderSystem(e.context, e.renderer.RenderPass(), e.globalSetLayout.Handle, shaderDir)
	if err != nil {
		return err
	}
	e.meshSystem = meshSystem

	pointLightSystem, err := systems.NewPointLightSystem(e.context, e.renderer.RenderPass(), e.globalSetLayout.Handle, shaderDir)
	if err != nil {
		return err
	}
	e.pointLightSystem = pointLightSystem
	return nil
}

// reloadRenderSystems rebuilds the pipelines from the shaders on disk.
// Called between frames after the watcher reports a change.
func (e *Engine) reloadRenderSystems() {
	e.context.WaitIdle()

	meshSystem := e.meshSystem
	pointLightSystem := e.pointLightSystem

	if err := e.createRenderSystems(); err != nil {
		core.LogError("shader reload failed, keeping previous pipelines: %s", err)
		return
	}

	meshSystem.Shutdown()
	pointLightSystem.Shutdown()
	core.LogInfo("Pipelines rebuilt from reloaded shaders.")
}

// SetOverlay installs an overlay rendered after the scene each frame.
func (e *Engine) SetOverlay(overlay Overlay) {
	e.overlay = overlay
}

// Camera returns the scene camera. The game moves it in FnUpdate.
func (e *Engine) Camera() *components.Camera {
	return e.camera
}

// Context exposes the Vulkan context for resource creation during
// FnInitialize, mesh uploads mostly.
func (e *Engine) Context() *vulkan.VulkanContext {
	return e.context
}

func (e *Engine) AspectRatio() float32 {
	return e.renderer.AspectRatio()
}

func (e *Engine) Run() error {
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.ElapsedSeconds()

	for e.isRunning && !e.platform.ShouldClose() {
		e.platform.PumpMessages()

		e.clock.Update()
		currentTime := e.clock.ElapsedSeconds()
		delta := currentTime - e.lastTime
		e.lastTime = currentTime

		if e.isSuspended {
			continue
		}

		if e.shadersChanged {
			e.shadersChanged = false
			e.reloadRenderSystems()
		}

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e, delta); err != nil {
				core.LogError("game update failed, shutting down: %s", err)
				e.isRunning = false
				break
			}
		}

		if err := e.drawFrame(delta); err != nil {
			core.LogError("draw frame failed, shutting down: %s", err)
			e.isRunning = false
			break
		}

		core.MetricsUpdate(delta)

		// Input state copying happens after everything has sampled it.
		core.InputUpdate(delta)
	}
	return nil
}

func (e *Engine) drawFrame(delta float64) error {
	commandBuffer, err := e.renderer.BeginFrame()
	if err != nil {
		return err
	}
	if commandBuffer == nil {
		// Swapchain was recreated, skip this frame.
		return nil
	}

	frameIndex := e.renderer.CurrentFrameIndex()
	width, height := e.renderer.Extent()

	e.camera.SetPerspectiveProjection(m.DegToRad(50.0), e.renderer.AspectRatio(), 0.1, 100.0)

	frameInfo := &metadata.FrameInfo{
		FrameIndex:          frameIndex,
		DeltaTime:           delta,
		Width:               width,
		Height:              height,
		CommandBuffer:       commandBuffer,
		Camera:              e.camera,
		GlobalDescriptorSet: e.globalSets[frameIndex],
		Entities:            e.gameInstance.Registry.Snapshot(),
	}

	ubo := &metadata.GlobalUbo{
		Projection:    e.camera.ProjectionMatrix(),
		View:          e.camera.ViewMatrix(),
		InverseView:   e.camera.InverseViewMatrix(),
		AmbientColour: m.NewVec4(1.0, 1.0, 1.0, 0.02),
	}
	e.pointLightSystem.Update(frameInfo, ubo)
	e.uboBuffer.WriteToIndex(ubo.Bytes(), frameIndex)
	if err := e.uboBuffer.FlushIndex(e.context, frameIndex); err != nil {
		return err
	}

	e.renderer.BeginRenderPass(commandBuffer)

	renderPass := e.renderer.RenderPass()
	framebuffer := e.renderer.CurrentFramebuffer()

	if err := e.recorder.Record(frameInfo, renderPass, framebuffer, e.meshSystem.RecordPartition); err != nil {
		return err
	}
	if err := e.pointLightSystem.Render(frameInfo, renderPass, framebuffer); err != nil {
		return err
	}
	if e.overlay != nil {
		if err := e.overlay.Render(frameInfo, renderPass, framebuffer); err != nil {
			return err
		}
	}

	e.renderer.EndRenderPass(commandBuffer)
	return e.renderer.EndFrame(commandBuffer)
}

func (e *Engine) Shutdown() error {
	e.isRunning = false

	if e.context != nil {
		e.context.WaitIdle()
	}

	if e.shaderWatcher != nil {
		e.shaderWatcher.Close()
		e.shaderWatcher = nil
	}

	if e.pointLightSystem != nil {
		e.pointLightSystem.Shutdown()
	}
	if e.meshSystem != nil {
		e.meshSystem.Shutdown()
	}
	if e.recorder != nil {
		e.recorder.Shutdown()
	}

	if e.uboBuffer != nil {
		e.uboBuffer.Destroy(e.context)
	}
	if e.globalSetLayout != nil {
		e.globalSetLayout.Destroy(e.context)
	}
	if e.globalPool != nil {
		e.globalPool.Destroy(e.context)
	}

	if e.renderer != nil {
		e.renderer.Shutdown()
	}
	if e.context != nil {
		e.context.ContextDestroy()
	}

	if err := core.EventShutdown(); err != nil {
		return err
	}
	if err := core.InputShutdown(); err != nil {
		return err
	}
	return e.platform.Shutdown()
}

func (e *Engine) onEvent(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	if code != core.EVENT_CODE_KEY_PRESSED {
		return false
	}
	key := core.KeyCode(data.Data.U16[0])
	if key == core.KEY_ESCAPE {
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	if code != core.EVENT_CODE_RESIZED {
		return false
	}

	width := uint32(data.Data.U16[0])
	height := uint32(data.Data.U16[1])

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		e.gameInstance.FnOnResize(width, height)
	}
	return false
}

func (e *Engine) onShadersReloaded(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	e.shadersChanged = true
	return false
}
