package renderer

import (
	"fmt"
	"runtime"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/renderer/metadata"
	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
)

// RecordFunc records draw commands for entities[start:end] of the frame into
// a secondary command buffer. It runs on a worker goroutine and must not
// touch shared mutable state.
type RecordFunc func(commandBuffer *vulkan.VulkanCommandBuffer, frameInfo *metadata.FrameInfo, start, end int) error

// DefaultWorkerCount returns the draw recording parallelism: one worker per
// CPU, and never fewer than two so the fork join path is always exercised.
func DefaultWorkerCount() int {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	return workers
}

// partitionRanges splits n items into at most workers contiguous ranges of
// ceil(n/workers) items, the last range clamped to n. It returns no empty
// ranges, so fewer items than workers means fewer ranges.
func partitionRanges(n, workers int) [][2]int {
	if n <= 0 || workers <= 0 {
		return nil
	}
	chunk := (n + workers - 1) / workers
	ranges := make([][2]int, 0, workers)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// fanOut runs fn(0) .. fn(count-1) on their own goroutines and waits for all
// of them. The first error wins, the rest are dropped.
func fanOut(count int, fn func(worker int) error) error {
	if count <= 0 {
		return nil
	}

	errs := make([]error, count)
	var wg sync.WaitGroup
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(worker int) {
			defer wg.Done()
			errs[worker] = fn(worker)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// DrawRecorder records the scene's draw commands in parallel. Each worker
// owns one command pool and one secondary command buffer per in-flight frame
// slot, so no two goroutines ever share a pool. After the fork join the
// secondaries are stitched into the primary buffer in worker order, keeping
// submission deterministic regardless of goroutine scheduling.
type DrawRecorder struct {
	context *vulkan.VulkanContext
	workers int

	// Indexed [worker][frameSlot].
	pools   [][]vk.CommandPool
	buffers [][]*vulkan.VulkanCommandBuffer
}

func NewDrawRecorder(context *vulkan.VulkanContext, workers int) (*DrawRecorder, error) {
	if workers < 1 {
		workers = 1
	}

	recorder := &DrawRecorder{
		context: context,
		workers: workers,
		pools:   make([][]vk.CommandPool, workers),
		buffers: make([][]*vulkan.VulkanCommandBuffer, workers),
	}

	for w := 0; w < workers; w++ {
		recorder.pools[w] = make([]vk.CommandPool, vulkan.MaxFramesInFlight)
		recorder.buffers[w] = make([]*vulkan.VulkanCommandBuffer, vulkan.MaxFramesInFlight)
		for slot := 0; slot < vulkan.MaxFramesInFlight; slot++ {
			poolCreateInfo := vk.CommandPoolCreateInfo{
				SType:            vk.StructureTypeCommandPoolCreateInfo,
				QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
				Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
			}
			var pool vk.CommandPool
			if res := vk.CreateCommandPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
				err := fmt.Errorf("failed to create worker command pool with error `%s`", vulkan.VulkanResultString(res, true))
				core.LogError(err.Error())
				return nil, err
			}
			recorder.pools[w][slot] = pool

			commandBuffer, err := vulkan.CommandBufferAllocate(context, pool, false)
			if err != nil {
				return nil, err
			}
			recorder.buffers[w][slot] = commandBuffer
		}
	}

	core.LogInfo("Draw recorder initialized with %d workers.", workers)
	return recorder, nil
}

func (dr *DrawRecorder) Workers() int {
	return dr.workers
}

func (dr *DrawRecorder) Shutdown() {
	for w := range dr.pools {
		for slot := range dr.pools[w] {
			dr.buffers[w][slot].Free(dr.context, dr.pools[w][slot])
			vk.DestroyCommandPool(dr.context.Device.LogicalDevice, dr.pools[w][slot], dr.context.Allocator)
		}
	}
	dr.pools = nil
	dr.buffers = nil
}

// Record partitions the frame's entities across the workers, records each
// partition into that worker's secondary buffer concurrently, then executes
// the secondaries on the primary buffer in worker order. The render pass on
// the primary must have been begun with secondary buffer contents.
func (dr *DrawRecorder) Record(frameInfo *metadata.FrameInfo, renderPass vk.RenderPass, framebuffer vk.Framebuffer, record RecordFunc) error {
	ranges := partitionRanges(len(frameInfo.Entities), dr.workers)
	if len(ranges) == 0 {
		return nil
	}

	slot := frameInfo.FrameIndex
	err := fanOut(len(ranges), func(worker int) error {
		// The slot's fence has signalled by now, the pool is safe to recycle.
		if res := vk.ResetCommandPool(dr.context.Device.LogicalDevice, dr.pools[worker][slot], 0); res != vk.Success {
			return fmt.Errorf("failed to reset worker %d command pool", worker)
		}

		commandBuffer := dr.buffers[worker][slot]
		if err := commandBuffer.BeginSecondary(renderPass, framebuffer); err != nil {
			return err
		}
		if err := record(commandBuffer, frameInfo, ranges[worker][0], ranges[worker][1]); err != nil {
			return err
		}
		return commandBuffer.End()
	})
	if err != nil {
		return err
	}

	handles := make([]vk.CommandBuffer, len(ranges))
	for worker := range ranges {
		handles[worker] = dr.buffers[worker][slot].Handle
	}
	vk.CmdExecuteCommands(frameInfo.CommandBuffer.Handle, uint32(len(handles)), handles)
	return nil
}
