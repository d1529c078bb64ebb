package renderer

import (
	"testing"

	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
)

func TestFrameSlotRotation(t *testing.T) {
	r := &Renderer{}

	// After K completed frames the slot must be K mod MaxFramesInFlight.
	for k := 0; k < 100; k++ {
		want := uint32(k % vulkan.MaxFramesInFlight)
		if r.currentFrameIndex != want {
			t.Fatalf("after %d frames slot = %d, want %d", k, r.currentFrameIndex, want)
		}
		r.advanceFrameSlot()
	}
}

func TestFrameSlotStaysInRange(t *testing.T) {
	r := &Renderer{}
	for k := 0; k < 1000; k++ {
		if r.currentFrameIndex >= vulkan.MaxFramesInFlight {
			t.Fatalf("slot %d out of range at frame %d", r.currentFrameIndex, k)
		}
		r.advanceFrameSlot()
	}
}

func TestAccessorsPanicOutsideFrame(t *testing.T) {
	r := &Renderer{}

	for name, fn := range map[string]func(){
		"CurrentFramebuffer": func() { r.CurrentFramebuffer() },
		"CurrentFrameIndex":  func() { r.CurrentFrameIndex() },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic outside a frame", name)
				}
			}()
			fn()
		})
	}
}
