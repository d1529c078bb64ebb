package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func testSwapchain() *VulkanSwapchain {
	return &VulkanSwapchain{
		ImageFormat: vk.SurfaceFormat{
			Format:     vk.FormatB8g8r8a8Srgb,
			ColorSpace: vk.ColorSpaceSrgbNonlinear,
		},
		DepthFormat: vk.FormatD32Sfloat,
	}
}

func TestSwapchainCompareFormatsMatch(t *testing.T) {
	a := testSwapchain()
	b := testSwapchain()
	if !SwapchainCompareFormats(a, b) {
		t.Error("identical colour and depth formats reported as changed")
	}
}

func TestSwapchainCompareFormatsColourDrift(t *testing.T) {
	a := testSwapchain()
	b := testSwapchain()
	b.ImageFormat.Format = vk.FormatR8g8b8a8Srgb

	if SwapchainCompareFormats(a, b) {
		t.Error("colour format drift not detected")
	}
}

func TestSwapchainCompareFormatsColourSpaceDrift(t *testing.T) {
	a := testSwapchain()
	b := testSwapchain()
	b.ImageFormat.ColorSpace = vk.ColorSpaceSrgbNonlinear + 1

	if SwapchainCompareFormats(a, b) {
		t.Error("colour space drift not detected")
	}
}

func TestSwapchainCompareFormatsDepthDrift(t *testing.T) {
	a := testSwapchain()
	b := testSwapchain()
	b.DepthFormat = vk.FormatD24UnormS8Uint

	if SwapchainCompareFormats(a, b) {
		t.Error("depth format drift not detected")
	}
}
