package vulkan

import (
	"encoding/binary"
	"fmt"
	"os"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
)

// ShaderModuleCreateFromFile loads a compiled SPIR-V binary from path and
// wraps it in a shader module.
func ShaderModuleCreateFromFile(context *VulkanContext, path string) (vk.ShaderModule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		core.LogError("unable to read shader file `%s`: %s", path, err.Error())
		return vk.NullShaderModule, err
	}
	return ShaderModuleCreate(context, code)
}

func ShaderModuleCreate(context *VulkanContext, code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		err := fmt.Errorf("shader binary size %d is not a multiple of 4", len(code))
		core.LogError(err.Error())
		return vk.NullShaderModule, err
	}

	// SPIR-V is a stream of 32-bit words.
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
		err := fmt.Errorf("failed to create shader module with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return vk.NullShaderModule, err
	}
	return module, nil
}
