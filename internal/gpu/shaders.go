package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/composite.wgsl
var compositeShaderSource string

// Shader entry points.
const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

// CompositeShaderSource returns the WGSL source of the layer shader.
func CompositeShaderSource() string {
	return compositeShaderSource
}

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile shader: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// createShaderModule builds the layer shader module, either from WGSL
// directly or from SPIR-V compiled by naga.
func createShaderModule(device hal.Device, spirv bool) (hal.ShaderModule, error) {
	src := hal.ShaderSource{WGSL: compositeShaderSource}
	if spirv {
		code, err := CompileSPIRV(compositeShaderSource)
		if err != nil {
			return nil, err
		}
		src = hal.ShaderSource{SPIRV: code}
		slogger().Debug("compositor shader compiled to SPIR-V", "words", len(code))
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "composite_shader",
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("create composite shader: %w", err)
	}
	return module, nil
}
