// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

type pipelineKey struct {
	format  gputypes.TextureFormat
	variant BlendVariant
}

// Pipelines owns the layer shader, its bind group layouts and the render
// pipelines built from them. Pipelines are created on first use per target
// format and blend variant and live until Destroy.
//
// Pipelines is not safe for concurrent use.
type Pipelines struct {
	device hal.Device

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	textureLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout

	pipelines map[pipelineKey]hal.RenderPipeline
}

// NewPipelines compiles the layer shader and creates the bind group and
// pipeline layouts. When spirv is set the WGSL source is compiled to SPIR-V
// with naga first.
func NewPipelines(device hal.Device, spirv bool) (*Pipelines, error) {
	p := &Pipelines{
		device:    device,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
	if err := p.init(spirv); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *Pipelines) init(spirv bool) error {
	shader, err := createShaderModule(p.device, spirv)
	if err != nil {
		return err
	}
	p.shader = shader

	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "layer_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create layer uniform layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	textureLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "layer_texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create layer texture layout: %w", err)
	}
	p.textureLayout = textureLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "layer_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout, p.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("create layer pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout
	return nil
}

// UniformLayout is the layout of bind group 0.
func (p *Pipelines) UniformLayout() hal.BindGroupLayout { return p.uniformLayout }

// TextureLayout is the layout of bind group 1.
func (p *Pipelines) TextureLayout() hal.BindGroupLayout { return p.textureLayout }

// Len returns the number of render pipelines created so far.
func (p *Pipelines) Len() int { return len(p.pipelines) }

// Ensure returns the render pipeline for the target format and blend
// variant, creating it if needed.
func (p *Pipelines) Ensure(format gputypes.TextureFormat, v BlendVariant) (hal.RenderPipeline, error) {
	key := pipelineKey{format: format, variant: v}
	if pl, ok := p.pipelines[key]; ok {
		return pl, nil
	}
	if p.shader == nil {
		return nil, fmt.Errorf("layer pipeline %s: pipelines destroyed", v)
	}

	blend := v.BlendState()
	pl, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "layer_pipeline_" + v.String(),
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: vertexEntryPoint,
			Buffers:    QuadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: fragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create layer pipeline %s: %w", v, err)
	}
	p.pipelines[key] = pl
	slogger().Debug("layer pipeline created", "variant", v.String(), "format", format)
	return pl, nil
}

// EnsureAll creates every blend variant for format.
func (p *Pipelines) EnsureAll(format gputypes.TextureFormat) error {
	for v := BlendVariant(0); v < blendVariantCount; v++ {
		if _, err := p.Ensure(format, v); err != nil {
			return err
		}
	}
	return nil
}

// Destroy releases every pipeline, layout and the shader module.
// Safe to call more than once.
func (p *Pipelines) Destroy() {
	for key, pl := range p.pipelines {
		p.device.DestroyRenderPipeline(pl)
		delete(p.pipelines, key)
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.textureLayout != nil {
		p.device.DestroyBindGroupLayout(p.textureLayout)
		p.textureLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
