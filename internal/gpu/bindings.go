package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// NewLinearSampler creates the sampler shared by every layer: clamp to edge,
// linear min/mag filtering, nearest mip selection.
func NewLinearSampler(device hal.Device) (hal.Sampler, error) {
	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "layer_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, fmt.Errorf("create layer sampler: %w", err)
	}
	return sampler, nil
}

// NewUniformBuffer creates a uniform buffer holding u.
func NewUniformBuffer(device hal.Device, queue hal.Queue, u LayerUniforms) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "layer_uniforms",
		Size:  LayerUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create layer uniform buffer: %w", err)
	}
	queue.WriteBuffer(buf, 0, u.Bytes())
	return buf, nil
}

// NewUniformBindGroup binds a layer uniform buffer at group 0.
func (p *Pipelines) NewUniformBindGroup(buf hal.Buffer) (hal.BindGroup, error) {
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "layer_uniform_bind_group",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: LayerUniformSize,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create layer uniform bind group: %w", err)
	}
	return bg, nil
}

// NewTextureBindGroup binds a layer texture and the shared sampler at group 1.
func (p *Pipelines) NewTextureBindGroup(view hal.TextureView, sampler hal.Sampler) (hal.BindGroup, error) {
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "layer_texture_bind_group",
		Layout: p.textureLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create layer texture bind group: %w", err)
	}
	return bg, nil
}
