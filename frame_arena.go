// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor/internal/gpu"
)

// layerDraw is one planned quad draw.
type layerDraw struct {
	variant  gpu.BlendVariant
	view     hal.TextureView
	uniforms gpu.LayerUniforms
}

// frameArena owns the transient GPU objects of one frame. It is released
// as a unit once the frame's fence value has been reached.
type frameArena struct {
	draws     []layerDraw
	pipelines []hal.RenderPipeline
	buffers   []hal.Buffer
	uniforms  []hal.BindGroup
	textures  []hal.BindGroup

	cmdBuf     hal.CommandBuffer
	fenceValue uint64
}

func newFrameArena(draws []layerDraw) *frameArena {
	n := len(draws)
	return &frameArena{
		draws:     draws,
		pipelines: make([]hal.RenderPipeline, 0, n),
		buffers:   make([]hal.Buffer, 0, n),
		uniforms:  make([]hal.BindGroup, 0, n),
		textures:  make([]hal.BindGroup, 0, n),
	}
}

// build creates the pipeline, uniform buffer and bind groups of every draw.
// On error the objects created so far stay in the arena for release.
func (a *frameArena) build(ctx *Context, p *gpu.Pipelines, sampler hal.Sampler, format gputypes.TextureFormat) error {
	for _, d := range a.draws {
		pl, err := p.Ensure(format, d.variant)
		if err != nil {
			return err
		}
		a.pipelines = append(a.pipelines, pl)

		buf, err := gpu.NewUniformBuffer(ctx.device, ctx.queue, d.uniforms)
		if err != nil {
			return err
		}
		a.buffers = append(a.buffers, buf)

		ubg, err := p.NewUniformBindGroup(buf)
		if err != nil {
			return err
		}
		a.uniforms = append(a.uniforms, ubg)

		tbg, err := p.NewTextureBindGroup(d.view, sampler)
		if err != nil {
			return err
		}
		a.textures = append(a.textures, tbg)
	}
	return nil
}

// release destroys everything the arena owns. Pipelines are shared and
// left alone.
func (a *frameArena) release(device hal.Device) {
	if a.cmdBuf != nil {
		device.FreeCommandBuffer(a.cmdBuf)
		a.cmdBuf = nil
	}
	for _, bg := range a.textures {
		device.DestroyBindGroup(bg)
	}
	for _, bg := range a.uniforms {
		device.DestroyBindGroup(bg)
	}
	for _, buf := range a.buffers {
		device.DestroyBuffer(buf)
	}
	a.textures, a.uniforms, a.buffers, a.pipelines = nil, nil, nil, nil
}
