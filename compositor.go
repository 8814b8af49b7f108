// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor/internal/gpu"
	"github.com/gogpu/compositor/scene"
)

// ErrNilFrame is returned by Render for a nil frame description.
var ErrNilFrame = errors.New("compositor: nil frame description")

// FrameStats describes the last rendered frame.
type FrameStats struct {
	// Layers is the number of layers in the frame description.
	Layers int

	// Draws is the number of quads drawn.
	Draws int

	// Skipped counts video and image layers whose content was not in the
	// texture cache.
	Skipped int

	// PipelineSwitches counts SetPipeline calls in the render pass.
	PipelineSwitches int
}

// Compositor draws frame descriptions onto sinks.
//
// One frame is in flight at a time: Render waits for the previous frame's
// GPU work before reusing or releasing its objects. Render and Close are
// serialized internally.
//
// Removed textures are released by the compositor once the frame that may
// have sampled them has completed, so a TextureCache should be drawn by a
// single Compositor.
type Compositor struct {
	ctx   *Context
	cache *TextureCache

	pipelines *gpu.Pipelines
	quad      *gpu.QuadBuffers
	sampler   hal.Sampler
	white     hal.Texture
	whiteView hal.TextureView
	fence     hal.Fence

	mu         sync.Mutex
	fenceValue uint64
	inFlight   *frameArena
	stats      FrameStats
	closed     bool
}

// NewCompositor creates a compositor drawing textures from cache.
func NewCompositor(ctx *Context, cache *TextureCache, opts ...Option) (*Compositor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Compositor{ctx: ctx, cache: cache}
	if err := c.init(o); err != nil {
		c.destroy()
		return nil, err
	}
	return c, nil
}

func (c *Compositor) init(o options) error {
	device := c.ctx.device

	pipelines, err := gpu.NewPipelines(device, o.spirv)
	if err != nil {
		return err
	}
	c.pipelines = pipelines

	quad, err := gpu.NewQuadBuffers(device, c.ctx.queue)
	if err != nil {
		return err
	}
	c.quad = quad

	sampler, err := gpu.NewLinearSampler(device)
	if err != nil {
		return err
	}
	c.sampler = sampler

	if err := c.initWhite(); err != nil {
		return err
	}

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create frame fence: %w", err)
	}
	c.fence = fence

	for _, format := range o.prewarm {
		if err := c.pipelines.EnsureAll(format); err != nil {
			return err
		}
	}
	return nil
}

// initWhite creates the 1x1 opaque white texture color layers sample.
func (c *Compositor) initWhite() error {
	device := c.ctx.device
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "solid_white",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create white texture: %w", err)
	}
	c.white = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "solid_white_view",
		Format:        TextureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create white texture view: %w", err)
	}
	c.whiteView = view

	c.ctx.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		[]byte{0xFF, 0xFF, 0xFF, 0xFF},
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	return nil
}

// Render composites frame onto sink.
//
// Layers are drawn in list order over the background color. Video and image
// layers whose content id has no cached texture are skipped. If the sink
// cannot provide a target, Render returns a *SurfaceError and neither
// submits nor presents; the caller may retry with the next frame. A
// SizedSink whose size differs from the frame's is rejected with
// ErrFrameSizeMismatch before anything is acquired.
func (c *Compositor) Render(frame *scene.FrameDescription, sink Sink) error {
	if frame == nil {
		return ErrNilFrame
	}
	if err := frame.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	wctx, cancel := context.WithTimeout(context.Background(), gpuWaitTimeout)
	defer cancel()
	if err := c.retire(wctx); err != nil {
		return err
	}
	c.cache.collect()

	if sized, ok := sink.(SizedSink); ok {
		if w, h := sized.Size(); w != frame.Width || h != frame.Height {
			return fmt.Errorf("%w: frame %dx%d, target %dx%d",
				ErrFrameSizeMismatch, frame.Width, frame.Height, w, h)
		}
	}

	view, err := sink.PrepareFrame()
	if err != nil {
		var se *SurfaceError
		if errors.As(err, &se) {
			return err
		}
		return &SurfaceError{Err: err}
	}

	draws, stats := c.plan(frame)
	arena := newFrameArena(draws)
	if err := arena.build(c.ctx, c.pipelines, c.sampler, sink.Format()); err != nil {
		arena.release(c.ctx.device)
		return err
	}

	cmdBuf, switches, err := c.encode(view, frame.BackgroundColor, arena)
	if err != nil {
		arena.release(c.ctx.device)
		return err
	}
	stats.PipelineSwitches = switches

	next := c.fenceValue + 1
	if err := c.ctx.queue.Submit([]hal.CommandBuffer{cmdBuf}, c.fence, next); err != nil {
		c.ctx.device.FreeCommandBuffer(cmdBuf)
		arena.release(c.ctx.device)
		return fmt.Errorf("submit frame: %w", err)
	}
	c.fenceValue = next
	arena.cmdBuf = cmdBuf
	arena.fenceValue = next
	c.inFlight = arena
	c.stats = stats

	Logger().Debug("compositor: frame submitted",
		"layers", stats.Layers, "draws", stats.Draws, "skipped", stats.Skipped,
		"pipeline_switches", stats.PipelineSwitches)

	if err := sink.Present(); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	return nil
}

// plan resolves every layer to a draw in list order.
func (c *Compositor) plan(frame *scene.FrameDescription) ([]layerDraw, FrameStats) {
	stats := FrameStats{Layers: len(frame.Layers)}
	draws := make([]layerDraw, 0, len(frame.Layers))
	proj := scene.Projection(frame.Width, frame.Height)

	for i := range frame.Layers {
		l := &frame.Layers[i]
		d := layerDraw{
			variant: gpu.VariantFor(l.BlendMode),
			uniforms: gpu.LayerUniforms{
				Transform: proj.Mul4(l.Transform.Matrix()),
				Color:     [4]float32{1, 1, 1, 1},
				Opacity:   l.Opacity,
			},
		}
		if src, ok := l.Source.(scene.ColorSource); ok {
			d.view = c.whiteView
			d.uniforms.Color = [4]float32(src.Color)
		} else {
			id, _ := scene.ContentRef(l.Source)
			res, found := c.cache.Lookup(id)
			if !found {
				stats.Skipped++
				continue
			}
			d.view = res.View()
		}
		draws = append(draws, d)
	}
	stats.Draws = len(draws)
	return draws, stats
}

// encode records one render pass that clears view to bg and draws the
// arena's layers. The pipeline is only switched when the blend variant
// changes.
func (c *Compositor) encode(view hal.TextureView, bg scene.Color, arena *frameArena) (hal.CommandBuffer, int, error) {
	encoder, err := c.ctx.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "compositor_encoder",
	})
	if err != nil {
		return nil, 0, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("composite_frame"); err != nil {
		return nil, 0, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "composite_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearColor(bg),
			},
		},
	})

	switches := 0
	if len(arena.draws) > 0 {
		c.quad.Bind(rp)
	}
	for i, d := range arena.draws {
		if i == 0 || d.variant != arena.draws[i-1].variant {
			rp.SetPipeline(arena.pipelines[i])
			switches++
		}
		rp.SetBindGroup(0, arena.uniforms[i], nil)
		rp.SetBindGroup(1, arena.textures[i], nil)
		rp.DrawIndexed(gpu.QuadIndexCount, 1, 0, 0, 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, 0, fmt.Errorf("end encoding: %w", err)
	}
	return cmdBuf, switches, nil
}

// clearColor converts the straight-alpha background to the premultiplied
// clear value the blend states expect.
func clearColor(bg scene.Color) gputypes.Color {
	p := bg.Premultiplied()
	return gputypes.Color{R: float64(p[0]), G: float64(p[1]), B: float64(p[2]), A: float64(p[3])}
}

// retire waits for the in-flight frame and releases its arena.
func (c *Compositor) retire(ctx context.Context) error {
	if c.inFlight == nil {
		return nil
	}
	if err := waitFence(ctx, c.ctx.device, c.fence, c.inFlight.fenceValue); err != nil {
		return fmt.Errorf("wait for previous frame: %w", err)
	}
	c.inFlight.release(c.ctx.device)
	c.inFlight = nil
	return nil
}

// Stats returns statistics of the last successfully submitted frame.
func (c *Compositor) Stats() FrameStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close waits for the in-flight frame and destroys the compositor's GPU
// objects. The texture cache is not closed. Safe to call more than once.
func (c *Compositor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	wctx, cancel := context.WithTimeout(context.Background(), gpuWaitTimeout)
	defer cancel()
	if err := c.retire(wctx); err != nil {
		Logger().Warn("compositor: close", "err", err)
	}
	c.cache.collect()
	c.destroy()
}

func (c *Compositor) destroy() {
	device := c.ctx.device
	if c.fence != nil {
		device.DestroyFence(c.fence)
		c.fence = nil
	}
	if c.whiteView != nil {
		device.DestroyTextureView(c.whiteView)
		c.whiteView = nil
	}
	if c.white != nil {
		device.DestroyTexture(c.white)
		c.white = nil
	}
	if c.sampler != nil {
		device.DestroySampler(c.sampler)
		c.sampler = nil
	}
	if c.quad != nil {
		c.quad.Destroy()
		c.quad = nil
	}
	if c.pipelines != nil {
		c.pipelines.Destroy()
		c.pipelines = nil
	}
}
