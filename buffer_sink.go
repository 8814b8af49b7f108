// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the row alignment texture-to-buffer copies require.
const copyPitchAlignment = 256

// fencePollInterval bounds each device wait so ReadPixels can observe
// context cancellation.
const fencePollInterval = 10 * time.Millisecond

// gpuWaitTimeout bounds internal waits that have no caller context.
const gpuWaitTimeout = 5 * time.Second

// BufferSink renders off-screen into an RGBA8 texture and copies every
// presented frame into a CPU-readable staging buffer.
//
// BufferSink is safe for concurrent use, but frames are read back in
// present order: ReadPixels returns the most recently presented frame.
type BufferSink struct {
	ctx           *Context
	width, height uint32
	paddedRow     uint32

	texture hal.Texture
	view    hal.TextureView
	staging hal.Buffer
	fence   hal.Fence

	mu         sync.Mutex
	fenceValue uint64
	pending    hal.CommandBuffer
	presented  bool
	closed     bool
}

// NewBufferSink allocates a width x height off-screen target.
func NewBufferSink(ctx *Context, width, height uint32) (*BufferSink, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: sink %dx%d", ErrInvalidDimensions, width, height)
	}
	s := &BufferSink{
		ctx:       ctx,
		width:     width,
		height:    height,
		paddedRow: paddedBytesPerRow(width),
	}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *BufferSink) init() error {
	device := s.ctx.device
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "buffer_sink_target",
		Size:          hal.Extent3D{Width: s.width, Height: s.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create sink texture: %w", err)
	}
	s.texture = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "buffer_sink_target_view",
		Format:        TextureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create sink texture view: %w", err)
	}
	s.view = view

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "buffer_sink_staging",
		Size:  uint64(s.paddedRow) * uint64(s.height),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create sink staging buffer: %w", err)
	}
	s.staging = staging

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create sink fence: %w", err)
	}
	s.fence = fence
	return nil
}

// Size returns the target dimensions.
func (s *BufferSink) Size() (width, height uint32) { return s.width, s.height }

// Format implements Sink.
func (s *BufferSink) Format() gputypes.TextureFormat { return TextureFormat }

// PrepareFrame implements Sink.
func (s *BufferSink) PrepareFrame() (hal.TextureView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.view, nil
}

// Present implements Sink. It records a copy of the target into the staging
// buffer and submits it without waiting.
func (s *BufferSink) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	// The staging buffer is reused; the previous copy must have landed.
	wctx, cancel := context.WithTimeout(context.Background(), gpuWaitTimeout)
	defer cancel()
	if err := s.waitLocked(wctx); err != nil {
		return err
	}

	device := s.ctx.device
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "buffer_sink_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("buffer_sink_copy"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(s.texture, s.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: s.paddedRow, RowsPerImage: s.height},
		TextureBase:  hal.ImageCopyTexture{Texture: s.texture, MipLevel: 0},
		Size:         hal.Extent3D{Width: s.width, Height: s.height, DepthOrArrayLayers: 1},
	}})
	// Back to RenderAttachment so the next frame's pass starts from the
	// layout it expects.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	next := s.fenceValue + 1
	if err := s.ctx.queue.Submit([]hal.CommandBuffer{cmdBuf}, s.fence, next); err != nil {
		device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("submit sink copy: %w", err)
	}
	s.fenceValue = next
	s.pending = cmdBuf
	s.presented = true
	return nil
}

// waitLocked blocks until the last submitted copy has completed, then frees
// its command buffer. It returns early with a ReadbackError if ctx is done.
func (s *BufferSink) waitLocked(ctx context.Context) error {
	if s.pending == nil {
		return nil
	}
	if err := waitFence(ctx, s.ctx.device, s.fence, s.fenceValue); err != nil {
		return &ReadbackError{Op: "wait", Err: err}
	}
	s.ctx.device.FreeCommandBuffer(s.pending)
	s.pending = nil
	return nil
}

// ReadPixels waits for the most recently presented frame and returns it as
// tightly packed RGBA rows, width*height*4 bytes. Colors are premultiplied
// by alpha.
//
// ReadPixels has no timeout of its own; cancel ctx to bound the wait.
func (s *BufferSink) ReadPixels(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if !s.presented {
		return nil, ErrNothingPresented
	}
	if err := s.waitLocked(ctx); err != nil {
		return nil, err
	}

	raw := make([]byte, uint64(s.paddedRow)*uint64(s.height))
	if err := s.ctx.queue.ReadBuffer(s.staging, 0, raw); err != nil {
		return nil, &ReadbackError{Op: "map", Err: err}
	}
	return unpadRows(raw, s.width*4, s.paddedRow, s.height), nil
}

// ReadImage is ReadPixels wrapped in an *image.RGBA, whose pixel layout
// matches the premultiplied output.
func (s *BufferSink) ReadImage(ctx context.Context) (*image.RGBA, error) {
	pix, err := s.ReadPixels(ctx)
	if err != nil {
		return nil, err
	}
	return &image.RGBA{
		Pix:    pix,
		Stride: int(s.width) * 4,
		Rect:   image.Rect(0, 0, int(s.width), int(s.height)),
	}, nil
}

// Close releases the target, staging buffer and fence.
// Safe to call more than once.
func (s *BufferSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	device := s.ctx.device
	wctx, cancel := context.WithTimeout(context.Background(), gpuWaitTimeout)
	defer cancel()
	if err := s.waitLocked(wctx); err != nil {
		Logger().Warn("compositor: buffer sink close", "err", err)
	}
	if s.fence != nil {
		device.DestroyFence(s.fence)
	}
	if s.staging != nil {
		device.DestroyBuffer(s.staging)
	}
	if s.view != nil {
		device.DestroyTextureView(s.view)
	}
	if s.texture != nil {
		device.DestroyTexture(s.texture)
	}
}

// paddedBytesPerRow rounds a width*4 row up to the copy pitch alignment.
func paddedBytesPerRow(width uint32) uint32 {
	return (width*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// unpadRows strips per-row padding from a staging buffer copy.
func unpadRows(raw []byte, rowBytes, paddedRow, height uint32) []byte {
	if rowBytes == paddedRow {
		return raw[:uint64(rowBytes)*uint64(height)]
	}
	out := make([]byte, uint64(rowBytes)*uint64(height))
	for row := uint32(0); row < height; row++ {
		src := uint64(row) * uint64(paddedRow)
		dst := uint64(row) * uint64(rowBytes)
		copy(out[dst:dst+uint64(rowBytes)], raw[src:src+uint64(rowBytes)])
	}
	return out
}

// waitFence polls the device until fence reaches value or ctx is done.
func waitFence(ctx context.Context, device hal.Device, fence hal.Fence, value uint64) error {
	for {
		ok, err := device.Wait(fence, value, fencePollInterval)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
