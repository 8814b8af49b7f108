package compositor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor/scene"
)

// recordingSink forwards to a BufferSink and counts calls.
type recordingSink struct {
	inner      *BufferSink
	prepareErr error
	presentErr error
	prepared   int
	presented  int
}

func (s *recordingSink) Format() gputypes.TextureFormat { return s.inner.Format() }

func (s *recordingSink) PrepareFrame() (hal.TextureView, error) {
	s.prepared++
	if s.prepareErr != nil {
		return nil, s.prepareErr
	}
	return s.inner.PrepareFrame()
}

func (s *recordingSink) Present() error {
	s.presented++
	if s.presentErr != nil {
		return s.presentErr
	}
	return s.inner.Present()
}

type fixture struct {
	ctx   *Context
	cache *TextureCache
	comp  *Compositor
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := newNoopContext(t)
	cache := NewTextureCache(ctx)
	comp, err := NewCompositor(ctx, cache, opts...)
	if err != nil {
		cache.Close()
		t.Fatalf("NewCompositor: %v", err)
	}
	// Cleanups run last-in first-out: compositor, then cache, then context.
	t.Cleanup(cache.Close)
	t.Cleanup(comp.Close)
	return &fixture{ctx: ctx, cache: cache, comp: comp}
}

func (f *fixture) sink(t *testing.T, width, height uint32) *recordingSink {
	t.Helper()
	bs, err := NewBufferSink(f.ctx, width, height)
	if err != nil {
		t.Fatalf("NewBufferSink: %v", err)
	}
	t.Cleanup(bs.Close)
	return &recordingSink{inner: bs}
}

func (f *fixture) upload(t *testing.T, width, height uint32) scene.ContentID {
	t.Helper()
	id := scene.NewContentID()
	if err := f.cache.Update(id, width, height, solidPixels(width, height, color.NRGBA{R: 200, G: 100, B: 50, A: 255})); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return id
}

func TestRenderSkipsMissingContent(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 64, 64)

	frame := scene.NewFrame(64, 64, scene.Black)
	frame.AddLayer(scene.NewVideoLayer(scene.NewContentID()))
	frame.AddLayer(scene.NewImageLayer(scene.NewContentID()))

	if err := f.comp.Render(frame, sink); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := FrameStats{Layers: 2, Draws: 0, Skipped: 2}
	if got := f.comp.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
	if sink.prepared != 1 || sink.presented != 1 {
		t.Errorf("prepared=%d presented=%d, want 1 and 1", sink.prepared, sink.presented)
	}
}

func TestRenderDrawsCachedAndColorLayers(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 128, 72)
	video := f.upload(t, 32, 18)
	img := f.upload(t, 8, 8)

	frame := scene.NewFrame(128, 72, scene.RGBA(0.1, 0.1, 0.1, 1))
	frame.AddLayer(scene.NewColorLayer(scene.RGBA(0, 0, 1, 0.5)))
	frame.AddLayer(scene.NewVideoLayer(video))
	frame.AddLayer(scene.NewImageLayer(img))
	frame.AddLayer(scene.NewVideoLayer(scene.NewContentID()))

	if err := f.comp.Render(frame, sink); err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := f.comp.Stats()
	if got.Layers != 4 || got.Draws != 3 || got.Skipped != 1 {
		t.Errorf("Stats() = %+v, want 4 layers, 3 draws, 1 skipped", got)
	}
}

func TestRenderSwitchesPipelineOnBlendChange(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 32, 32)

	modes := []scene.BlendMode{
		scene.BlendNormal,
		scene.BlendNormal,
		scene.BlendAdd,
		scene.BlendAdd,
		scene.BlendOverlay, // draws with the normal pipeline
		scene.BlendMultiply,
	}
	frame := scene.NewFrame(32, 32, scene.Transparent)
	for _, m := range modes {
		l := scene.NewColorLayer(scene.White)
		l.BlendMode = m
		frame.AddLayer(l)
	}

	if err := f.comp.Render(frame, sink); err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := f.comp.Stats()
	if got.Draws != len(modes) {
		t.Errorf("Draws = %d, want %d", got.Draws, len(modes))
	}
	// normal, add, normal (overlay), multiply
	if got.PipelineSwitches != 4 {
		t.Errorf("PipelineSwitches = %d, want 4", got.PipelineSwitches)
	}
}

func TestPlanKeepsListOrder(t *testing.T) {
	f := newFixture(t)
	a := f.upload(t, 4, 4)
	b := f.upload(t, 4, 4)

	frame := scene.NewFrame(100, 100, scene.Black)
	red := scene.NewColorLayer(scene.RGBA(1, 0, 0, 1))
	red.Opacity = 0.25
	frame.AddLayer(scene.NewImageLayer(b))
	frame.AddLayer(red)
	frame.AddLayer(scene.NewVideoLayer(a))

	draws, stats := f.comp.plan(frame)
	if stats.Draws != 3 || len(draws) != 3 {
		t.Fatalf("planned %d draws, want 3", len(draws))
	}
	resB, _ := f.cache.Lookup(b)
	resA, _ := f.cache.Lookup(a)
	if draws[0].view != resB.View() {
		t.Error("draw 0 does not sample the first layer's texture")
	}
	if draws[1].view != f.comp.whiteView {
		t.Error("color layer does not sample the white texture")
	}
	if draws[1].uniforms.Color != [4]float32{1, 0, 0, 1} || draws[1].uniforms.Opacity != 0.25 {
		t.Errorf("color layer uniforms = %+v", draws[1].uniforms)
	}
	if draws[2].view != resA.View() {
		t.Error("draw 2 does not sample the last layer's texture")
	}
	if draws[0].uniforms.Color != [4]float32{1, 1, 1, 1} {
		t.Errorf("textured layer color = %v, want opaque white", draws[0].uniforms.Color)
	}
}

func TestPlanTransformMapsAnchorToClipSpace(t *testing.T) {
	f := newFixture(t)
	frame := scene.NewFrame(200, 100, scene.Black)
	l := scene.NewColorLayer(scene.White)
	l.Transform.Position = scene.V2(100, 50)
	l.Transform.Scale = scene.V2(50, 50)
	frame.AddLayer(l)

	draws, _ := f.comp.plan(frame)
	center := scene.Apply(draws[0].uniforms.Transform, 0, 0)
	if abs(center.X) > 1e-5 || abs(center.Y) > 1e-5 {
		t.Errorf("frame center maps to clip %v, want (0,0)", center)
	}
	topLeft := scene.Apply(draws[0].uniforms.Transform, -0.5, -0.5)
	// (75,25) in a 200x100 frame is clip (-0.25, 0.5).
	if abs(topLeft.X+0.25) > 1e-5 || abs(topLeft.Y-0.5) > 1e-5 {
		t.Errorf("quad top-left maps to clip %v, want (-0.25,0.5)", topLeft)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestRenderSurfaceUnavailable(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 16, 16)
	outdated := errors.New("surface outdated")
	sink.prepareErr = outdated

	frame := scene.NewFrame(16, 16, scene.Black)
	frame.AddLayer(scene.NewColorLayer(scene.White))

	err := f.comp.Render(frame, sink)
	var se *SurfaceError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SurfaceError", err)
	}
	if !errors.Is(err, outdated) {
		t.Error("SurfaceError does not wrap the sink's error")
	}
	if sink.presented != 0 {
		t.Errorf("presented = %d after surface failure, want 0", sink.presented)
	}
	if got := f.comp.Stats(); got != (FrameStats{}) {
		t.Errorf("Stats() = %+v, want zero for a frame never submitted", got)
	}
	if got := f.comp.pipelines.Len(); got != 0 {
		t.Errorf("%d pipelines built for a frame whose target was never acquired", got)
	}

	// The next frame can succeed.
	sink.prepareErr = nil
	if err := f.comp.Render(frame, sink); err != nil {
		t.Fatalf("Render after recovery: %v", err)
	}
	if sink.presented != 1 {
		t.Errorf("presented = %d, want 1", sink.presented)
	}
}

func TestRenderSurfaceErrorNotDoubleWrapped(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 16, 16)
	inner := &SurfaceError{Err: errors.New("lost")}
	sink.prepareErr = inner

	err := f.comp.Render(scene.NewFrame(16, 16, scene.Black), sink)
	var se *SurfaceError
	if !errors.As(err, &se) || se != inner {
		t.Errorf("error = %v, want the sink's *SurfaceError unchanged", err)
	}
}

func TestRenderPresentError(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 16, 16)
	failed := errors.New("present failed")
	sink.presentErr = failed

	err := f.comp.Render(scene.NewFrame(16, 16, scene.Black), sink)
	if !errors.Is(err, failed) {
		t.Errorf("error = %v, want wrapped present error", err)
	}
}

func TestRenderInvalidFrame(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 16, 16)

	if err := f.comp.Render(nil, sink); !errors.Is(err, ErrNilFrame) {
		t.Errorf("nil frame error = %v, want ErrNilFrame", err)
	}
	if err := f.comp.Render(scene.NewFrame(0, 16, scene.Black), sink); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("zero width error = %v, want ErrInvalidDimensions", err)
	}
	noSource := scene.NewFrame(16, 16, scene.Black)
	noSource.AddLayer(scene.Layer{ID: scene.NewContentID(), Opacity: 1})
	if err := f.comp.Render(noSource, sink); !errors.Is(err, scene.ErrNoSource) {
		t.Errorf("nil source error = %v, want scene.ErrNoSource", err)
	}
	if sink.prepared != 0 {
		t.Errorf("prepared = %d for invalid frames, want 0", sink.prepared)
	}
}

func TestRenderFrameSizeMismatch(t *testing.T) {
	f := newFixture(t)
	sink, err := NewBufferSink(f.ctx, 32, 16)
	if err != nil {
		t.Fatalf("NewBufferSink: %v", err)
	}
	defer sink.Close()

	frame := scene.NewFrame(64, 32, scene.Black)
	frame.AddLayer(scene.NewColorLayer(scene.White))
	if err := f.comp.Render(frame, sink); !errors.Is(err, ErrFrameSizeMismatch) {
		t.Fatalf("error = %v, want ErrFrameSizeMismatch", err)
	}
	if _, err := sink.ReadPixels(context.Background()); !errors.Is(err, ErrNothingPresented) {
		t.Errorf("ReadPixels error = %v, want ErrNothingPresented", err)
	}

	frame.Width, frame.Height = 32, 16
	if err := f.comp.Render(frame, sink); err != nil {
		t.Fatalf("Render at the target size: %v", err)
	}
}

func TestRenderManyFrames(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 64, 36)
	video := f.upload(t, 16, 9)

	frame := scene.NewFrame(64, 36, scene.Black)
	l := scene.NewVideoLayer(video)
	l.Transform.Position = scene.V2(32, 18)
	l.Transform.Scale = scene.V2(16, 9)
	idx := frame.AddLayer(l)

	for i := 0; i < 10; i++ {
		// New decoded frame, same size.
		if err := f.cache.Update(video, 16, 9, solidPixels(16, 9, color.NRGBA{G: uint8(i * 20), A: 255})); err != nil {
			t.Fatalf("frame %d: Update: %v", i, err)
		}
		frame.Layers[idx].Transform.Rotation = float32(i) * 0.1
		if err := f.comp.Render(frame, sink); err != nil {
			t.Fatalf("frame %d: Render: %v", i, err)
		}
	}
	res, _ := f.cache.Lookup(video)
	if res.Uploads() != 11 {
		t.Errorf("Uploads() = %d, want 11", res.Uploads())
	}
	if sink.presented != 10 {
		t.Errorf("presented = %d, want 10", sink.presented)
	}
}

func TestRenderAfterRemove(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 16, 16)
	id := f.upload(t, 4, 4)

	frame := scene.NewFrame(16, 16, scene.Black)
	frame.AddLayer(scene.NewImageLayer(id))
	if err := f.comp.Render(frame, sink); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if f.comp.Stats().Draws != 1 {
		t.Fatalf("Draws = %d, want 1", f.comp.Stats().Draws)
	}

	f.cache.Remove(id)
	if err := f.comp.Render(frame, sink); err != nil {
		t.Fatalf("Render after Remove: %v", err)
	}
	if got := f.comp.Stats(); got.Draws != 0 || got.Skipped != 1 {
		t.Errorf("Stats() = %+v, want the removed layer skipped", got)
	}
	f.cache.mu.RLock()
	pending := len(f.cache.removed)
	f.cache.mu.RUnlock()
	if pending != 0 {
		t.Errorf("%d removed textures still pending after the next frame", pending)
	}
}

func TestCompositorPrewarm(t *testing.T) {
	f := newFixture(t, WithPrewarm(TextureFormat, gputypes.TextureFormatBGRA8Unorm))
	// Five fixed-function blend variants per format.
	if got := f.comp.pipelines.Len(); got != 10 {
		t.Errorf("prewarmed pipelines = %d, want 10", got)
	}

	sink := f.sink(t, 8, 8)
	frame := scene.NewFrame(8, 8, scene.Black)
	frame.AddLayer(scene.NewColorLayer(scene.White))
	if err := f.comp.Render(frame, sink); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := f.comp.pipelines.Len(); got != 10 {
		t.Errorf("pipelines after render = %d, want 10", got)
	}
}

func TestCompositorSPIRVShaders(t *testing.T) {
	ctx := newNoopContext(t)
	cache := NewTextureCache(ctx)
	defer cache.Close()
	comp, err := NewCompositor(ctx, cache, WithSPIRVShaders())
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "unsupported") {
			t.Skipf("shader compiler cannot lower the layer shader: %v", err)
		}
		t.Fatalf("NewCompositor(WithSPIRVShaders): %v", err)
	}
	comp.Close()
}

func TestCompositorClosed(t *testing.T) {
	f := newFixture(t)
	sink := f.sink(t, 8, 8)
	f.comp.Close()
	f.comp.Close()
	if err := f.comp.Render(scene.NewFrame(8, 8, scene.Black), sink); !errors.Is(err, ErrClosed) {
		t.Errorf("Render after Close error = %v, want ErrClosed", err)
	}
}

func TestClearColorPremultiplies(t *testing.T) {
	got := clearColor(scene.RGBA(1, 0.5, 0, 0.5))
	want := gputypes.Color{R: 0.5, G: 0.25, B: 0, A: 0.5}
	if got != want {
		t.Errorf("clearColor = %+v, want %+v", got, want)
	}
}

// TestCompositeToBuffer renders one 640x360 video layer on a 1280x720 frame
// and reads the result back.
func TestCompositeToBuffer(t *testing.T) {
	tests := []struct {
		name      string
		bg        scene.Color
		transform scene.LayerTransform
		opacity   float32
	}{
		{
			name: "rotated translucent",
			bg:   scene.RGBA(0.1, 0.1, 0.1, 1),
			transform: scene.LayerTransform{
				Position: scene.V2(640, 360),
				Scale:    scene.V2(1.5, 1.5),
				Rotation: math.Pi / 4,
				Anchor:   scene.V2(0.5, 0.5),
			},
			opacity: 0.8,
		},
		{
			name: "centered at source size",
			bg:   scene.Black,
			transform: scene.LayerTransform{
				Position: scene.V2(640, 360),
				Scale:    scene.V2(640, 360),
				Anchor:   scene.V2(0.5, 0.5),
			},
			opacity: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sink, err := NewBufferSink(f.ctx, 1280, 720)
			if err != nil {
				t.Fatalf("NewBufferSink: %v", err)
			}
			defer sink.Close()

			video := f.upload(t, 640, 360)
			frame := scene.NewFrame(1280, 720, tt.bg)
			l := scene.NewVideoLayer(video)
			l.Transform = tt.transform
			l.Opacity = tt.opacity
			frame.AddLayer(l)

			if err := f.comp.Render(frame, sink); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got := f.comp.Stats(); got.Draws != 1 {
				t.Errorf("Draws = %d, want 1", got.Draws)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			pix, err := sink.ReadPixels(ctx)
			if err != nil {
				t.Fatalf("ReadPixels: %v", err)
			}
			if len(pix) != 1280*720*4 {
				t.Errorf("len(pixels) = %d, want %d", len(pix), 1280*720*4)
			}

			img, err := sink.ReadImage(ctx)
			if err != nil {
				t.Fatalf("ReadImage: %v", err)
			}
			if img.Bounds() != image.Rect(0, 0, 1280, 720) {
				t.Errorf("ReadImage bounds = %v", img.Bounds())
			}
		})
	}
}
