// Package compositor composites layered 2D video, image and color sources
// into frames on the GPU.
//
// # Overview
//
// A frame is described by a [scene.FrameDescription]: output dimensions, a
// background color and an ordered list of layers. Each layer draws a video
// frame, a still image or a flat color through an affine transform with an
// opacity and a blend mode. The compositor draws the layers back to front
// (painter's algorithm) into a [Sink].
//
// # Quick Start
//
//	ctx, err := compositor.NewContext()
//	if err != nil {
//	    return err
//	}
//	defer ctx.Close()
//
//	cache := compositor.NewTextureCache(ctx)
//	defer cache.Close()
//
//	comp, err := compositor.NewCompositor(ctx, cache)
//	if err != nil {
//	    return err
//	}
//	defer comp.Close()
//
//	sink, err := compositor.NewBufferSink(ctx, 1280, 720)
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//
//	video := scene.NewContentID()
//	_ = cache.Update(video, 640, 360, pixels) // once per decoded frame
//
//	frame := scene.NewFrame(1280, 720, scene.Black)
//	layer := scene.NewVideoLayer(video)
//	layer.Transform.Position = scene.V2(640, 360)
//	layer.Transform.Scale = scene.V2(640, 360)
//	frame.AddLayer(layer)
//
//	if err := comp.Render(frame, sink); err != nil {
//	    return err
//	}
//	rgba, err := sink.ReadPixels(context.Background())
//
// # Resources
//
// Decoded pixels enter the GPU through a [TextureCache] keyed by content id.
// A video source re-uploads into the same texture every frame; the texture
// is allocated once per id and never resized.
//
// # Sinks
//
// [BufferSink] renders off-screen and reads frames back to CPU memory.
// [SurfaceSink] presents to a display surface supplied by the host through
// [SurfaceProvider]. Both report their size, and Render rejects frames of
// any other size with [ErrFrameSizeMismatch]; resize the sink first.
//
// # Coordinate System
//
//   - Origin (0,0) at the top-left of the output frame
//   - X increases right, Y increases down, units are pixels
//   - Rotation in radians, positive turns clockwise on screen
//   - A layer is a unit quad scaled by Transform.Scale, so Scale is the
//     drawn size in pixels
//
// # Logging
//
// Nothing is logged by default. See [SetLogger].
package compositor
