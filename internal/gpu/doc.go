// Package gpu holds the frame-invariant GPU objects the compositor draws
// with: the layer shader program, its bind group layouts, one render
// pipeline per (target format, blend variant), the shared unit-quad
// geometry and the per-layer uniform layout.
//
// Everything here is built on the wgpu HAL (github.com/gogpu/wgpu/hal).
// Nothing in this package knows about frames or sinks; the root package
// owns frame orchestration and resource lifetime.
//
// # Bind groups
//
//	group 0, binding 0: LayerUniforms (uniform buffer, vertex+fragment)
//	group 1, binding 0: layer texture (texture_2d<f32>, fragment)
//	group 1, binding 1: linear clamp sampler (fragment)
//
// # Blending
//
// The fragment stage outputs premultiplied color. Each scene.BlendMode maps
// to a fixed-function BlendVariant; see [VariantFor].
package gpu
