package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LayerUniformSize is the byte size of the LayerUniforms block.
// Layout (std140, matches the WGSL struct):
//
//	transform (mat4x4<f32>) = 64 bytes at 0
//	color     (vec4<f32>)   = 16 bytes at 64
//	opacity   (f32)         =  4 bytes at 80
//	padding                 = 12 bytes at 84
const LayerUniformSize = 96

// LayerUniforms is the per-draw payload of one layer.
type LayerUniforms struct {
	// Transform is projection * model.
	Transform mgl32.Mat4

	// Color tints the sampled texel. Textured layers use opaque white;
	// color layers sample a white texel and carry their fill here.
	Color [4]float32

	Opacity float32
}

// Bytes encodes u in the layout of LayerUniformSize.
func (u LayerUniforms) Bytes() []byte {
	buf := make([]byte, LayerUniformSize)
	// mgl32 matrices are column-major, as WGSL expects.
	for i, f := range u.Transform {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	for i, f := range u.Color {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(f))
	}
	binary.LittleEndian.PutUint32(buf[80:], math.Float32bits(u.Opacity))
	return buf
}
