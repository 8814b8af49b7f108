// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// QuadVertexStride is the byte stride per vertex of the unit quad.
// Layout per vertex:
//
//	position   (vec2<f32>) = 8 bytes (location 0)
//	tex_coords (vec2<f32>) = 8 bytes (location 1)
const QuadVertexStride = 16

// QuadIndexCount is the number of indices drawn per layer.
const QuadIndexCount = 6

// QuadVertex is one corner of the unit quad.
type QuadVertex struct {
	Position  [2]float32
	TexCoords [2]float32
}

// QuadVertices spans (-0.5,-0.5) to (0.5,0.5). Local space is y-down, so
// texel row 0 sits at y = -0.5.
var QuadVertices = [4]QuadVertex{
	{Position: [2]float32{-0.5, -0.5}, TexCoords: [2]float32{0, 0}},
	{Position: [2]float32{-0.5, 0.5}, TexCoords: [2]float32{0, 1}},
	{Position: [2]float32{0.5, 0.5}, TexCoords: [2]float32{1, 1}},
	{Position: [2]float32{0.5, -0.5}, TexCoords: [2]float32{1, 0}},
}

// QuadIndices are the two triangles of the unit quad.
var QuadIndices = [QuadIndexCount]uint16{0, 1, 2, 0, 2, 3}

// QuadVertexLayout describes the vertex buffer for the render pipeline.
func QuadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: QuadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // tex_coords
			},
		},
	}
}

// quadVertexBytes serializes QuadVertices.
func quadVertexBytes() []byte {
	buf := make([]byte, len(QuadVertices)*QuadVertexStride)
	for i, v := range QuadVertices {
		off := i * QuadVertexStride
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Position[1]))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v.TexCoords[0]))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(v.TexCoords[1]))
	}
	return buf
}

// quadIndexBytes serializes QuadIndices.
func quadIndexBytes() []byte {
	buf := make([]byte, len(QuadIndices)*2)
	for i, idx := range QuadIndices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}

// QuadBuffers holds the unit-quad vertex and index buffers shared by every
// layer of every frame.
type QuadBuffers struct {
	device hal.Device
	Vertex hal.Buffer
	Index  hal.Buffer
}

// NewQuadBuffers allocates and uploads the unit quad.
func NewQuadBuffers(device hal.Device, queue hal.Queue) (*QuadBuffers, error) {
	vdata := quadVertexBytes()
	vbuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "quad_vertices",
		Size:  uint64(len(vdata)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create quad vertex buffer: %w", err)
	}

	idata := quadIndexBytes()
	ibuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "quad_indices",
		Size:  uint64(len(idata)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		device.DestroyBuffer(vbuf)
		return nil, fmt.Errorf("create quad index buffer: %w", err)
	}

	queue.WriteBuffer(vbuf, 0, vdata)
	queue.WriteBuffer(ibuf, 0, idata)
	return &QuadBuffers{device: device, Vertex: vbuf, Index: ibuf}, nil
}

// Bind sets the quad buffers on a render pass.
func (q *QuadBuffers) Bind(rp hal.RenderPassEncoder) {
	rp.SetVertexBuffer(0, q.Vertex, 0)
	rp.SetIndexBuffer(q.Index, gputypes.IndexFormatUint16, 0)
}

// Destroy releases both buffers. Safe to call more than once.
func (q *QuadBuffers) Destroy() {
	if q.Vertex != nil {
		q.device.DestroyBuffer(q.Vertex)
		q.Vertex = nil
	}
	if q.Index != nil {
		q.device.DestroyBuffer(q.Index)
		q.Index = nil
	}
}
