// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Sink is the destination of a composited frame.
//
// For each Render the compositor calls PrepareFrame once to obtain the
// view it draws into, submits its commands, then calls Present. If
// PrepareFrame fails nothing is submitted and Present is not called.
type Sink interface {
	// Format is the pixel format of the views PrepareFrame returns.
	Format() gputypes.TextureFormat

	// PrepareFrame returns a writable view sized to the frame.
	PrepareFrame() (hal.TextureView, error)

	// Present hands the finished target to its destination.
	Present() error
}

// SizedSink is a Sink that knows its target size. Render rejects frames
// whose dimensions differ from it instead of stretching them. BufferSink
// and SurfaceSink implement it.
type SizedSink interface {
	Sink
	Size() (width, height uint32)
}

var (
	_ SizedSink = (*BufferSink)(nil)
	_ SizedSink = (*SurfaceSink)(nil)
)
