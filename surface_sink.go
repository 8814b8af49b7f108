// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrFrameNotAcquired is returned by SurfaceSink.Present when no frame was
// acquired since the last present.
var ErrFrameNotAcquired = errors.New("compositor: present without an acquired frame")

// SurfaceProvider is a presentable display surface, usually a window's
// swapchain. Implementations live with the windowing code that owns the
// surface.
type SurfaceProvider interface {
	// Format is the pixel format of acquired views.
	Format() gputypes.TextureFormat

	// Configure (re)creates the presentable images at the given size.
	Configure(width, height uint32) error

	// AcquireView returns a view of the next presentable image. Transient
	// conditions such as an outdated or lost surface are reported as errors.
	AcquireView() (hal.TextureView, error)

	// Present queues the acquired image for display.
	Present() error
}

// SurfaceSink presents composited frames to a SurfaceProvider.
type SurfaceSink struct {
	provider SurfaceProvider

	mu            sync.Mutex
	width, height uint32
	acquired      bool
}

// NewSurfaceSink configures provider at width x height.
func NewSurfaceSink(provider SurfaceProvider, width, height uint32) (*SurfaceSink, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: surface %dx%d", ErrInvalidDimensions, width, height)
	}
	if err := provider.Configure(width, height); err != nil {
		return nil, &SurfaceError{Err: fmt.Errorf("configure %dx%d: %w", width, height, err)}
	}
	return &SurfaceSink{provider: provider, width: width, height: height}, nil
}

// Size returns the configured surface size.
func (s *SurfaceSink) Size() (width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize reconfigures the surface. A zero width or height, as reported for
// minimized windows, is ignored and so is the current size.
func (s *SurfaceSink) Resize(width, height uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width == 0 || height == 0 {
		return nil
	}
	if width == s.width && height == s.height {
		return nil
	}
	if err := s.provider.Configure(width, height); err != nil {
		return &SurfaceError{Err: fmt.Errorf("configure %dx%d: %w", width, height, err)}
	}
	s.width, s.height = width, height
	Logger().Debug("compositor: surface resized", "width", width, "height", height)
	return nil
}

// Format implements Sink.
func (s *SurfaceSink) Format() gputypes.TextureFormat { return s.provider.Format() }

// PrepareFrame implements Sink. Acquisition errors are returned unchanged.
func (s *SurfaceSink) PrepareFrame() (hal.TextureView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, err := s.provider.AcquireView()
	if err != nil {
		return nil, err
	}
	s.acquired = true
	return view, nil
}

// Present implements Sink.
func (s *SurfaceSink) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.acquired {
		return ErrFrameNotAcquired
	}
	s.acquired = false
	return s.provider.Present()
}
