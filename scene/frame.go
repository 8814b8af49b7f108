package scene

import (
	"errors"
	"fmt"
)

// Errors returned by the scene package.
var (
	// ErrInvalidDimensions is returned when a frame has a zero width or height.
	ErrInvalidDimensions = errors.New("scene: frame dimensions must be non-zero")

	// ErrNoSource is returned when a layer has no source.
	ErrNoSource = errors.New("scene: layer has no source")
)

// FrameDescription is one composited output frame.
//
// Layers are drawn in slice order, back to front. There is no depth test
// and no other sort key.
type FrameDescription struct {
	Width, Height   uint32
	BackgroundColor Color
	Layers          []Layer
}

// NewFrame returns an empty frame of the given size cleared to bg.
func NewFrame(width, height uint32, bg Color) *FrameDescription {
	return &FrameDescription{
		Width:           width,
		Height:          height,
		BackgroundColor: bg,
		Layers:          []Layer{},
	}
}

// AddLayer appends l on top of the existing layers and returns its index.
func (f *FrameDescription) AddLayer(l Layer) int {
	f.Layers = append(f.Layers, l)
	return len(f.Layers) - 1
}

// Layer returns the layer with the given id.
func (f *FrameDescription) Layer(id ContentID) (*Layer, bool) {
	for i := range f.Layers {
		if f.Layers[i].ID == id {
			return &f.Layers[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of f.
func (f *FrameDescription) Clone() *FrameDescription {
	out := *f
	out.Layers = make([]Layer, len(f.Layers))
	for i, l := range f.Layers {
		out.Layers[i] = l.Clone()
	}
	return &out
}

// Validate checks that the frame can be rendered.
func (f *FrameDescription) Validate() error {
	if f.Width == 0 || f.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, f.Width, f.Height)
	}
	for i := range f.Layers {
		if f.Layers[i].Source == nil {
			return fmt.Errorf("layer %d (%s): %w", i, f.Layers[i].ID, ErrNoSource)
		}
	}
	return nil
}
