package compositor

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor/scene"
)

// Sentinel errors.
var (
	// ErrAdapterNotFound is returned when no usable GPU adapter exists.
	ErrAdapterNotFound = errors.New("compositor: no compatible GPU adapter found")

	// ErrTextureSizeMismatch is returned when a content id is updated with a
	// size different from its existing allocation. The allocation and its
	// previous content are left untouched.
	ErrTextureSizeMismatch = errors.New("compositor: texture size mismatch")

	// ErrInvalidPixelData is returned when pixel bytes do not match
	// width*height*4.
	ErrInvalidPixelData = errors.New("compositor: invalid pixel data length")

	// ErrInvalidDimensions is returned for a zero width or height. It is the
	// same value as scene.ErrInvalidDimensions so either can be matched.
	ErrInvalidDimensions = scene.ErrInvalidDimensions

	// ErrFrameSizeMismatch is returned by Render when a sink reports a
	// target size different from the frame's dimensions.
	ErrFrameSizeMismatch = errors.New("compositor: frame size differs from sink target")

	// ErrNothingPresented is returned when reading back from a buffer sink
	// that has not presented a frame yet.
	ErrNothingPresented = errors.New("compositor: no frame has been presented")

	// ErrClosed is returned when using a closed object.
	ErrClosed = errors.New("compositor: use of closed object")
)

// DeviceCreationError reports that the platform rejected device or queue
// creation on the chosen adapter.
type DeviceCreationError struct {
	Adapter string
	Reason  error
}

func (e *DeviceCreationError) Error() string {
	if e.Adapter == "" {
		return fmt.Sprintf("compositor: device creation failed: %v", e.Reason)
	}
	return fmt.Sprintf("compositor: device creation failed on %q: %v", e.Adapter, e.Reason)
}

func (e *DeviceCreationError) Unwrap() error { return e.Reason }

// SurfaceError reports that the sink could not provide a writable target.
// The underlying condition is passed through unclassified; callers decide
// whether to retry on the next frame.
type SurfaceError struct {
	Err error
}

func (e *SurfaceError) Error() string {
	return fmt.Sprintf("compositor: surface unavailable: %v", e.Err)
}

func (e *SurfaceError) Unwrap() error { return e.Err }

// ReadbackError reports a failure while copying a rendered frame back to
// CPU memory.
type ReadbackError struct {
	Op  string
	Err error
}

func (e *ReadbackError) Error() string {
	return fmt.Sprintf("compositor: readback %s: %v", e.Op, e.Err)
}

func (e *ReadbackError) Unwrap() error { return e.Err }
