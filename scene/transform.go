package scene

import "github.com/go-gl/mathgl/mgl32"

// LayerTransform places a layer's unit quad in pixel space.
type LayerTransform struct {
	// Position is where the anchor lands, in pixels.
	Position Vec2

	// Scale multiplies the unit quad. (1,1) draws a 1x1 pixel quad, so a
	// layer showing a 640x360 texture at native size uses scale (640,360).
	Scale Vec2

	// Rotation is counter-clockwise in radians in a y-up frame, which is
	// clockwise on screen since pixel space is y-down.
	Rotation float32

	// Anchor is the pivot in normalized quad coordinates, (0,0) top-left,
	// (1,1) bottom-right.
	Anchor Vec2
}

// DefaultTransform returns the identity transform: no offset, unit scale,
// no rotation, centered anchor.
func DefaultTransform() LayerTransform {
	return LayerTransform{
		Scale:  Vec2{X: 1, Y: 1},
		Anchor: Vec2{X: 0.5, Y: 0.5},
	}
}

// Matrix returns the model matrix for the transform.
func (t LayerTransform) Matrix() mgl32.Mat4 {
	shift := mgl32.Translate3D(0.5-t.Anchor.X, 0.5-t.Anchor.Y, 0)
	scale := mgl32.Scale3D(t.Scale.X, t.Scale.Y, 1)
	rot := mgl32.HomogRotate3DZ(t.Rotation)
	pos := mgl32.Translate3D(t.Position.X, t.Position.Y, 0)
	return pos.Mul4(rot).Mul4(scale).Mul4(shift)
}

// Apply maps the local quad point (x, y) through the transform.
func (t LayerTransform) Apply(x, y float32) Vec2 {
	return Apply(t.Matrix(), x, y)
}

// AnchorPoint returns the anchor in local quad coordinates (-0.5..0.5).
func (t LayerTransform) AnchorPoint() Vec2 {
	return Vec2{X: t.Anchor.X - 0.5, Y: t.Anchor.Y - 0.5}
}

// Apply maps the 2D point (x, y) through m, treating it as (x, y, 0, 1).
func Apply(m mgl32.Mat4, x, y float32) Vec2 {
	v := m.Mul4x1(mgl32.Vec4{x, y, 0, 1})
	return Vec2{X: v.X(), Y: v.Y()}
}

// Projection returns the orthographic matrix that maps pixel space of a
// width x height target, origin top-left and y down, to clip space.
func Projection(width, height uint32) mgl32.Mat4 {
	return mgl32.Ortho(0, float32(width), float32(height), 0, -1, 1)
}

// Corners returns the four quad corners in pixel space, in the order
// top-left, bottom-left, bottom-right, top-right of the source texture.
func (t LayerTransform) Corners() [4]Vec2 {
	m := t.Matrix()
	return [4]Vec2{
		Apply(m, -0.5, -0.5),
		Apply(m, -0.5, 0.5),
		Apply(m, 0.5, 0.5),
		Apply(m, 0.5, -0.5),
	}
}
