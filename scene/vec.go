package scene

import (
	"encoding/json"
	"fmt"
)

// Color is a normalized RGBA color, straight (not premultiplied) alpha.
type Color [4]float32

// Common colors.
var (
	Transparent = Color{0, 0, 0, 0}
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
)

// RGBA returns a color from its components.
func RGBA(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// Premultiplied returns the color with RGB scaled by alpha.
func (c Color) Premultiplied() Color {
	return Color{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]}
}

// Vec2 is a 2D vector. In JSON it is a two-element array.
type Vec2 struct {
	X, Y float32
}

// V2 is shorthand for Vec2{X: x, Y: y}.
func V2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Lerp interpolates between v and o by t.
func (v Vec2) Lerp(o Vec2, t float32) Vec2 {
	return Vec2{X: v.X + (o.X-v.X)*t, Y: v.Y + (o.Y-v.Y)*t}
}

// MarshalJSON encodes v as [x, y].
func (v Vec2) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float32{v.X, v.Y})
}

// UnmarshalJSON decodes v from [x, y].
func (v *Vec2) UnmarshalJSON(data []byte) error {
	var arr []float32
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("scene: vec2: %w", err)
	}
	if len(arr) != 2 {
		return fmt.Errorf("scene: vec2: want 2 elements, got %d", len(arr))
	}
	v.X, v.Y = arr[0], arr[1]
	return nil
}
