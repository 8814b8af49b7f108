// Package scene describes a composited frame: its dimensions, clear color
// and an ordered list of layers, each referencing content by identifier.
//
// A FrameDescription carries no GPU handles. Callers build one per frame
// (or clone and mutate the previous one) and hand it to the compositor,
// which reads it and never retains it.
//
// # Transform algebra
//
// Every layer is drawn as a unit quad spanning (-0.5,-0.5) to (0.5,0.5) in
// local space. [LayerTransform.Matrix] places that quad in pixel space:
//
//	M = Translate(position) · RotateZ(rotation) · Scale(sx, sy, 1) · Translate(0.5-ax, 0.5-ay, 0)
//
// The anchor is a normalized 0..1 point inside the quad; it ends up exactly
// at position and is the pivot for scale and rotation. Local space is y-down
// like pixel space, so anchor (0,0) is the top-left corner of the layer.
//
// [Projection] maps pixel space (origin top-left, y down) to clip space.
//
// # Interchange format
//
// [Marshal] and [Unmarshal] convert a FrameDescription to and from JSON.
// The source of a layer is a tagged union:
//
//	{"type":"Video","value":{"resource_id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}}
//	{"type":"Color","value":{"color":[1,0,0,1]}}
//
// Omitted layer fields decode to their defaults.
package scene
