// Package animate tweens layer transforms and opacity between keyframes.
//
// There is no clock: callers advance animations with Update(dt) once per
// composited frame, before handing the frame to the compositor.
package animate

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/gogpu/compositor/scene"
)

// Keyframe is the animatable state of a layer.
type Keyframe struct {
	Position scene.Vec2
	Scale    scene.Vec2
	Rotation float32
	Anchor   scene.Vec2
	Opacity  float32
}

// FromLayer captures the current animatable state of l.
func FromLayer(l *scene.Layer) Keyframe {
	return Keyframe{
		Position: l.Transform.Position,
		Scale:    l.Transform.Scale,
		Rotation: l.Transform.Rotation,
		Anchor:   l.Transform.Anchor,
		Opacity:  l.Opacity,
	}
}

// Apply writes k into l.
func (k Keyframe) Apply(l *scene.Layer) {
	l.Transform.Position = k.Position
	l.Transform.Scale = k.Scale
	l.Transform.Rotation = k.Rotation
	l.Transform.Anchor = k.Anchor
	l.Opacity = k.Opacity
}

const fieldCount = 8

func (k Keyframe) fields() [fieldCount]float32 {
	return [fieldCount]float32{
		k.Position.X, k.Position.Y,
		k.Scale.X, k.Scale.Y,
		k.Rotation,
		k.Anchor.X, k.Anchor.Y,
		k.Opacity,
	}
}

func keyframeOf(f [fieldCount]float32) Keyframe {
	return Keyframe{
		Position: scene.V2(f[0], f[1]),
		Scale:    scene.V2(f[2], f[3]),
		Rotation: f[4],
		Anchor:   scene.V2(f[5], f[6]),
		Opacity:  f[7],
	}
}

// TransformTween interpolates every Keyframe field with the same duration
// and easing.
type TransformTween struct {
	tweens  [fieldCount]*gween.Tween
	current Keyframe
	Done    bool
}

// NewTransformTween returns a tween from one keyframe to another over
// duration seconds. A nil fn means linear.
func NewTransformTween(from, to Keyframe, duration float32, fn ease.TweenFunc) *TransformTween {
	if fn == nil {
		fn = ease.Linear
	}
	t := &TransformTween{current: from}
	a, b := from.fields(), to.fields()
	for i := range t.tweens {
		t.tweens[i] = gween.New(a[i], b[i], duration, fn)
	}
	return t
}

// Update advances the tween by dt seconds and returns the interpolated
// keyframe and whether the tween has finished.
func (t *TransformTween) Update(dt float32) (Keyframe, bool) {
	if t.Done {
		return t.current, true
	}
	var f [fieldCount]float32
	allDone := true
	for i, tw := range t.tweens {
		val, finished := tw.Update(dt)
		f[i] = val
		if !finished {
			allDone = false
		}
	}
	t.current = keyframeOf(f)
	t.Done = allDone
	return t.current, t.Done
}

// Current returns the last interpolated keyframe.
func (t *TransformTween) Current() Keyframe { return t.current }

// Animator drives one tween per layer id.
//
// Animator is not safe for concurrent use.
type Animator struct {
	tweens map[scene.ContentID]*TransformTween
}

// NewAnimator returns an animator with no running tweens.
func NewAnimator() *Animator {
	return &Animator{tweens: make(map[scene.ContentID]*TransformTween)}
}

// Animate starts tweening the layer with the given id, replacing any tween
// already running for it.
func (a *Animator) Animate(id scene.ContentID, from, to Keyframe, duration float32, fn ease.TweenFunc) {
	a.tweens[id] = NewTransformTween(from, to, duration, fn)
}

// AnimateTo starts a tween from the layer's current state in frame. It
// reports false if frame is nil or has no layer with that id.
func (a *Animator) AnimateTo(frame *scene.FrameDescription, id scene.ContentID, to Keyframe, duration float32, fn ease.TweenFunc) bool {
	if frame == nil {
		return false
	}
	l, ok := frame.Layer(id)
	if !ok {
		return false
	}
	a.Animate(id, FromLayer(l), to, duration, fn)
	return true
}

// Stop drops the tween for id, leaving the layer where it is.
func (a *Animator) Stop(id scene.ContentID) {
	delete(a.tweens, id)
}

// Update advances every tween by dt seconds and writes the results into the
// matching layers of frame. Finished tweens are removed after their final
// value is written. Tweens whose layer is absent from frame, or all tweens
// when frame is nil, still advance.
func (a *Animator) Update(frame *scene.FrameDescription, dt float32) {
	for id, tw := range a.tweens {
		kf, done := tw.Update(dt)
		if frame != nil {
			if l, ok := frame.Layer(id); ok {
				kf.Apply(l)
			}
		}
		if done {
			delete(a.tweens, id)
		}
	}
}

// Active returns the number of running tweens.
func (a *Animator) Active() int { return len(a.tweens) }
