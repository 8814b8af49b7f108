package scene

import "slices"

// Layer is one visual element of a frame.
type Layer struct {
	ID        ContentID
	Source    Source
	Transform LayerTransform

	// Opacity multiplies the layer's alpha. It is expected in [0,1] but is
	// not clamped here.
	Opacity float32

	BlendMode BlendMode

	// EffectStack names effects to apply to the layer. The compositor does
	// not consume it yet; it is carried through serialization unchanged.
	EffectStack []string
}

// NewLayer returns a layer with a fresh id, the default transform, full
// opacity, normal blending and no effects.
func NewLayer(src Source) Layer {
	return Layer{
		ID:          NewContentID(),
		Source:      src,
		Transform:   DefaultTransform(),
		Opacity:     1,
		BlendMode:   BlendNormal,
		EffectStack: []string{},
	}
}

// NewVideoLayer returns a layer drawing the video uploaded under id.
func NewVideoLayer(id ContentID) Layer {
	return NewLayer(VideoSource{ResourceID: id})
}

// NewImageLayer returns a layer drawing the image uploaded under id.
func NewImageLayer(id ContentID) Layer {
	return NewLayer(ImageSource{ResourceID: id})
}

// NewColorLayer returns a layer filled with c.
func NewColorLayer(c Color) Layer {
	return NewLayer(ColorSource{Color: c})
}

// Clone returns a copy of l that shares no slices with it.
func (l Layer) Clone() Layer {
	l.EffectStack = slices.Clone(l.EffectStack)
	if l.EffectStack == nil {
		l.EffectStack = []string{}
	}
	return l
}
