package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSource is returned when decoding a source with an unknown tag.
var ErrUnknownSource = errors.New("scene: unknown source type")

// Marshal encodes f in the interchange format.
func Marshal(f *FrameDescription) ([]byte, error) {
	return json.Marshal(f)
}

// Unmarshal decodes a frame from the interchange format.
func Unmarshal(data []byte) (*FrameDescription, error) {
	var f FrameDescription
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

type frameJSON struct {
	Dimensions      [2]uint32 `json:"dimensions"`
	Layers          []Layer   `json:"layers"`
	BackgroundColor Color     `json:"background_color"`
}

// MarshalJSON implements json.Marshaler.
func (f FrameDescription) MarshalJSON() ([]byte, error) {
	layers := f.Layers
	if layers == nil {
		layers = []Layer{}
	}
	return json.Marshal(frameJSON{
		Dimensions:      [2]uint32{f.Width, f.Height},
		Layers:          layers,
		BackgroundColor: f.BackgroundColor,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FrameDescription) UnmarshalJSON(data []byte) error {
	var fj frameJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		return err
	}
	f.Width, f.Height = fj.Dimensions[0], fj.Dimensions[1]
	f.BackgroundColor = fj.BackgroundColor
	f.Layers = fj.Layers
	if f.Layers == nil {
		f.Layers = []Layer{}
	}
	return nil
}

type layerJSON struct {
	ID          ContentID      `json:"id"`
	Source      *sourceJSON    `json:"source"`
	Transform   *transformJSON `json:"transform,omitempty"`
	Opacity     *float32       `json:"opacity,omitempty"`
	BlendMode   *BlendMode     `json:"blend_mode,omitempty"`
	EffectStack []string       `json:"effect_stack"`
}

type transformJSON struct {
	Position *Vec2    `json:"position,omitempty"`
	Scale    *Vec2    `json:"scale,omitempty"`
	Rotation *float32 `json:"rotation,omitempty"`
	Anchor   *Vec2    `json:"anchor,omitempty"`
}

type sourceJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type resourceValue struct {
	ResourceID ContentID `json:"resource_id"`
}

type colorValue struct {
	Color Color `json:"color"`
}

// MarshalJSON implements json.Marshaler.
func (l Layer) MarshalJSON() ([]byte, error) {
	src, err := encodeSource(l.Source)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", l.ID, err)
	}
	t := l.Transform
	opacity := l.Opacity
	blend := l.BlendMode
	effects := l.EffectStack
	if effects == nil {
		effects = []string{}
	}
	return json.Marshal(layerJSON{
		ID:     l.ID,
		Source: src,
		Transform: &transformJSON{
			Position: &t.Position,
			Scale:    &t.Scale,
			Rotation: &t.Rotation,
			Anchor:   &t.Anchor,
		},
		Opacity:     &opacity,
		BlendMode:   &blend,
		EffectStack: effects,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Omitted fields take the values
// NewLayer would give them.
func (l *Layer) UnmarshalJSON(data []byte) error {
	var lj layerJSON
	if err := json.Unmarshal(data, &lj); err != nil {
		return err
	}
	if lj.Source == nil {
		return fmt.Errorf("layer %s: %w", lj.ID, ErrNoSource)
	}
	src, err := decodeSource(lj.Source)
	if err != nil {
		return fmt.Errorf("layer %s: %w", lj.ID, err)
	}

	out := Layer{
		ID:          lj.ID,
		Source:      src,
		Transform:   DefaultTransform(),
		Opacity:     1,
		BlendMode:   BlendNormal,
		EffectStack: lj.EffectStack,
	}
	if tj := lj.Transform; tj != nil {
		if tj.Position != nil {
			out.Transform.Position = *tj.Position
		}
		if tj.Scale != nil {
			out.Transform.Scale = *tj.Scale
		}
		if tj.Rotation != nil {
			out.Transform.Rotation = *tj.Rotation
		}
		if tj.Anchor != nil {
			out.Transform.Anchor = *tj.Anchor
		}
	}
	if lj.Opacity != nil {
		out.Opacity = *lj.Opacity
	}
	if lj.BlendMode != nil {
		out.BlendMode = *lj.BlendMode
	}
	if out.EffectStack == nil {
		out.EffectStack = []string{}
	}
	*l = out
	return nil
}

func encodeSource(s Source) (*sourceJSON, error) {
	var value any
	switch s := s.(type) {
	case VideoSource:
		value = resourceValue{ResourceID: s.ResourceID}
	case ImageSource:
		value = resourceValue{ResourceID: s.ResourceID}
	case ColorSource:
		value = colorValue{Color: s.Color}
	case nil:
		return nil, ErrNoSource
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownSource, s)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return &sourceJSON{Type: s.Kind().String(), Value: raw}, nil
}

func decodeSource(sj *sourceJSON) (Source, error) {
	switch sj.Type {
	case "Video", "Image":
		var v resourceValue
		if err := json.Unmarshal(sj.Value, &v); err != nil {
			return nil, fmt.Errorf("%s source: %w", strings.ToLower(sj.Type), err)
		}
		if sj.Type == "Video" {
			return VideoSource{ResourceID: v.ResourceID}, nil
		}
		return ImageSource{ResourceID: v.ResourceID}, nil
	case "Color":
		var v colorValue
		if err := json.Unmarshal(sj.Value, &v); err != nil {
			return nil, fmt.Errorf("color source: %w", err)
		}
		return ColorSource{Color: v.Color}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownSource, sj.Type)
	}
}
