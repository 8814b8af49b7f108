package gpu

import (
	"github.com/gogpu/compositor/scene"
	"github.com/gogpu/gputypes"
)

// BlendVariant is a fixed-function blend configuration with its own
// render pipeline. Every variant assumes premultiplied source color.
type BlendVariant uint8

// Blend variants.
const (
	BlendVariantNormal BlendVariant = iota
	BlendVariantAdd
	BlendVariantMultiply
	BlendVariantScreen
	BlendVariantLighten

	blendVariantCount
)

// String returns a short name for the variant.
func (v BlendVariant) String() string {
	switch v {
	case BlendVariantNormal:
		return "normal"
	case BlendVariantAdd:
		return "add"
	case BlendVariantMultiply:
		return "multiply"
	case BlendVariantScreen:
		return "screen"
	case BlendVariantLighten:
		return "lighten"
	default:
		return "unknown"
	}
}

// VariantFor maps a layer blend mode to the pipeline variant that draws it.
// Overlay needs the destination color in a conditional and has no
// fixed-function form. Premultiplied darken,
// min(src*dstA, dst*srcA) + src*(1-dstA) + dst*(1-srcA), has none either;
// a plain min would pull dst toward black under transparent texels.
// Both draw with the Normal variant.
func VariantFor(m scene.BlendMode) BlendVariant {
	switch m {
	case scene.BlendAdd:
		return BlendVariantAdd
	case scene.BlendMultiply:
		return BlendVariantMultiply
	case scene.BlendScreen:
		return BlendVariantScreen
	case scene.BlendLighten:
		return BlendVariantLighten
	default:
		return BlendVariantNormal
	}
}

// sourceOver is the premultiplied alpha channel shared by all variants
// except Add.
var sourceOver = gputypes.BlendComponent{
	SrcFactor: gputypes.BlendFactorOne,
	DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
	Operation: gputypes.BlendOperationAdd,
}

// BlendState returns the fixed-function blend state of the variant.
//
//	normal:   src + dst*(1-srcA)
//	add:      src + dst
//	multiply: src*dst + dst*(1-srcA)
//	screen:   src + dst*(1-src)
//	lighten:  max(src, dst)
func (v BlendVariant) BlendState() gputypes.BlendState {
	switch v {
	case BlendVariantAdd:
		add := gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		}
		return gputypes.BlendState{Color: add, Alpha: add}
	case BlendVariantMultiply:
		return gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorDst,
				DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: sourceOver,
		}
	case BlendVariantScreen:
		return gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorOneMinusSrc,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: sourceOver,
		}
	case BlendVariantLighten:
		return gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorOne,
				Operation: gputypes.BlendOperationMax,
			},
			Alpha: sourceOver,
		}
	default:
		return gputypes.BlendState{Color: sourceOver, Alpha: sourceOver}
	}
}
