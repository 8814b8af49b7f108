package scene

import "fmt"

// BlendMode selects how a layer combines with what is already drawn.
// The zero value is BlendNormal.
type BlendMode uint8

// Blend mode constants.
const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendAdd

	blendModeCount
)

var blendModeNames = [blendModeCount]string{
	BlendNormal:   "Normal",
	BlendMultiply: "Multiply",
	BlendScreen:   "Screen",
	BlendOverlay:  "Overlay",
	BlendDarken:   "Darken",
	BlendLighten:  "Lighten",
	BlendAdd:      "Add",
}

// BlendModes returns every defined blend mode in declaration order.
func BlendModes() []BlendMode {
	modes := make([]BlendMode, blendModeCount)
	for i := range modes {
		modes[i] = BlendMode(i)
	}
	return modes
}

// String returns the interchange name of the blend mode.
func (m BlendMode) String() string {
	if m < blendModeCount {
		return blendModeNames[m]
	}
	return fmt.Sprintf("BlendMode(%d)", uint8(m))
}

// Valid reports whether m is a defined blend mode.
func (m BlendMode) Valid() bool {
	return m < blendModeCount
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("scene: unknown blend mode %d", uint8(m))
	}
	return []byte(blendModeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	for i, name := range blendModeNames {
		if name == string(text) {
			*m = BlendMode(i)
			return nil
		}
	}
	return fmt.Errorf("scene: unknown blend mode %q", text)
}
