package scene

import "github.com/google/uuid"

// ContentID identifies a texture resource and, for layers, the layer itself.
// It is a comparable value type and can be used as a map key.
type ContentID = uuid.UUID

// NilContentID is the zero identifier. It never names a real resource.
var NilContentID ContentID

// NewContentID returns a fresh random identifier.
func NewContentID() ContentID {
	return uuid.New()
}

// ParseContentID parses the canonical textual form of an identifier.
func ParseContentID(s string) (ContentID, error) {
	return uuid.Parse(s)
}
